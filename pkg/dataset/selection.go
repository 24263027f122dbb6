// Package dataset holds the selection and collection rules shared by the chat view and the HTTP layer.
// Dataset id lists are treated as sets everywhere: order never matters and duplicates are dropped.
package dataset

// Dedupe drops repeated ids, keeping first occurrences in order. The result is never nil.
func Dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Equal reports whether a and b hold the same ids, ignoring order.
// Both sides are compared as sets, so cardinality is measured after deduplication.
func Equal(a, b []string) bool {
	setA := toSet(a)
	setB := toSet(b)
	if len(setA) != len(setB) {
		return false
	}
	for id := range setA {
		if _, ok := setB[id]; !ok {
			return false
		}
	}
	return true
}

// Clone copies ids so callers can hand out snapshots without sharing backing arrays.
func Clone(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
