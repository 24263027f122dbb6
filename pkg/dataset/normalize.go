package dataset

import (
	"fmt"
	"maps"
	"strconv"
)

// NormalizeDatasets gives every item a top-level string "id". Wrapper items of the form
// {"dataset": {"id": ...}} take the nested id. Items that need rewriting are shallow-copied;
// the input maps are never modified.
func NormalizeDatasets(items []map[string]any) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if nested, ok := nestedID(item); ok {
			out = append(out, withID(item, nested))
			continue
		}
		if _, ok := item["id"].(string); ok {
			out = append(out, item)
			continue
		}
		out = append(out, withID(item, idString(item["id"])))
	}
	return out
}

func nestedID(item map[string]any) (string, bool) {
	wrapped, ok := item["dataset"].(map[string]any)
	if !ok {
		return "", false
	}
	id, present := wrapped["id"]
	if !present || id == nil {
		return "", false
	}
	return idString(id), true
}

func withID(item map[string]any, id string) map[string]any {
	cp := make(map[string]any, len(item)+1)
	maps.Copy(cp, item)
	cp["id"] = id
	return cp
}

func idString(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	default:
		return fmt.Sprint(id)
	}
}
