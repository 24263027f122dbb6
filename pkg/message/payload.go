package message

import (
	"bytes"
	"encoding/json"
)

// Payload is the decoded form of RawData.Payload. Exactly one case exists per known Kind,
// plus UnknownPayload for kinds this build does not recognise.
type Payload interface {
	payloadKind() Kind
}

type LegacyUserPayload struct {
	Query string
}

type LegacyAIPayload struct {
	Names      []string
	DatasetIds []string
	// IsList is false when the payload was not an array; Text then holds its rendering.
	IsList bool
	Text   string
}

type UserPayload struct {
	Question   string
	DatasetIds []string
}

type AIPayload struct {
	Table         json.RawMessage
	TableComplete bool
	Latitude      *float64
	Longitude     *float64
}

type UnknownPayload struct {
	Kind Kind
}

func (LegacyUserPayload) payloadKind() Kind { return KindLegacyUser }
func (LegacyAIPayload) payloadKind() Kind   { return KindLegacyAI }
func (UserPayload) payloadKind() Kind       { return KindUser }
func (AIPayload) payloadKind() Kind         { return KindAI }
func (p UnknownPayload) payloadKind() Kind  { return p.Kind }

// DecodePayload interprets raw according to kind. Shape mismatches degrade to zero values.
func DecodePayload(kind Kind, raw json.RawMessage) Payload {
	switch kind {
	case KindLegacyUser:
		return decodeLegacyUser(raw)
	case KindLegacyAI:
		return decodeLegacyAI(raw)
	case KindUser:
		return decodeUser(raw)
	case KindAI:
		return decodeAI(raw)
	default:
		return UnknownPayload{Kind: kind}
	}
}

func decodeLegacyUser(raw json.RawMessage) LegacyUserPayload {
	query, _ := stringValue(field(raw, "query"))
	return LegacyUserPayload{Query: query}
}

func decodeLegacyAI(raw json.RawMessage) LegacyAIPayload {
	items, ok := elements(raw)
	if !ok {
		return LegacyAIPayload{Text: render(raw)}
	}

	p := LegacyAIPayload{IsList: true, Names: []string{}, DatasetIds: []string{}}
	for _, item := range items {
		ds := field(item, "dataset")
		if name, ok := stringValue(field(ds, "name")); ok {
			p.Names = append(p.Names, name)
		}
		if id, ok := stringValue(field(ds, "id")); ok {
			p.DatasetIds = append(p.DatasetIds, id)
		}
	}
	p.DatasetIds = uniqueStrings(p.DatasetIds)
	return p
}

func decodeUser(raw json.RawMessage) UserPayload {
	question, _ := stringValue(field(raw, "question"))
	p := UserPayload{Question: question, DatasetIds: []string{}}

	ids, ok := elements(field(raw, "datasetIds"))
	if !ok {
		return p
	}
	for _, id := range ids {
		if s, ok := stringValue(id); ok {
			p.DatasetIds = append(p.DatasetIds, s)
		}
	}
	p.DatasetIds = uniqueStrings(p.DatasetIds)
	return p
}

func decodeAI(raw json.RawMessage) AIPayload {
	var p AIPayload

	if params, ok := elements(field(field(raw, "data"), "InputParams")); ok {
		for _, param := range params {
			lat, hasLat := lookup(param, "lat")
			lon, hasLon := lookup(param, "lon")
			if !hasLat || !hasLon {
				continue
			}
			if v, ok := numberValue(lat); ok {
				p.Latitude = &v
			}
			if v, ok := numberValue(lon); ok {
				p.Longitude = &v
			}
			break
		}
	}

	entries, ok := elements(field(raw, "entries"))
	if !ok || len(entries) == 0 {
		return p
	}
	table := field(field(entries[0], "result"), "table")
	if !truthy(table) {
		return p
	}
	p.Table = table
	p.TableComplete = truthy(field(table, "columns")) && truthy(field(table, "rows"))
	return p
}

// --- tolerant JSON navigation ---

// lookup returns the member key of a JSON object. Arrays and scalars have no members.
func lookup(raw json.RawMessage, key string) (json.RawMessage, bool) {
	if leading(raw) != '{' {
		return nil, false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, false
	}
	v, ok := obj[key]
	return v, ok
}

func field(raw json.RawMessage, key string) json.RawMessage {
	v, _ := lookup(raw, key)
	return v
}

func elements(raw json.RawMessage) ([]json.RawMessage, bool) {
	if leading(raw) != '[' {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	return items, true
}

func stringValue(raw json.RawMessage) (string, bool) {
	if leading(raw) != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func numberValue(raw json.RawMessage) (float64, bool) {
	c := leading(raw)
	if c != '-' && (c < '0' || c > '9') {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}
	return f, true
}

// truthy mirrors the loose presence checks the stored payloads were written against:
// absent, null, false, 0 and "" count as missing.
func truthy(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return false
	}
	switch string(trimmed) {
	case "null", "false", `""`:
		return false
	}
	if f, ok := numberValue(trimmed); ok {
		return f != 0
	}
	return true
}

// render turns a non-list payload into display text: strings as-is, anything else as compact JSON.
func render(raw json.RawMessage) string {
	if s, ok := stringValue(raw); ok {
		return s
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return ""
	}
	return buf.String()
}

func leading(raw json.RawMessage) byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
