package message

import (
	"encoding/json"
	"time"
)

// Kind selects which historical payload schema a stored message uses.
type Kind int

const (
	KindLegacyUser Kind = 0 // { query }
	KindLegacyAI   Kind = 1 // [{ dataset: { id, code, name } }]
	KindUser       Kind = 2 // { question, datasetIds }
	KindAI         Kind = 3 // { entries: [{ result: { table } }], data: { InputParams } }

	// KindUnknown marks a record whose envelope could not be decoded.
	KindUnknown Kind = -1
)

// Message types as rendered by the chat view.
const (
	TypeUser = "user"
	TypeAI   = "ai"
)

// RawData wraps the versioned payload of a stored message.
// Kind and Version are never read, so they stay untyped.
type RawData struct {
	Kind    any             `json:"kind,omitempty"`
	Payload json.RawMessage `json:"payload"`
	Version any             `json:"version,omitempty"`
}

// RawConversationMessage is a message record exactly as the remote API returns it.
// Id is kept untyped because older records do not always carry a string id.
type RawConversationMessage struct {
	Id           any             `json:"id,omitempty"`
	Conversation json.RawMessage `json:"conversation,omitempty"`
	Kind         Kind            `json:"kind"`
	Data         RawData         `json:"data"`
	CreatedAt    string          `json:"createdAt"`
}

// DecodeRaw decodes one listing item. A record whose envelope does not fit becomes a
// KindUnknown message that keeps whatever string id and timestamp it had.
func DecodeRaw(item json.RawMessage) RawConversationMessage {
	var raw RawConversationMessage
	if err := json.Unmarshal(item, &raw); err == nil {
		return raw
	}

	out := RawConversationMessage{Kind: KindUnknown}
	if id, ok := stringValue(field(item, "id")); ok {
		out.Id = id
	}
	if at, ok := stringValue(field(item, "createdAt")); ok {
		out.CreatedAt = at
	}
	return out
}

// DecodeRawList decodes a listing item by item so one bad record never loses the others.
func DecodeRawList(items []json.RawMessage) []RawConversationMessage {
	out := make([]RawConversationMessage, 0, len(items))
	for _, item := range items {
		out = append(out, DecodeRaw(item))
	}
	return out
}

// UIMessage is the uniform message model the chat view works with.
type UIMessage struct {
	Id                string          `json:"id"`
	Type              string          `json:"type"`
	Content           string          `json:"content"`
	Timestamp         string          `json:"timestamp"`
	Sources           *int            `json:"sources,omitempty"`
	RelatedDatasetIds []string        `json:"relatedDatasetIds,omitempty"`
	DatasetIds        []string        `json:"datasetIds,omitempty"`
	TableData         json.RawMessage `json:"tableData,omitempty"`
	Latitude          *float64        `json:"latitude,omitempty"`
	Longitude         *float64        `json:"longitude,omitempty"`
}

// DatasetInfo returns the dataset ids a message was bound to, if any.
// AI messages report the datasets they surfaced, user messages the datasets they were asked against.
func (m UIMessage) DatasetInfo() []string {
	if m.Type == TypeAI && len(m.RelatedDatasetIds) > 0 {
		return m.RelatedDatasetIds
	}
	if m.Type == TypeUser && len(m.DatasetIds) > 0 {
		return m.DatasetIds
	}
	return nil
}

// Table decodes TableData. It returns nil when the message carries no table.
func (m UIMessage) Table() (*Table, error) {
	if len(m.TableData) == 0 {
		return nil, nil
	}
	var t Table
	if err := json.Unmarshal(m.TableData, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// NewUserMessage builds the message shown immediately after a question is sent.
func NewUserMessage(id, question string, datasetIds []string, at time.Time) UIMessage {
	return UIMessage{
		Id:         id,
		Type:       TypeUser,
		Content:    question,
		Timestamp:  at.UTC().Format(time.RFC3339Nano),
		DatasetIds: datasetIds,
	}
}

type TableColumn struct {
	ColumnNumber int    `json:"columnNumber"`
	Name         string `json:"name"`
}

// TableCell values are either strings or numbers.
type TableCell struct {
	Column string `json:"column"`
	Value  any    `json:"value"`
}

type TableRow struct {
	RowNumber int         `json:"rowNumber"`
	Cells     []TableCell `json:"cells"`
}

type Table struct {
	Columns []TableColumn `json:"columns"`
	Rows    []TableRow    `json:"rows"`
}
