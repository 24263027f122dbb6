package message

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func raw(id any, kind Kind, payload string) RawConversationMessage {
	return RawConversationMessage{
		Id:        id,
		Kind:      kind,
		Data:      RawData{Kind: kind, Payload: json.RawMessage(payload), Version: "1"},
		CreatedAt: "2024-05-01T10:00:00Z",
	}
}

func TestParseLegacyUser(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{"query string", `{"query":"rainfall in 2020"}`, "rainfall in 2020"},
		{"query not a string", `{"query":42}`, ""},
		{"array payload", `["rainfall"]`, ""},
		{"missing payload", ``, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := Parse(raw("m1", KindLegacyUser, tt.payload), 0)
			assert.Equal(t, TypeUser, msg.Type)
			assert.Equal(t, tt.want, msg.Content)
			assert.Equal(t, "m1", msg.Id)
			assert.Equal(t, "2024-05-01T10:00:00Z", msg.Timestamp)
		})
	}
}

func TestParseLegacyAI(t *testing.T) {
	t.Run("single dataset", func(t *testing.T) {
		msg := Parse(raw("m1", KindLegacyAI, `[{"dataset":{"id":"a","name":"X"}}]`), 0)
		assert.Equal(t, TypeAI, msg.Type)
		assert.Equal(t, "Given your question, the following dataset might be useful: X", msg.Content)
		assert.Equal(t, []string{"a"}, msg.RelatedDatasetIds)
		require.NotNil(t, msg.Sources)
		assert.Equal(t, 1, *msg.Sources)
	})

	t.Run("several datasets", func(t *testing.T) {
		msg := Parse(raw("m1", KindLegacyAI, `[{"dataset":{"id":"a","name":"X"}},{"dataset":{"id":"b","name":"Y"}}]`), 0)
		assert.Equal(t, "Given your question, the following datasets might be useful:\n\n• X\n• Y", msg.Content)
		assert.Contains(t, msg.Content, "• X")
		assert.Contains(t, msg.Content, "• Y")
		assert.Equal(t, 2, *msg.Sources)
	})

	t.Run("names and ids filtered independently", func(t *testing.T) {
		msg := Parse(raw("m1", KindLegacyAI, `[{"dataset":{"id":7,"name":"X"}},{"dataset":{"id":"b","name":null}},{"other":true},"junk"]`), 0)
		assert.Equal(t, "Given your question, the following dataset might be useful: X", msg.Content)
		assert.Equal(t, []string{"b"}, msg.RelatedDatasetIds)
		assert.Equal(t, 1, *msg.Sources)
	})

	t.Run("no names", func(t *testing.T) {
		msg := Parse(raw("m1", KindLegacyAI, `[]`), 0)
		assert.Equal(t, "Given your question, some datasets might be useful, but no names were found.", msg.Content)
		assert.Empty(t, msg.RelatedDatasetIds)
		assert.Equal(t, 0, *msg.Sources)
	})

	t.Run("string payload", func(t *testing.T) {
		msg := Parse(raw("m1", KindLegacyAI, `"plain answer"`), 0)
		assert.Equal(t, "plain answer", msg.Content)
		assert.Equal(t, 0, *msg.Sources)
	})

	t.Run("object payload is rendered as JSON", func(t *testing.T) {
		msg := Parse(raw("m1", KindLegacyAI, `{ "answer" : 1 }`), 0)
		assert.Equal(t, `{"answer":1}`, msg.Content)
	})
}

func TestParseUser(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		content  string
		datasets []string
	}{
		{"question and datasets", `{"question":"Q1","datasetIds":["d1","d2"]}`, "Q1", []string{"d1", "d2"}},
		{"non-string ids dropped", `{"question":"Q1","datasetIds":["d1",2,null,"d2"]}`, "Q1", []string{"d1", "d2"}},
		{"duplicate ids dropped", `{"question":"Q1","datasetIds":["d1","d1","d2"]}`, "Q1", []string{"d1", "d2"}},
		{"datasetIds not an array", `{"question":"Q1","datasetIds":"d1"}`, "Q1", []string{}},
		{"no question", `{"datasetIds":["d1"]}`, "", []string{"d1"}},
		{"array payload", `[{"question":"Q1"}]`, "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := Parse(raw("m1", KindUser, tt.payload), 0)
			assert.Equal(t, TypeUser, msg.Type)
			assert.Equal(t, tt.content, msg.Content)
			assert.Equal(t, tt.datasets, msg.DatasetIds)
		})
	}
}

func TestParseAI(t *testing.T) {
	const table = `{"columns":[{"columnNumber":1,"name":"C"}],"rows":[{"rowNumber":1,"cells":[{"column":"C","value":1}]}]}`

	t.Run("complete table", func(t *testing.T) {
		msg := Parse(raw("m2", KindAI, `{"entries":[{"result":{"table":`+table+`}}]}`), 1)
		assert.Equal(t, TypeAI, msg.Type)
		assert.Equal(t, "Table Results:\n", msg.Content)
		assert.JSONEq(t, table, string(msg.TableData))
		assert.NotNil(t, msg.RelatedDatasetIds)
		assert.Empty(t, msg.RelatedDatasetIds)

		decoded, err := msg.Table()
		require.NoError(t, err)
		require.Len(t, decoded.Rows, 1)
		assert.Equal(t, "C", decoded.Columns[0].Name)
		assert.Equal(t, float64(1), decoded.Rows[0].Cells[0].Value)
	})

	t.Run("table without rows", func(t *testing.T) {
		msg := Parse(raw("m2", KindAI, `{"entries":[{"result":{"table":{"columns":[]}}}]}`), 1)
		assert.Equal(t, "Data analysis completed.", msg.Content)
		assert.JSONEq(t, `{"columns":[]}`, string(msg.TableData))
	})

	t.Run("no entries", func(t *testing.T) {
		for _, payload := range []string{`{}`, `{"entries":[]}`, `{"entries":[{"result":{}}]}`, `{"entries":{"0":1}}`, `null`} {
			msg := Parse(raw("m2", KindAI, payload), 1)
			assert.Equal(t, "Analysis completed.", msg.Content, payload)
			assert.Nil(t, msg.TableData, payload)
		}
	})

	t.Run("first coordinate pair wins", func(t *testing.T) {
		msg := Parse(raw("m2", KindAI, `{"data":{"InputParams":[{"lat":1},{"lat":46.5,"lon":6.6},{"lat":0,"lon":0}]}}`), 1)
		require.NotNil(t, msg.Latitude)
		require.NotNil(t, msg.Longitude)
		assert.Equal(t, 46.5, *msg.Latitude)
		assert.Equal(t, 6.6, *msg.Longitude)
	})

	t.Run("coordinates are not coerced", func(t *testing.T) {
		msg := Parse(raw("m2", KindAI, `{"data":{"InputParams":[{"lat":"46.5","lon":6.6}]}}`), 1)
		assert.Nil(t, msg.Latitude)
		require.NotNil(t, msg.Longitude)
		assert.Equal(t, 6.6, *msg.Longitude)
	})
}

func TestParseUnknownKind(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{4, TypeUser},
		{5, TypeAI},
		{-1, TypeAI},
		{-2, TypeUser},
		{1000, TypeUser},
	}

	for _, tt := range tests {
		msg := Parse(raw(nil, tt.kind, `{"question":"ignored"}`), 3)
		assert.Equal(t, tt.want, msg.Type, "kind %d", tt.kind)
		assert.Equal(t, "", msg.Content)
		assert.Equal(t, "3", msg.Id)
	}
}

func TestParseIdFallback(t *testing.T) {
	assert.Equal(t, "7", Parse(raw(nil, KindUser, `{}`), 7).Id)
	assert.Equal(t, "7", Parse(raw(float64(12), KindUser, `{}`), 7).Id)
	assert.Equal(t, "abc", Parse(raw("abc", KindUser, `{}`), 7).Id)
}

func TestParseNeverPanics(t *testing.T) {
	payloads := []string{``, `null`, `1`, `"x"`, `[]`, `{}`, `[1,"a",null]`, `{"entries":null}`, `{bad json`}
	for kind := Kind(-3); kind <= 6; kind++ {
		for _, payload := range payloads {
			assert.NotPanics(t, func() { Parse(raw(nil, kind, payload), 0) })
		}
	}
}

func TestParseAllConversation(t *testing.T) {
	var raws []RawConversationMessage
	body := `[
		{"kind":2,"data":{"kind":2,"payload":{"question":"Q1","datasetIds":["d1"]}},"createdAt":"t1"},
		{"kind":3,"data":{"kind":3,"payload":{"entries":[{"result":{"table":{"columns":[{"columnNumber":1,"name":"C"}],"rows":[{"rowNumber":1,"cells":[{"column":"C","value":1}]}]}}}]}},"createdAt":"t2"}
	]`
	require.NoError(t, json.Unmarshal([]byte(body), &raws))

	msgs := ParseAll(raws)
	require.Len(t, msgs, 2)

	assert.Equal(t, TypeUser, msgs[0].Type)
	assert.Equal(t, "Q1", msgs[0].Content)
	assert.Equal(t, []string{"d1"}, msgs[0].DatasetIds)
	assert.Equal(t, "0", msgs[0].Id)

	assert.Equal(t, TypeAI, msgs[1].Type)
	assert.Equal(t, "Table Results:\n", msgs[1].Content)
	assert.JSONEq(t, `{"columns":[{"columnNumber":1,"name":"C"}],"rows":[{"rowNumber":1,"cells":[{"column":"C","value":1}]}]}`, string(msgs[1].TableData))
	assert.Equal(t, "1", msgs[1].Id)
}

func TestDatasetInfo(t *testing.T) {
	assert.Equal(t, []string{"a"}, UIMessage{Type: TypeAI, RelatedDatasetIds: []string{"a"}}.DatasetInfo())
	assert.Equal(t, []string{"b"}, UIMessage{Type: TypeUser, DatasetIds: []string{"b"}}.DatasetInfo())
	assert.Nil(t, UIMessage{Type: TypeAI, DatasetIds: []string{"b"}}.DatasetInfo())
	assert.Nil(t, UIMessage{Type: TypeUser}.DatasetInfo())
}

func TestDecodeRaw(t *testing.T) {
	tests := []struct {
		name     string
		item     string
		wantKind Kind
		wantId   any
		wantType string
	}{
		{name: "well formed", item: `{"id":"a","kind":2,"data":{"kind":2,"payload":{"question":"Q"},"version":"1"}}`, wantKind: KindUser, wantId: "a", wantType: TypeUser},
		{name: "loose metadata", item: `{"id":"b","kind":0,"conversation":"c","data":{"kind":"0","payload":{"query":"hi"},"version":3}}`, wantKind: KindLegacyUser, wantId: "b", wantType: TypeUser},
		{name: "string kind", item: `{"id":"c","kind":"3","data":{}}`, wantKind: KindUnknown, wantId: "c", wantType: TypeAI},
		{name: "not an object", item: `"garbage"`, wantKind: KindUnknown, wantId: nil, wantType: TypeAI},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := DecodeRaw(json.RawMessage(tt.item))
			assert.Equal(t, tt.wantKind, raw.Kind)
			assert.Equal(t, tt.wantId, raw.Id)
			assert.Equal(t, tt.wantType, Parse(raw, 4).Type)
		})
	}
}

func TestDecodeRawListKeepsPositions(t *testing.T) {
	raws := DecodeRawList([]json.RawMessage{
		json.RawMessage(`{"kind":2,"data":{"payload":{"question":"Q1"}}}`),
		json.RawMessage(`{"kind":[]}`),
		json.RawMessage(`{"kind":3,"data":{"payload":{}}}`),
	})
	msgs := ParseAll(raws)
	require.Len(t, msgs, 3)
	assert.Equal(t, []string{"0", "1", "2"}, []string{msgs[0].Id, msgs[1].Id, msgs[2].Id})
	assert.Equal(t, "Q1", msgs[0].Content)
	assert.Equal(t, "Analysis completed.", msgs[2].Content)
}
