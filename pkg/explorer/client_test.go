package explorer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dataset-explorer-be/pkg/message"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	path  string
	query string
	auth  string
	body  map[string]any
}

func newTestServer(t *testing.T, handler func(w http.ResponseWriter, r recorded)) (*Client, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		rec := recorded{path: r.URL.Path, query: r.URL.RawQuery, auth: r.Header.Get("Authorization")}
		_ = json.Unmarshal(raw, &rec.body)
		calls = append(calls, rec)
		w.Header().Set("Content-Type", "application/json")
		handler(w, rec)
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL, 5*time.Second, 5), &calls
}

func TestCreateConversation(t *testing.T) {
	c, calls := newTestServer(t, func(w http.ResponseWriter, r recorded) {
		_, _ = w.Write([]byte(`{"id":"conv-1","eTag":"e1"}`))
	})

	ctx := WithToken(context.Background(), "tok")
	conv, err := c.CreateConversation(ctx, "rainfall")
	require.NoError(t, err)
	assert.Equal(t, "conv-1", conv.Id)
	assert.Equal(t, "e1", conv.ETag)

	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, "/api/conversation/me/persist", call.path)
	assert.Equal(t, "f=id&f=etag", call.query)
	assert.Equal(t, "Bearer tok", call.auth)
	assert.Equal(t, "rainfall", call.body["name"])
	assert.NotContains(t, call.body, "conversationDatasets")
}

func TestCreateConversationWithDatasets(t *testing.T) {
	c, calls := newTestServer(t, func(w http.ResponseWriter, r recorded) {
		_, _ = w.Write([]byte(`{"id":"conv-2","eTag":"e2"}`))
	})

	_, err := c.CreateConversationWithDatasets(context.Background(), "q", []string{"d1", "d2"})
	require.NoError(t, err)

	call := (*calls)[0]
	assert.Equal(t, "/api/conversation/me/persist/deep", call.path)
	assert.Equal(t, "", call.auth)
	assert.Equal(t, []any{
		map[string]any{"datasetId": "d1"},
		map[string]any{"datasetId": "d2"},
	}, call.body["conversationDatasets"])
}

func TestSearchCrossDataset(t *testing.T) {
	c, calls := newTestServer(t, func(w http.ResponseWriter, r recorded) {
		_, _ = w.Write([]byte(`{"result":[{"dataset":{"id":"d1","code":"C1","name":"One"}},{"dataset":{"id":"d1"}},{"dataset":{"id":3}},{"score":1}]}`))
	})

	res, err := c.SearchCrossDataset(context.Background(), "conv-1", "where is it raining")
	require.NoError(t, err)
	assert.Equal(t, []string{"d1"}, res.DatasetIds())
	assert.Equal(t, "One", res.Datasets()[0].Name)

	call := (*calls)[0]
	assert.Equal(t, "/api/search/cross-dataset", call.path)
	assert.Equal(t, map[string]any{"conversationId": "conv-1", "autoCreateConversation": false}, call.body["conversationOptions"])
	assert.Equal(t, "where is it raining", call.body["query"])
	assert.Equal(t, float64(5), call.body["resultCount"])
}

func TestQueryInDataExplore(t *testing.T) {
	c, calls := newTestServer(t, func(w http.ResponseWriter, r recorded) {
		_, _ = w.Write([]byte(`{"result":{"question":"q","entries":[]}}`))
	})

	res, err := c.QueryInDataExplore(context.Background(), "conv-1", "q", []string{"d1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"question":"q","entries":[]}`, string(res.Result))

	call := (*calls)[0]
	assert.Equal(t, "/api/search/in-data-explore", call.path)
	assert.Equal(t, []any{"d1"}, call.body["datasetIds"])
	assert.Equal(t, map[string]any{"fields": []any{"question", "data", "status", "entries"}}, call.body["project"])
}

func TestListMessages(t *testing.T) {
	c, calls := newTestServer(t, func(w http.ResponseWriter, r recorded) {
		_, _ = w.Write([]byte(`{"items":[{"id":"m1","kind":2,"data":{"kind":2,"payload":{"question":"Q1"},"version":"2"},"createdAt":"t"}]}`))
	})

	msgs, err := c.ListMessages(context.Background(), "conv 1")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "m1", msgs[0].Id)
	assert.EqualValues(t, 2, msgs[0].Kind)
	assert.Equal(t, "/api/conversation/me/conv 1/message/query", (*calls)[0].path)
}

func TestListMessagesKeepsGoodRecordsNextToMalformedOnes(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r recorded) {
		_, _ = w.Write([]byte(`{"items":[
			{"id":"m1","kind":2,"data":{"kind":2,"payload":{"question":"Q1","datasetIds":["d1"]},"version":"2"},"createdAt":"t1"},
			{"id":"m2","kind":3,"conversation":"x","data":{"kind":"3","payload":{"entries":[]},"version":1},"createdAt":"t2"},
			{"id":"m3","kind":"two","data":{"payload":{}},"createdAt":"t3"}
		]}`))
	})

	raws, err := c.ListMessages(context.Background(), "conv-1")
	require.NoError(t, err)
	require.Len(t, raws, 3)

	msgs := message.ParseAll(raws)
	assert.Equal(t, "Q1", msgs[0].Content)
	assert.Equal(t, []string{"d1"}, msgs[0].DatasetIds)

	// Odd metadata on a known kind does not matter.
	assert.Equal(t, message.TypeAI, msgs[1].Type)
	assert.Equal(t, "Analysis completed.", msgs[1].Content)

	// An undecodable kind falls back to an empty message at its position.
	assert.Equal(t, "m3", msgs[2].Id)
	assert.Equal(t, "t3", msgs[2].Timestamp)
	assert.Equal(t, "", msgs[2].Content)
}

func TestListCollectionsMarksSource(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r recorded) {
		_, _ = w.Write([]byte(`{"items":[{"id":"c1","name":"Climate","datasets":[{"id":"d1"},{"id":"d2"}]}]}`))
	})

	collections, err := c.ListCollections(context.Background())
	require.NoError(t, err)
	require.Len(t, collections, 1)
	assert.Equal(t, "api", string(collections[0].Source))
	assert.Equal(t, []string{"d1", "d2"}, collections[0].Members())
}

func TestEmptyListing(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r recorded) {
		_, _ = w.Write([]byte(`{}`))
	})

	conversations, err := c.ListConversations(context.Background(), 0, 20)
	require.NoError(t, err)
	assert.NotNil(t, conversations)
	assert.Empty(t, conversations)
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		unauthorized bool
		message      string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":"token expired"}`, true, "token expired"},
		{"error field", http.StatusBadRequest, `{"error":"bad dataset"}`, false, "bad dataset"},
		{"no error field", http.StatusInternalServerError, `{"message":"boom"}`, false, MsgCreateConversationFailed},
		{"non-json body", http.StatusBadGateway, `<html>`, false, MsgCreateConversationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestServer(t, func(w http.ResponseWriter, r recorded) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.CreateConversation(context.Background(), "x")
			require.Error(t, err)
			assert.Equal(t, tt.unauthorized, errors.Is(err, ErrUnauthorized))

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.message, ErrorMessage(err, "fallback"))
		})
	}
}

func TestErrorMessageFallback(t *testing.T) {
	assert.Equal(t, "fallback", ErrorMessage(errors.New("dial tcp: refused"), "fallback"))
}
