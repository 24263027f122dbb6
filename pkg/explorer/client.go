// Package explorer is the HTTP client for the remote dataset, conversation and search API.
package explorer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	pathPersist        = "/api/conversation/me/persist?f=id&f=etag"
	pathPersistDeep    = "/api/conversation/me/persist/deep?f=id&f=etag"
	pathCrossDataset   = "/api/search/cross-dataset"
	pathInDataExplore  = "/api/search/in-data-explore"
	pathConversations  = "/api/conversation/me/query"
	pathMessagesFormat = "/api/conversation/me/%s/message/query"
	pathCollections    = "/api/collection/query"
	pathDatasets       = "/api/dataset/query"

	DefaultResultCount = 10
)

// Fallback texts shown when a failed response carries no error message.
const (
	MsgCreateConversationFailed = "Failed to create conversation"
	MsgSearchFailed             = "Failed to search datasets"
	MsgQueryFailed              = "Failed to send query"
	MsgFetchMessagesFailed      = "Failed to fetch messages"
	MsgFetchConversationsFailed = "Failed to fetch conversations"
	MsgFetchCollectionsFailed   = "Failed to fetch collections"
	MsgFetchDatasetsFailed      = "Failed to fetch datasets"
)

var (
	crossDatasetFields  = []string{"dataset.id", "dataset.code", "dataset.name"}
	inDataExploreFields = []string{"question", "data", "status", "entries"}
)

type tokenKey struct{}

// WithToken attaches the caller's bearer token; every request made with ctx forwards it.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func tokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

type Client struct {
	baseURL     string
	httpClient  *http.Client
	resultCount int
}

func New(baseURL string, timeout time.Duration, resultCount int) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if resultCount <= 0 {
		resultCount = DefaultResultCount
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{Timeout: timeout},
		resultCount: resultCount,
	}
}

// do POSTs body as JSON and decodes a 2xx answer into out. Non-2xx answers become *APIError
// whose message comes from the body's "error" field, or fallback.
func (c *Client) do(ctx context.Context, path string, body, out any, fallback string) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token := tokenFrom(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: errorText(respBody, fallback)}
	}

	if out != nil && len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

func errorText(body []byte, fallback string) string {
	var parsed struct {
		Error any `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fallback
	}
	if msg, ok := parsed.Error.(string); ok && msg != "" {
		return msg
	}
	return fallback
}

func list[T any](ctx context.Context, c *Client, path string, q ListQuery, fallback string) ([]T, error) {
	var resp listResponse[T]
	if err := c.do(ctx, path, q, &resp, fallback); err != nil {
		return nil, err
	}
	if resp.Items == nil {
		return []T{}, nil
	}
	return resp.Items, nil
}
