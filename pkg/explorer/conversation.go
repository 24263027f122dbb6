package explorer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"dataset-explorer-be/pkg/message"
)

// CreateConversation persists an empty conversation.
func (c *Client) CreateConversation(ctx context.Context, name string) (*PersistedConversation, error) {
	var out PersistedConversation
	if err := c.do(ctx, pathPersist, persistRequest{Name: name}, &out, MsgCreateConversationFailed); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateConversationWithDatasets persists a conversation pre-bound to datasetIds.
func (c *Client) CreateConversationWithDatasets(ctx context.Context, name string, datasetIds []string) (*PersistedConversation, error) {
	req := persistRequest{
		Name:                 name,
		ConversationDatasets: make([]ConversationDataset, 0, len(datasetIds)),
	}
	for _, id := range datasetIds {
		req.ConversationDatasets = append(req.ConversationDatasets, ConversationDataset{DatasetId: id})
	}

	var out PersistedConversation
	if err := c.do(ctx, pathPersistDeep, req, &out, MsgCreateConversationFailed); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListConversations pages through the caller's conversations, newest first.
func (c *Client) ListConversations(ctx context.Context, offset, size int) ([]Conversation, error) {
	q := ListQuery{
		Project:  &Projection{Fields: []string{"id", "name", "createdAt", "eTag"}},
		Page:     &Page{Offset: offset, Size: size},
		Order:    &Order{Items: []OrderItem{{Field: "createdAt", Direction: "desc"}}},
		Metadata: &Metadata{CountAll: false},
	}
	return list[Conversation](ctx, c, pathConversations, q, MsgFetchConversationsFailed)
}

// ListMessages returns the stored messages of a conversation in chronological order.
func (c *Client) ListMessages(ctx context.Context, conversationId string) ([]message.RawConversationMessage, error) {
	q := ListQuery{
		Project: &Projection{Fields: []string{"id", "conversation", "kind", "data", "createdAt"}},
		Order:   &Order{Items: []OrderItem{{Field: "createdAt", Direction: "asc"}}},
	}
	path := fmt.Sprintf(pathMessagesFormat, url.PathEscape(conversationId))
	items, err := list[json.RawMessage](ctx, c, path, q, MsgFetchMessagesFailed)
	if err != nil {
		return nil, err
	}
	return message.DecodeRawList(items), nil
}
