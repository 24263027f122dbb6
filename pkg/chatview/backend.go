package chatview

import (
	"context"

	"dataset-explorer-be/pkg/explorer"
	"dataset-explorer-be/pkg/message"
)

// Backend is the slice of the remote API a view talks to. *explorer.Client implements it.
type Backend interface {
	CreateConversation(ctx context.Context, name string) (*explorer.PersistedConversation, error)
	CreateConversationWithDatasets(ctx context.Context, name string, datasetIds []string) (*explorer.PersistedConversation, error)
	SearchCrossDataset(ctx context.Context, conversationId, query string) (*explorer.SearchResult, error)
	QueryInDataExplore(ctx context.Context, conversationId, query string, datasetIds []string) (*explorer.ExploreResult, error)
	ListMessages(ctx context.Context, conversationId string) ([]message.RawConversationMessage, error)
}

var _ Backend = (*explorer.Client)(nil)
