package explorer

import "context"

// SearchCrossDataset asks which datasets could answer query, recording the exchange in conversationId.
func (c *Client) SearchCrossDataset(ctx context.Context, conversationId, query string) (*SearchResult, error) {
	req := crossDatasetRequest{
		ConversationOptions: ConversationOptions{ConversationId: conversationId},
		Project:             Projection{Fields: crossDatasetFields},
		Query:               query,
		ResultCount:         c.resultCount,
	}

	var out SearchResult
	if err := c.do(ctx, pathCrossDataset, req, &out, MsgSearchFailed); err != nil {
		return nil, err
	}
	return &out, nil
}

// QueryInDataExplore runs query against datasetIds inside an existing conversation.
func (c *Client) QueryInDataExplore(ctx context.Context, conversationId, query string, datasetIds []string) (*ExploreResult, error) {
	req := inDataExploreRequest{
		ConversationOptions: ConversationOptions{ConversationId: conversationId},
		Project:             Projection{Fields: inDataExploreFields},
		Query:               query,
		ResultCount:         c.resultCount,
		DatasetIds:          datasetIds,
	}

	var out ExploreResult
	if err := c.do(ctx, pathInDataExplore, req, &out, MsgQueryFailed); err != nil {
		return nil, err
	}
	return &out, nil
}
