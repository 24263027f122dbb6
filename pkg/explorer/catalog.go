package explorer

import (
	"context"

	"dataset-explorer-be/pkg/dataset"
)

// ListCollections returns the system-provided collections.
func (c *Client) ListCollections(ctx context.Context) ([]dataset.Collection, error) {
	q := ListQuery{
		Project: &Projection{Fields: []string{"id", "name", "datasets.id", "datasets.code", "datasets.name"}},
		Order:   &Order{Items: []OrderItem{{Field: "name", Direction: "asc"}}},
	}
	collections, err := list[dataset.Collection](ctx, c, pathCollections, q, MsgFetchCollectionsFailed)
	if err != nil {
		return nil, err
	}
	for i := range collections {
		collections[i].Source = dataset.SourceAPI
		collections[i].DatasetIds = nil
	}
	return collections, nil
}

// QueryDatasets lists dataset-like items as returned upstream; shapes vary, see dataset.NormalizeDatasets.
func (c *Client) QueryDatasets(ctx context.Context, q ListQuery) ([]map[string]any, error) {
	return list[map[string]any](ctx, c, pathDatasets, q, MsgFetchDatasetsFailed)
}
