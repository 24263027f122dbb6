package service

import (
	"context"

	"dataset-explorer-be/internal/dto"
	"dataset-explorer-be/pkg/dataset"
	"dataset-explorer-be/pkg/explorer"
)

// DatasetSource runs listing queries upstream; *explorer.Client satisfies it.
type DatasetSource interface {
	QueryDatasets(ctx context.Context, q explorer.ListQuery) ([]map[string]any, error)
}

type IDatasetService interface {
	Search(ctx context.Context, req *dto.DatasetSearchRequest) ([]map[string]any, error)
}

const defaultDatasetPageSize = 20

var defaultDatasetFields = []string{"id", "code", "name", "description", "dataset.id", "dataset.code", "dataset.name"}

type datasetService struct {
	source DatasetSource
}

func NewDatasetService(source DatasetSource) IDatasetService {
	return &datasetService{source: source}
}

// Search proxies the listing and guarantees every item a top-level string id.
func (s *datasetService) Search(ctx context.Context, req *dto.DatasetSearchRequest) ([]map[string]any, error) {
	size := req.Size
	if size == 0 {
		size = defaultDatasetPageSize
	}
	fields := req.Fields
	if len(fields) == 0 {
		fields = defaultDatasetFields
	}

	items, err := s.source.QueryDatasets(ctx, explorer.ListQuery{
		Project:  &explorer.Projection{Fields: fields},
		Page:     &explorer.Page{Offset: req.Offset, Size: size},
		Metadata: &explorer.Metadata{CountAll: false},
		Filter:   req.Filter,
	})
	if err != nil {
		return nil, err
	}
	return dataset.NormalizeDatasets(items), nil
}
