package dto

import (
	"time"

	"dataset-explorer-be/pkg/dataset"

	"github.com/google/uuid"
)

type CreateCollectionRequest struct {
	Name       string   `json:"name" validate:"required,max=255"`
	DatasetIds []string `json:"dataset_ids" validate:"dive,required"`
}

type UpdateCollectionRequest struct {
	Id         uuid.UUID
	Name       string   `json:"name" validate:"required,max=255"`
	DatasetIds []string `json:"dataset_ids" validate:"dive,required"`
}

type CustomCollectionResponse struct {
	Id         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	DatasetIds []string   `json:"dataset_ids"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"`
}

// CollectionListResponse keeps both shapes: system collections list datasets, custom ones list ids.
type CollectionListResponse struct {
	Api    []dataset.Collection        `json:"api"`
	Custom []*CustomCollectionResponse `json:"custom"`
}
