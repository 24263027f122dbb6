package mapper

import (
	"encoding/json"
	"time"

	"dataset-explorer-be/internal/entity"
	"dataset-explorer-be/internal/model"
	"dataset-explorer-be/pkg/dataset"

	"gorm.io/datatypes"
)

type CollectionMapper struct{}

func NewCollectionMapper() *CollectionMapper {
	return &CollectionMapper{}
}

func (m *CollectionMapper) ToEntity(c *model.Collection) *entity.Collection {
	if c == nil {
		return nil
	}

	ids := []string{}
	if len(c.DatasetIds) > 0 {
		// A corrupted column reads as an empty collection.
		_ = json.Unmarshal(c.DatasetIds, &ids)
	}

	var updatedAt *time.Time
	if !c.UpdatedAt.IsZero() {
		t := c.UpdatedAt
		updatedAt = &t
	}

	return &entity.Collection{
		Id:         c.Id,
		UserId:     c.UserId,
		Name:       c.Name,
		DatasetIds: dataset.Dedupe(ids),
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  updatedAt,
	}
}

func (m *CollectionMapper) ToModel(c *entity.Collection) *model.Collection {
	if c == nil {
		return nil
	}

	raw, _ := json.Marshal(dataset.Dedupe(c.DatasetIds))

	var updatedAt time.Time
	if c.UpdatedAt != nil {
		updatedAt = *c.UpdatedAt
	}

	return &model.Collection{
		Id:         c.Id,
		UserId:     c.UserId,
		Name:       c.Name,
		DatasetIds: datatypes.JSON(raw),
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  updatedAt,
	}
}

func (m *CollectionMapper) ToEntities(collections []*model.Collection) []*entity.Collection {
	entities := make([]*entity.Collection, len(collections))
	for i, c := range collections {
		entities[i] = m.ToEntity(c)
	}
	return entities
}

// ToDomain converts a stored collection into the shape the chat view matches against.
func (m *CollectionMapper) ToDomain(c *entity.Collection) dataset.Collection {
	return dataset.Collection{
		Id:         c.Id.String(),
		Name:       c.Name,
		Source:     dataset.SourceCustom,
		DatasetIds: dataset.Clone(c.DatasetIds),
	}
}
