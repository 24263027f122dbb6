package contract

import (
	"context"

	"dataset-explorer-be/internal/entity"

	"github.com/google/uuid"
)

// CollectionRepository stores custom collections. Every lookup is scoped to the owner.
type CollectionRepository interface {
	Create(ctx context.Context, collection *entity.Collection) error
	Update(ctx context.Context, collection *entity.Collection) error
	Delete(ctx context.Context, userId string, id uuid.UUID) (bool, error)
	FindByID(ctx context.Context, userId string, id uuid.UUID) (*entity.Collection, error)
	FindAllByUser(ctx context.Context, userId string) ([]*entity.Collection, error)
}
