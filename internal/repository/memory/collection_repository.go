package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"dataset-explorer-be/internal/entity"
	"dataset-explorer-be/internal/repository/contract"
	"dataset-explorer-be/pkg/dataset"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// CollectionRepository keeps custom collections in process memory, used when no database is configured.
type CollectionRepository struct {
	mu    sync.Mutex
	cache *cache.Cache
}

func NewCollectionRepository() contract.CollectionRepository {
	return &CollectionRepository{cache: cache.New(cache.NoExpiration, 0)}
}

func (r *CollectionRepository) key(userId string, id uuid.UUID) string {
	return userId + ":" + id.String()
}

func (r *CollectionRepository) Create(_ context.Context, collection *entity.Collection) error {
	if collection.Id == uuid.Nil {
		collection.Id = uuid.New()
	}
	collection.CreatedAt = time.Now()
	collection.DatasetIds = dataset.Dedupe(collection.DatasetIds)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Set(r.key(collection.UserId, collection.Id), clone(collection), cache.NoExpiration)
	return nil
}

func (r *CollectionRepository) Update(_ context.Context, collection *entity.Collection) error {
	now := time.Now()
	collection.UpdatedAt = &now
	collection.DatasetIds = dataset.Dedupe(collection.DatasetIds)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Set(r.key(collection.UserId, collection.Id), clone(collection), cache.NoExpiration)
	return nil
}

func (r *CollectionRepository) Delete(_ context.Context, userId string, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := r.key(userId, id)
	if _, found := r.cache.Get(k); !found {
		return false, nil
	}
	r.cache.Delete(k)
	return true, nil
}

func (r *CollectionRepository) FindByID(_ context.Context, userId string, id uuid.UUID) (*entity.Collection, error) {
	if x, found := r.cache.Get(r.key(userId, id)); found {
		return clone(x.(*entity.Collection)), nil
	}
	return nil, nil
}

func (r *CollectionRepository) FindAllByUser(_ context.Context, userId string) ([]*entity.Collection, error) {
	out := []*entity.Collection{}
	for _, item := range r.cache.Items() {
		c := item.Object.(*entity.Collection)
		if c.UserId == userId {
			out = append(out, clone(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func clone(c *entity.Collection) *entity.Collection {
	cp := *c
	cp.DatasetIds = dataset.Clone(c.DatasetIds)
	return &cp
}
