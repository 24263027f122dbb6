package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"dataset-explorer-be/internal/dto"
	"dataset-explorer-be/internal/entity"
	"dataset-explorer-be/internal/mapper"
	"dataset-explorer-be/internal/pkg/logger"
	"dataset-explorer-be/internal/pkg/serverutils"
	"dataset-explorer-be/internal/repository/contract"
	"dataset-explorer-be/pkg/dataset"

	"github.com/google/uuid"
)

// CollectionSource lists the system-provided collections; *explorer.Client satisfies it.
type CollectionSource interface {
	ListCollections(ctx context.Context) ([]dataset.Collection, error)
}

// CollectionListener is told about a user's full collection list after it changes.
type CollectionListener interface {
	CollectionsChanged(ctx context.Context, userId string, collections []dataset.Collection)
}

type ICollectionService interface {
	GetAll(ctx context.Context, userId string) (*dto.CollectionListResponse, error)
	// Known returns API and custom collections in the shape the chat view matches against.
	Known(ctx context.Context, userId string) ([]dataset.Collection, error)
	Create(ctx context.Context, userId string, req *dto.CreateCollectionRequest) (*dto.CustomCollectionResponse, error)
	Update(ctx context.Context, userId string, req *dto.UpdateCollectionRequest) (*dto.CustomCollectionResponse, error)
	Delete(ctx context.Context, userId string, id uuid.UUID) error
	AddListener(l CollectionListener)
}

type collectionService struct {
	repo     contract.CollectionRepository
	source   CollectionSource
	mapper   *mapper.CollectionMapper
	logger   logger.ILogger
	mu       sync.RWMutex
	watchers []CollectionListener
}

func NewCollectionService(repo contract.CollectionRepository, source CollectionSource, log logger.ILogger) ICollectionService {
	return &collectionService{
		repo:   repo,
		source: source,
		mapper: mapper.NewCollectionMapper(),
		logger: log,
	}
}

func (s *collectionService) AddListener(l CollectionListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchers = append(s.watchers, l)
}

func (s *collectionService) GetAll(ctx context.Context, userId string) (*dto.CollectionListResponse, error) {
	api, err := s.source.ListCollections(ctx)
	if err != nil {
		return nil, err
	}
	custom, err := s.repo.FindAllByUser(ctx, userId)
	if err != nil {
		return nil, fmt.Errorf("list custom collections: %w", err)
	}

	res := &dto.CollectionListResponse{
		Api:    api,
		Custom: make([]*dto.CustomCollectionResponse, 0, len(custom)),
	}
	if res.Api == nil {
		res.Api = []dataset.Collection{}
	}
	for _, c := range custom {
		res.Custom = append(res.Custom, toCollectionResponse(c))
	}
	return res, nil
}

func (s *collectionService) Known(ctx context.Context, userId string) ([]dataset.Collection, error) {
	api, err := s.source.ListCollections(ctx)
	if err != nil {
		return nil, err
	}
	custom, err := s.repo.FindAllByUser(ctx, userId)
	if err != nil {
		return nil, fmt.Errorf("list custom collections: %w", err)
	}

	known := make([]dataset.Collection, 0, len(api)+len(custom))
	known = append(known, api...)
	for _, c := range custom {
		known = append(known, s.mapper.ToDomain(c))
	}
	return known, nil
}

func (s *collectionService) Create(ctx context.Context, userId string, req *dto.CreateCollectionRequest) (*dto.CustomCollectionResponse, error) {
	c := &entity.Collection{
		Id:         uuid.New(),
		UserId:     userId,
		Name:       strings.TrimSpace(req.Name),
		DatasetIds: dataset.Dedupe(req.DatasetIds),
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	s.logger.Info("Collection", "Custom collection created", map[string]interface{}{"user_id": userId, "collection_id": c.Id, "datasets": len(c.DatasetIds)})
	s.notify(ctx, userId)
	return toCollectionResponse(c), nil
}

func (s *collectionService) Update(ctx context.Context, userId string, req *dto.UpdateCollectionRequest) (*dto.CustomCollectionResponse, error) {
	c, err := s.repo.FindByID(ctx, userId, req.Id)
	if err != nil {
		return nil, fmt.Errorf("find collection: %w", err)
	}
	if c == nil {
		return nil, serverutils.ErrNotFound
	}

	c.Name = strings.TrimSpace(req.Name)
	c.DatasetIds = dataset.Dedupe(req.DatasetIds)
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update collection: %w", err)
	}

	s.notify(ctx, userId)
	return toCollectionResponse(c), nil
}

func (s *collectionService) Delete(ctx context.Context, userId string, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, userId, id)
	if err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	if !deleted {
		return serverutils.ErrNotFound
	}

	s.notify(ctx, userId)
	return nil
}

// notify pushes the refreshed list to listeners. Failures only cost freshness, so they are logged.
func (s *collectionService) notify(ctx context.Context, userId string) {
	s.mu.RLock()
	watchers := append([]CollectionListener(nil), s.watchers...)
	s.mu.RUnlock()
	if len(watchers) == 0 {
		return
	}

	known, err := s.Known(ctx, userId)
	if err != nil {
		s.logger.Warn("Collection", "Failed to refresh known collections", map[string]interface{}{"user_id": userId, "error": err.Error()})
		return
	}
	for _, w := range watchers {
		w.CollectionsChanged(ctx, userId, known)
	}
}

func toCollectionResponse(c *entity.Collection) *dto.CustomCollectionResponse {
	return &dto.CustomCollectionResponse{
		Id:         c.Id,
		Name:       c.Name,
		DatasetIds: dataset.Clone(c.DatasetIds),
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}
