package implementation

import (
	"context"
	"errors"

	"dataset-explorer-be/internal/entity"
	"dataset-explorer-be/internal/mapper"
	"dataset-explorer-be/internal/model"
	"dataset-explorer-be/internal/repository/contract"
	"dataset-explorer-be/internal/repository/scope"
	"dataset-explorer-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CollectionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CollectionMapper
}

func NewCollectionRepository(db *gorm.DB) contract.CollectionRepository {
	return &CollectionRepositoryImpl{
		db:     db,
		mapper: mapper.NewCollectionMapper(),
	}
}

func (r *CollectionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *CollectionRepositoryImpl) Create(ctx context.Context, collection *entity.Collection) error {
	m := r.mapper.ToModel(collection)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*collection = *r.mapper.ToEntity(m)
	return nil
}

func (r *CollectionRepositoryImpl) Update(ctx context.Context, collection *entity.Collection) error {
	m := r.mapper.ToModel(collection)
	// Save writes every column, including an emptied dataset list.
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*collection = *r.mapper.ToEntity(m)
	return nil
}

func (r *CollectionRepositoryImpl) Delete(ctx context.Context, userId string, id uuid.UUID) (bool, error) {
	query := r.applySpecifications(r.db.WithContext(ctx), specification.ByUserID{UserID: userId}, specification.ByID{ID: id})
	res := query.Delete(&model.Collection{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *CollectionRepositoryImpl) FindByID(ctx context.Context, userId string, id uuid.UUID) (*entity.Collection, error) {
	var m model.Collection
	query := r.applySpecifications(r.db.WithContext(ctx), specification.ByUserID{UserID: userId}, specification.ByID{ID: id})
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *CollectionRepositoryImpl) FindAllByUser(ctx context.Context, userId string) ([]*entity.Collection, error) {
	var models []*model.Collection
	query := r.applySpecifications(r.db.WithContext(ctx).Scopes(scope.OrderByCreatedAsc), specification.ByUserID{UserID: userId})
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}
