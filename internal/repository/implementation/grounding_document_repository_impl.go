package implementation

import (
	"context"
	"errors"

	"dbquery-be/internal/entity"
	"dbquery-be/internal/mapper"
	"dbquery-be/internal/model"
	"dbquery-be/internal/repository/contract"
	"dbquery-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GroundingDocumentRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.GroundingDocumentMapper
}

func NewGroundingDocumentRepository(db *gorm.DB) contract.GroundingDocumentRepository {
	return &GroundingDocumentRepositoryImpl{
		db:     db,
		mapper: mapper.NewGroundingDocumentMapper(),
	}
}

func (r *GroundingDocumentRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *GroundingDocumentRepositoryImpl) Create(ctx context.Context, document *entity.GroundingDocument) error {
	m := r.mapper.ToModel(document)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*document = *r.mapper.ToEntity(m)
	return nil
}

func (r *GroundingDocumentRepositoryImpl) Update(ctx context.Context, document *entity.GroundingDocument) error {
	m := r.mapper.ToModel(document)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*document = *r.mapper.ToEntity(m)
	return nil
}

func (r *GroundingDocumentRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.GroundingDocument{}, id).Error
}

func (r *GroundingDocumentRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.GroundingDocument, error) {
	var m model.GroundingDocument
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *GroundingDocumentRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.GroundingDocument, error) {
	var models []*model.GroundingDocument
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *GroundingDocumentRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.GroundingDocument{}).Count(&count).Error
	return count, err
}
