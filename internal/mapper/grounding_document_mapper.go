package mapper

import (
	"encoding/json"
	"time"

	"dbquery-be/internal/entity"
	"dbquery-be/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type GroundingDocumentMapper struct{}

func NewGroundingDocumentMapper() *GroundingDocumentMapper {
	return &GroundingDocumentMapper{}
}

func (m *GroundingDocumentMapper) ToEntity(e *model.GroundingDocument) *entity.GroundingDocument {
	if e == nil {
		return nil
	}

	var deletedAt *time.Time
	if e.DeletedAt.Valid {
		t := e.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !e.UpdatedAt.IsZero() {
		t := e.UpdatedAt
		updatedAt = &t
	}

	var metadata map[string]interface{}
	if len(e.Metadata) > 0 {
		_ = json.Unmarshal(e.Metadata, &metadata)
	}

	return &entity.GroundingDocument{
		Id:         e.Id,
		SourceName: e.SourceName,
		Content:    e.Content,
		Metadata:   metadata,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  updatedAt,
		DeletedAt:  deletedAt,
		IsDeleted:  e.DeletedAt.Valid,
	}
}

func (m *GroundingDocumentMapper) ToModel(e *entity.GroundingDocument) *model.GroundingDocument {
	if e == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if e.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *e.DeletedAt, Valid: true}
	} else if e.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if e.UpdatedAt != nil {
		updatedAt = *e.UpdatedAt
	}

	var metadata datatypes.JSON
	if e.Metadata != nil {
		if raw, err := json.Marshal(e.Metadata); err == nil {
			metadata = raw
		}
	}

	return &model.GroundingDocument{
		Id:         e.Id,
		SourceName: e.SourceName,
		Content:    e.Content,
		Metadata:   metadata,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  updatedAt,
		DeletedAt:  deletedAt,
	}
}

func (m *GroundingDocumentMapper) ToEntities(documents []*model.GroundingDocument) []*entity.GroundingDocument {
	entities := make([]*entity.GroundingDocument, len(documents))
	for i, e := range documents {
		entities[i] = m.ToEntity(e)
	}
	return entities
}
