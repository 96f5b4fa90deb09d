package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByDocumentID struct {
	DocumentID uuid.UUID
}

func (s ByDocumentID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("document_id = ?", s.DocumentID)
}

type BySourceName struct {
	SourceName string
}

func (s BySourceName) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("source_name = ?", s.SourceName)
}

type ByChunkOrder struct{}

func (s ByChunkOrder) Apply(db *gorm.DB) *gorm.DB {
	return db.Order("chunk_index ASC")
}
