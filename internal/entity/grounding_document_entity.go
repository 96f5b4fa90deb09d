package entity

import (
	"time"

	"github.com/google/uuid"
)

// GroundingDocument is a reference document in the grounding corpus
// (glossaries, SOPs, handbooks) that answers get grounded against.
type GroundingDocument struct {
	Id         uuid.UUID
	SourceName string
	Content    string
	Metadata   map[string]interface{}
	CreatedAt  time.Time
	UpdatedAt  *time.Time
	DeletedAt  *time.Time
	IsDeleted  bool
}
