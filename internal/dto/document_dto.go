package dto

import (
	"time"

	"github.com/google/uuid"
)

type IngestDocumentRequest struct {
	SourceName string                 `json:"source_name" validate:"required"`
	Content    string                 `json:"content" validate:"required"`
	Metadata   map[string]interface{} `json:"metadata"`
}

type IngestDocumentResponse struct {
	Id uuid.UUID `json:"id"`
}

type ShowDocumentResponse struct {
	Id         uuid.UUID  `json:"id"`
	SourceName string     `json:"source_name"`
	ChunkCount int64      `json:"chunk_count"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"`
}

// PublishEmbedDocumentMessage is the queue payload that triggers chunking
// and embedding for one grounding document.
type PublishEmbedDocumentMessage struct {
	DocumentId uuid.UUID `json:"document_id"`
}
