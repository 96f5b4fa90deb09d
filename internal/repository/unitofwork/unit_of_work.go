package unitofwork

import (
	"context"

	"dbquery-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	GroundingDocumentRepository() contract.GroundingDocumentRepository
	DocumentEmbeddingRepository() contract.DocumentEmbeddingRepository
}
