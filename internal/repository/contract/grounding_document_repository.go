package contract

import (
	"context"

	"dbquery-be/internal/entity"
	"dbquery-be/internal/repository/specification"

	"github.com/google/uuid"
)

type GroundingDocumentRepository interface {
	Create(ctx context.Context, document *entity.GroundingDocument) error
	Update(ctx context.Context, document *entity.GroundingDocument) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.GroundingDocument, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.GroundingDocument, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
