package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"dbquery-be/internal/dto"
	"dbquery-be/internal/entity"
	"dbquery-be/internal/repository/specification"
	"dbquery-be/internal/repository/unitofwork"
	"dbquery-be/pkg/events"
	pktNats "dbquery-be/pkg/nats"

	"github.com/google/uuid"
)

type IDocumentService interface {
	Ingest(ctx context.Context, req *dto.IngestDocumentRequest) (*dto.IngestDocumentResponse, error)
	Show(ctx context.Context, id uuid.UUID) (*dto.ShowDocumentResponse, error)
	List(ctx context.Context) ([]*dto.ShowDocumentResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type documentService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	eventPublisher   *pktNats.Publisher
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	eventPublisher *pktNats.Publisher,
) IDocumentService {
	return &documentService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
	}
}

// Ingest stores a grounding document and queues it for chunking and
// embedding. The embeddings appear asynchronously; answers ground against
// the document once the consumer commits them.
func (s *documentService) Ingest(ctx context.Context, req *dto.IngestDocumentRequest) (*dto.IngestDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	document := entity.GroundingDocument{
		Id:         uuid.New(),
		SourceName: req.SourceName,
		Content:    req.Content,
		Metadata:   req.Metadata,
		CreatedAt:  time.Now(),
	}

	if err := uow.GroundingDocumentRepository().Create(ctx, &document); err != nil {
		return nil, err
	}

	msgPayload := dto.PublishEmbedDocumentMessage{
		DocumentId: document.Id,
	}
	msgJson, err := json.Marshal(msgPayload)
	if err != nil {
		return nil, err
	}

	if err := s.publisherService.Publish(ctx, msgJson); err != nil {
		return nil, err
	}

	// Audit event is auxiliary; ingestion succeeds even if the bus is down.
	if s.eventPublisher != nil {
		evt := events.NewDocumentIngestedEvent(document.Id.String(), document.SourceName, 0)
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			fmt.Printf("[WARN] Failed to publish %s event: %v\n", events.TypeDocumentIngested, err)
		}
	}

	return &dto.IngestDocumentResponse{
		Id: document.Id,
	}, nil
}

func (s *documentService) Show(ctx context.Context, id uuid.UUID) (*dto.ShowDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	document, err := uow.GroundingDocumentRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if document == nil {
		return nil, fmt.Errorf("document not found")
	}

	chunkCount, err := uow.DocumentEmbeddingRepository().Count(ctx, specification.ByDocumentID{DocumentID: document.Id})
	if err != nil {
		return nil, err
	}

	return &dto.ShowDocumentResponse{
		Id:         document.Id,
		SourceName: document.SourceName,
		ChunkCount: chunkCount,
		CreatedAt:  document.CreatedAt,
		UpdatedAt:  document.UpdatedAt,
	}, nil
}

func (s *documentService) List(ctx context.Context) ([]*dto.ShowDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	documents, err := uow.GroundingDocumentRepository().FindAll(ctx, specification.OrderBy{Field: "created_at", Desc: true})
	if err != nil {
		return nil, err
	}

	res := make([]*dto.ShowDocumentResponse, 0, len(documents))
	for _, document := range documents {
		res = append(res, &dto.ShowDocumentResponse{
			Id:         document.Id,
			SourceName: document.SourceName,
			CreatedAt:  document.CreatedAt,
			UpdatedAt:  document.UpdatedAt,
		})
	}
	return res, nil
}

// Delete removes the document and its embedded chunks in one transaction
// so retrieval never sees chunks of a deleted document.
func (s *documentService) Delete(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	document, err := uow.GroundingDocumentRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if document == nil {
		return fmt.Errorf("document not found")
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.DocumentEmbeddingRepository().DeleteByDocumentId(ctx, document.Id); err != nil {
		return err
	}
	if err := uow.GroundingDocumentRepository().Delete(ctx, document.Id); err != nil {
		return err
	}

	return uow.Commit()
}
