package service

import (
	"context"
	"fmt"

	"dbquery-be/internal/dto"
	"dbquery-be/pkg/copilot/catalog"
	"dbquery-be/pkg/events"
	pktNats "dbquery-be/pkg/nats"
)

type ICatalogService interface {
	Show(ctx context.Context) (*dto.ShowCatalogResponse, error)
	Refresh(ctx context.Context) (*dto.RefreshCatalogResponse, error)
}

// CatalogRefresher is implemented by catalogs that can reload from their
// source of truth. Static catalogs are always current and don't implement it.
type CatalogRefresher interface {
	Refresh(ctx context.Context) error
}

type catalogService struct {
	catalog        catalog.Catalog
	refresher      CatalogRefresher
	eventPublisher *pktNats.Publisher
}

func NewCatalogService(
	cat catalog.Catalog,
	refresher CatalogRefresher,
	eventPublisher *pktNats.Publisher,
) ICatalogService {
	return &catalogService{
		catalog:        cat,
		refresher:      refresher,
		eventPublisher: eventPublisher,
	}
}

func (s *catalogService) Show(ctx context.Context) (*dto.ShowCatalogResponse, error) {
	snapshot := s.catalog.Snapshot()
	return &dto.ShowCatalogResponse{
		Version:  snapshot.Version,
		Tables:   len(snapshot.Tables()),
		Entities: snapshot.Entities,
	}, nil
}

func (s *catalogService) Refresh(ctx context.Context) (*dto.RefreshCatalogResponse, error) {
	if s.refresher != nil {
		if err := s.refresher.Refresh(ctx); err != nil {
			return nil, err
		}
	}

	snapshot := s.catalog.Snapshot()

	if s.refresher != nil && s.eventPublisher != nil {
		evt := events.NewSchemaRefreshedEvent(snapshot.Version, len(snapshot.Entities))
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			fmt.Printf("[WARN] Failed to publish %s event: %v\n", events.TypeSchemaRefreshed, err)
		}
	}

	return &dto.RefreshCatalogResponse{
		Version:  snapshot.Version,
		Entities: len(snapshot.Entities),
	}, nil
}
