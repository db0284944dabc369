package services

import (
	"context"
	"fmt"

	"github.com/ragsense/ragsense/internal/core/domain"
	"github.com/ragsense/ragsense/internal/core/ports/driven"
	"github.com/ragsense/ragsense/internal/core/ports/driving"
)

// Ensure catalogService implements CatalogService
var _ driving.CatalogService = (*catalogService)(nil)

// catalogService implements the CatalogService interface
type catalogService struct {
	store   driven.DocumentStore
	sources []domain.SourceInfo
}

// NewCatalogService creates a new CatalogService over a fixed catalog
func NewCatalogService(store driven.DocumentStore, sources []domain.SourceInfo) driving.CatalogService {
	return &catalogService{
		store:   store,
		sources: append([]domain.SourceInfo(nil), sources...),
	}
}

// Sources lists the catalog entries
func (s *catalogService) Sources(_ context.Context) []domain.SourceInfo {
	return append([]domain.SourceInfo(nil), s.sources...)
}

// EmbeddingCollections lists available collections that carry embeddings
func (s *catalogService) EmbeddingCollections(_ context.Context) []string {
	var names []string
	for _, src := range s.sources {
		if src.Available && src.Embeddings {
			names = append(names, src.Name)
		}
	}
	return names
}

// Health reports whether the document store is reachable
func (s *catalogService) Health(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}
