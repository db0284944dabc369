package driving

import (
	"context"

	"github.com/ragsense/ragsense/internal/core/domain"
)

// CatalogService exposes the configured collections and store health
type CatalogService interface {
	// Sources lists the catalog entries
	Sources(ctx context.Context) []domain.SourceInfo

	// EmbeddingCollections lists the collections that carry embeddings
	EmbeddingCollections(ctx context.Context) []string

	// Health reports whether the document store is reachable
	Health(ctx context.Context) error
}
