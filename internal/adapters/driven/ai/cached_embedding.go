package ai

import (
	"context"
	"log/slog"
	"time"

	"github.com/ragsense/ragsense/internal/core/ports/driven"
)

// Ensure CachedEmbedding implements EmbeddingService
var _ driven.EmbeddingService = (*CachedEmbedding)(nil)

// DefaultQueryCacheTTL is how long query vectors are reused
const DefaultQueryCacheTTL = 24 * time.Hour

// CachedEmbedding memoises query embeddings.
// Document embeddings always reach the wrapped service so that a reindex
// picks up model changes.
type CachedEmbedding struct {
	driven.EmbeddingService
	cache  driven.EmbeddingCache
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedEmbedding wraps svc with a query vector cache
func NewCachedEmbedding(svc driven.EmbeddingService, cache driven.EmbeddingCache, ttl time.Duration) *CachedEmbedding {
	if ttl <= 0 {
		ttl = DefaultQueryCacheTTL
	}
	return &CachedEmbedding{
		EmbeddingService: svc,
		cache:            cache,
		ttl:              ttl,
		logger:           slog.Default().With("component", "embedding-cache"),
	}
}

// EmbedQuery returns a cached vector when present.
// Cache failures fall through to the wrapped service.
func (c *CachedEmbedding) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	model := c.Model()

	vec, ok, err := c.cache.Get(ctx, model, query)
	if err != nil {
		c.logger.Warn("embedding cache read failed", "error", err)
	} else if ok {
		return vec, nil
	}

	vec, err = c.EmbeddingService.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, model, query, vec, c.ttl); err != nil {
		c.logger.Warn("embedding cache write failed", "error", err)
	}
	return vec, nil
}
