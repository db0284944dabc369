package driven

import (
	"context"
	"time"
)

// EmbeddingCache stores query vectors keyed by model and text (Redis)
type EmbeddingCache interface {
	// Get returns the cached vector, or ok=false on a miss
	Get(ctx context.Context, model, text string) (vector []float32, ok bool, err error)

	// Set stores a vector for ttl
	Set(ctx context.Context, model, text string, vector []float32, ttl time.Duration) error
}
