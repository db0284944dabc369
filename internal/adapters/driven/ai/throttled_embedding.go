package ai

import (
	"context"
	"math"

	"golang.org/x/time/rate"

	"github.com/ragsense/ragsense/internal/core/ports/driven"
)

// Ensure ThrottledEmbedding implements EmbeddingService
var _ driven.EmbeddingService = (*ThrottledEmbedding)(nil)

// ThrottledEmbedding limits the rate of calls to an embedding server.
// One Embed call counts as one request regardless of batch size.
type ThrottledEmbedding struct {
	driven.EmbeddingService
	limiter *rate.Limiter
}

// NewThrottledEmbedding allows rps calls per second with a burst of one
// second's worth of calls
func NewThrottledEmbedding(svc driven.EmbeddingService, rps float64) *ThrottledEmbedding {
	burst := max(1, int(math.Ceil(rps)))
	return &ThrottledEmbedding{
		EmbeddingService: svc,
		limiter:          rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (t *ThrottledEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return t.EmbeddingService.Embed(ctx, texts)
}

func (t *ThrottledEmbedding) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return t.EmbeddingService.EmbedQuery(ctx, query)
}
