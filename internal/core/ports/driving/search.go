package driving

import (
	"context"

	"github.com/ragsense/ragsense/internal/core/domain"
)

// SearchService runs keyword, vector and hybrid retrieval across collections.
// Results keep collection request order; each collection contributes up to
// topK hits in descending score order.
type SearchService interface {
	// Search validates the query, retrieves, applies filters and, when
	// requested, composes an answer from the top results
	Search(ctx context.Context, query domain.SearchQuery) (*domain.SearchOutcome, error)

	// KeywordSearch ranks by full-text relevance only
	KeywordSearch(ctx context.Context, text string, collections []string, topK int) ([]domain.RetrievedDocument, error)

	// VectorSearch ranks by cosine similarity to the embedded query
	VectorSearch(ctx context.Context, text string, collections []string, topK int) ([]domain.RetrievedDocument, error)

	// HybridSearch ranks by weighted text relevance plus cosine similarity
	HybridSearch(ctx context.Context, text string, collections []string, topK int, weights domain.FusionWeights) ([]domain.RetrievedDocument, error)
}
