package driven

import (
	"context"
)

// EmbeddingService turns text into fixed-length vectors. The same model must
// embed documents at reindex time and queries at search time, otherwise
// cosine scores are meaningless.
type EmbeddingService interface {
	// Embed encodes one page of canonical document texts in a single call.
	// The result has one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery encodes the text of a vector or hybrid search
	EmbedQuery(ctx context.Context, query string) ([]float32, error)

	// Dimensions is the vector length of the model, or 0 when unknown
	Dimensions() int

	// Model names the model; reindex runs record it
	Model() string

	HealthCheck(ctx context.Context) error
	Close() error
}
