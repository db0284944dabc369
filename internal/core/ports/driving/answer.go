package driving

import (
	"context"

	"github.com/ragsense/ragsense/internal/core/domain"
)

// AnswerService composes natural-language answers with the language model
type AnswerService interface {
	// AnswerFromResults answers a query from the first n retrieved documents
	AnswerFromResults(ctx context.Context, query, promptExtension string, results []domain.RetrievedDocument, n int) (string, error)

	// AnswerFromDocument answers a question about, or summarises, one stored document
	AnswerFromDocument(ctx context.Context, collection, id, question string) (string, error)

	// Generate passes a raw prompt to the language model
	Generate(ctx context.Context, prompt string) (string, error)
}
