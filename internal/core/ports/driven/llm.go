package driven

import "context"

// LLMService is the chat model behind doc_query and answer composition
type LLMService interface {
	// Complete sends a system message and a user prompt and returns the
	// first choice's text
	Complete(ctx context.Context, system, prompt string) (string, error)

	Model() string
	Ping(ctx context.Context) error
	Close() error
}
