package driven

import (
	"github.com/ragsense/ragsense/internal/core/domain"
)

// AIServiceFactory builds the embedding model and language-model gateway
// from settings. Both methods return nil, nil when the settings leave the
// service unconfigured, so the engine runs keyword-only.
type AIServiceFactory interface {
	CreateEmbeddingService(settings *domain.EmbeddingSettings) (EmbeddingService, error)
	CreateLLMService(settings *domain.LLMSettings) (LLMService, error)
}
