package ai

import (
	"fmt"
	"time"

	"github.com/ragsense/ragsense/internal/core/domain"
	"github.com/ragsense/ragsense/internal/core/ports/driven"
)

// Ensure Factory implements AIServiceFactory
var _ driven.AIServiceFactory = (*Factory)(nil)

// Factory creates AI services based on configuration
type Factory struct {
	cache    driven.EmbeddingCache
	cacheTTL time.Duration
}

// FactoryOption configures a Factory
type FactoryOption func(*Factory)

// WithQueryCache memoises query embeddings in cache for ttl
func WithQueryCache(cache driven.EmbeddingCache, ttl time.Duration) FactoryOption {
	return func(f *Factory) {
		f.cache = cache
		f.cacheTTL = ttl
	}
}

// NewFactory creates a new AI service factory
func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateEmbeddingService creates an embedding service from settings.
// Returns nil, nil when embedding is not configured.
func (f *Factory) CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	var (
		svc driven.EmbeddingService
		err error
	)
	switch settings.Provider {
	case domain.AIProviderOpenAI:
		svc, err = NewOpenAIEmbedding(settings.APIKey, settings.Model, settings.BaseURL)
	case domain.AIProviderLocal:
		svc, err = NewLocalEmbedding(settings.BaseURL, settings.Model, settings.APIKey)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidProvider, settings.Provider)
	}
	if err != nil {
		return nil, err
	}

	if settings.RequestsPerSecond > 0 {
		svc = NewThrottledEmbedding(svc, settings.RequestsPerSecond)
	}
	if f.cache != nil {
		svc = NewCachedEmbedding(svc, f.cache, f.cacheTTL)
	}
	return svc, nil
}

// CreateLLMService creates an LLM service from settings.
// Returns nil, nil when the language model is not configured.
func (f *Factory) CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOpenAI, domain.AIProviderLocal:
		return NewChatLLM(settings.APIKey, settings.Model, settings.BaseURL, settings.Temperature)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidProvider, settings.Provider)
	}
}
