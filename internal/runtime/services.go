package runtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/ragsense/ragsense/internal/core/domain"
	"github.com/ragsense/ragsense/internal/core/ports/driven"
)

// Services holds the optional AI services shared by search, answer and
// reindex. A missing service is reported through the Require methods as
// domain.ErrServiceUnavailable; nothing silently falls back to another mode.
type Services struct {
	queueBackend string

	mu        sync.RWMutex
	embedding driven.EmbeddingService
	llm       driven.LLMService
}

// NewServices creates an empty registry. queueBackend is reported in
// Capabilities only.
func NewServices(queueBackend string) *Services {
	return &Services{queueBackend: queueBackend}
}

// EmbeddingService returns the embedding service, or nil
func (s *Services) EmbeddingService() driven.EmbeddingService {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.embedding
}

// LLMService returns the language model, or nil
func (s *Services) LLMService() driven.LLMService {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.llm
}

func (s *Services) RequireEmbedding() (driven.EmbeddingService, error) {
	if svc := s.EmbeddingService(); svc != nil {
		return svc, nil
	}
	return nil, fmt.Errorf("%w: no embedding service configured", domain.ErrServiceUnavailable)
}

func (s *Services) RequireLLM() (driven.LLMService, error) {
	if svc := s.LLMService(); svc != nil {
		return svc, nil
	}
	return nil, fmt.Errorf("%w: no language model configured", domain.ErrServiceUnavailable)
}

// EmbeddingModel names the model stamped on reindex runs, or ""
func (s *Services) EmbeddingModel() string {
	if svc := s.EmbeddingService(); svc != nil {
		return svc.Model()
	}
	return ""
}

// Capabilities reports the search modes and operations currently available
func (s *Services) Capabilities() domain.Capabilities {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var embeddingModel, llmModel string
	var dims int
	if s.embedding != nil {
		embeddingModel, dims = s.embedding.Model(), s.embedding.Dimensions()
	}
	if s.llm != nil {
		llmModel = s.llm.Model()
	}
	return domain.NewCapabilities(s.queueBackend, embeddingModel, dims, llmModel)
}

// SetEmbeddingService swaps the embedding service and closes the previous one
func (s *Services) SetEmbeddingService(svc driven.EmbeddingService) {
	s.mu.Lock()
	old := s.embedding
	s.embedding = svc
	s.mu.Unlock()

	if old != nil && old != svc {
		_ = old.Close()
	}
}

// SetLLMService swaps the language model and closes the previous one
func (s *Services) SetLLMService(svc driven.LLMService) {
	s.mu.Lock()
	old := s.llm
	s.llm = svc
	s.mu.Unlock()

	if old != nil && old != svc {
		_ = old.Close()
	}
}

// ValidateAndSetEmbedding installs svc only if its health check passes.
// A failing service is closed and the registry keeps no embedding service.
func (s *Services) ValidateAndSetEmbedding(ctx context.Context, svc driven.EmbeddingService) error {
	if svc != nil {
		if err := svc.HealthCheck(ctx); err != nil {
			_ = svc.Close()
			s.SetEmbeddingService(nil)
			return fmt.Errorf("embedding %s: %w", svc.Model(), err)
		}
	}
	s.SetEmbeddingService(svc)
	return nil
}

// ValidateAndSetLLM installs svc only if it answers a ping
func (s *Services) ValidateAndSetLLM(ctx context.Context, svc driven.LLMService) error {
	if svc != nil {
		if err := svc.Ping(ctx); err != nil {
			_ = svc.Close()
			s.SetLLMService(nil)
			return fmt.Errorf("llm %s: %w", svc.Model(), err)
		}
	}
	s.SetLLMService(svc)
	return nil
}

// Close closes and drops both services
func (s *Services) Close() error {
	s.SetEmbeddingService(nil)
	s.SetLLMService(nil)
	return nil
}
