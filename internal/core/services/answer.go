package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ragsense/ragsense/internal/core/domain"
	"github.com/ragsense/ragsense/internal/core/ports/driven"
	"github.com/ragsense/ragsense/internal/core/ports/driving"
	"github.com/ragsense/ragsense/internal/runtime"
)

// Ensure answerService implements AnswerService
var _ driving.AnswerService = (*answerService)(nil)

// answerService implements the AnswerService interface
type answerService struct {
	store        driven.DocumentStore
	services     *runtime.Services
	systemPrompt string
	logger       *slog.Logger
}

// AnswerServiceConfig holds dependencies for the answer service
type AnswerServiceConfig struct {
	Store        driven.DocumentStore
	Services     *runtime.Services
	SystemPrompt string // defaults to domain.DefaultSystemPrompt
	Logger       *slog.Logger
}

// NewAnswerService creates a new AnswerService
func NewAnswerService(cfg AnswerServiceConfig) driving.AnswerService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	systemPrompt := cfg.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = domain.DefaultSystemPrompt
	}
	return &answerService{
		store:        cfg.Store,
		services:     cfg.Services,
		systemPrompt: systemPrompt,
		logger:       logger,
	}
}

// AnswerFromResults answers a query from the first n retrieved documents
func (s *answerService) AnswerFromResults(ctx context.Context, query, promptExtension string, results []domain.RetrievedDocument, n int) (string, error) {
	return s.complete(ctx, SnippetPrompt(promptExtension, query, results, n))
}

// AnswerFromDocument answers a question about one stored document.
// A document whose content is blank fails with ErrEmptyDocument before
// the language model is called.
func (s *answerService) AnswerFromDocument(ctx context.Context, collection, id, question string) (string, error) {
	if collection == "" || id == "" {
		return "", domain.ErrInvalidInput
	}

	hit, err := s.store.Get(ctx, collection, id)
	if err != nil {
		return "", &domain.DocumentError{Kind: domain.ErrDocumentNotFound, Collection: collection, ID: id, Err: err}
	}

	text := contentText(hit.Source["content"])
	if strings.TrimSpace(text) == "" {
		return "", &domain.DocumentError{Kind: domain.ErrEmptyDocument, Collection: collection, ID: id}
	}

	return s.complete(ctx, DocumentPrompt(question, text))
}

// Generate passes a raw prompt to the language model
func (s *answerService) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", domain.ErrInvalidInput
	}
	return s.complete(ctx, prompt)
}

func (s *answerService) complete(ctx context.Context, prompt string) (string, error) {
	llm, err := s.services.RequireLLM()
	if err != nil {
		return "", err
	}

	answer, err := llm.Complete(ctx, s.systemPrompt, prompt)
	if err != nil {
		s.logger.Warn("language model call failed", "model", llm.Model(), "error", err)
		var genErr *domain.GenerationError
		if errors.As(err, &genErr) {
			return "", err
		}
		return "", &domain.GenerationError{Model: llm.Model(), Err: err}
	}
	return answer, nil
}

// contentText renders a content field as prompt text.
// Structured content is passed as JSON.
func contentText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	}
}
