package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ragsense/ragsense/internal/core/domain"
	"github.com/ragsense/ragsense/internal/core/ports/driven"
	"github.com/ragsense/ragsense/internal/core/ports/driving"
	"github.com/ragsense/ragsense/internal/runtime"
)

// Ensure searchService implements SearchService
var _ driving.SearchService = (*searchService)(nil)

// searchService implements the SearchService interface
type searchService struct {
	store    driven.DocumentStore
	registry driven.NormaliserRegistry
	mapping  domain.CollectionMapping
	services *runtime.Services // Embedding service may be absent
	answers  driving.AnswerService
	weights  domain.FusionWeights
	logger   *slog.Logger
}

// SearchServiceConfig holds dependencies for the search service
type SearchServiceConfig struct {
	Store    driven.DocumentStore
	Registry driven.NormaliserRegistry
	Mapping  domain.CollectionMapping
	Services *runtime.Services
	Answers  driving.AnswerService // optional, needed for generative queries
	Weights  domain.FusionWeights  // hybrid weights for queries without their own; zero uses the defaults
	Logger   *slog.Logger
}

// NewSearchService creates a new SearchService
func NewSearchService(cfg SearchServiceConfig) driving.SearchService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	weights := cfg.Weights
	if weights == (domain.FusionWeights{}) {
		weights = domain.DefaultFusionWeights()
	}
	return &searchService{
		store:    cfg.Store,
		registry: cfg.Registry,
		mapping:  cfg.Mapping,
		services: cfg.Services,
		answers:  cfg.Answers,
		weights:  weights,
		logger:   logger,
	}
}

// Search validates the query, retrieves across collections, filters and
// optionally composes an answer
func (s *searchService) Search(ctx context.Context, query domain.SearchQuery) (*domain.SearchOutcome, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	weights := query.WeightsOver(s.weights)

	start := time.Now()
	results, err := s.retrieve(ctx, query.Mode, query.Text, query.Collections, query.TopK, weights)
	if err != nil {
		return nil, err
	}
	results = query.Filters.Apply(results)

	outcome := &domain.SearchOutcome{Results: results}
	if query.Generative {
		if s.answers == nil {
			return nil, fmt.Errorf("%w: answer composition not configured", domain.ErrServiceUnavailable)
		}
		answer, err := s.answers.AnswerFromResults(ctx, query.Text, query.PromptExtension, results, query.GenerativeDocs)
		if err != nil {
			return nil, err
		}
		outcome.Answer = answer
	}

	s.logger.Debug("search completed",
		"mode", query.Mode,
		"collections", len(query.Collections),
		"results", len(results),
		"generative", query.Generative,
		"took", time.Since(start),
	)
	return outcome, nil
}

// KeywordSearch ranks by full-text relevance only
func (s *searchService) KeywordSearch(ctx context.Context, text string, collections []string, topK int) ([]domain.RetrievedDocument, error) {
	return s.retrieve(ctx, domain.SearchModeKeyword, text, collections, topK, s.weights)
}

// VectorSearch ranks by cosine similarity to the embedded query
func (s *searchService) VectorSearch(ctx context.Context, text string, collections []string, topK int) ([]domain.RetrievedDocument, error) {
	return s.retrieve(ctx, domain.SearchModeVector, text, collections, topK, s.weights)
}

// HybridSearch ranks by weighted text relevance plus cosine similarity
func (s *searchService) HybridSearch(ctx context.Context, text string, collections []string, topK int, weights domain.FusionWeights) ([]domain.RetrievedDocument, error) {
	return s.retrieve(ctx, domain.SearchModeHybrid, text, collections, topK, weights)
}

// retrieve embeds the query once if needed, then queries each collection in
// request order and concatenates the normalised hits without re-sorting.
// Any collection failure fails the whole request.
func (s *searchService) retrieve(
	ctx context.Context,
	mode domain.SearchMode,
	text string,
	collections []string,
	topK int,
	weights domain.FusionWeights,
) ([]domain.RetrievedDocument, error) {
	if topK <= 0 {
		topK = domain.DefaultTopK
	}

	var vector []float32
	if mode.RequiresEmbedding() {
		embedder, err := s.services.RequireEmbedding()
		if err != nil {
			return nil, err
		}
		vector, err = embedder.EmbedQuery(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed query: %w", err)
		}
	}

	results := make([]domain.RetrievedDocument, 0, topK*len(collections))
	for _, collection := range collections {
		hits, err := s.store.Search(ctx, collection, driven.StoreQuery{
			Mode:    mode,
			Text:    text,
			Vector:  vector,
			Weights: weights,
			Size:    topK,
		})
		if err != nil {
			return nil, &domain.RetrievalError{Collection: collection, Mode: mode, Err: err}
		}

		normaliser := s.registry.Get(s.mapping.Resolve(collection))
		for _, hit := range hits {
			results = append(results, normaliser.Normalise(hit))
		}
	}
	return results, nil
}
