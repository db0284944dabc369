package ai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/ragsense/ragsense/internal/core/domain"
	"github.com/ragsense/ragsense/internal/core/ports/driven"
)

// Ensure LocalEmbedding implements EmbeddingService
var _ driven.EmbeddingService = (*LocalEmbedding)(nil)

// noToken is sent to local OpenAI-compatible servers that do not authenticate
const noToken = "none"

// Known output sizes of self-hosted sentence models
var localModelDimensions = map[string]int{
	"distiluse-base-multilingual-cased-v1":  512,
	"paraphrase-multilingual-mpnet-base-v2": 768,
	"all-MiniLM-L6-v2":                      384,
}

// LocalEmbedding implements EmbeddingService against a self-hosted
// OpenAI-compatible embedding server
type LocalEmbedding struct {
	embedder embeddings.Embedder
	model    string
	baseURL  string
	logger   *slog.Logger
}

// NewLocalEmbedding creates an embedding service for a local server.
// apiKey may be empty.
func NewLocalEmbedding(baseURL, model, apiKey string) (driven.EmbeddingService, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("local embedding server URL is required")
	}
	if model == "" {
		model = domain.DefaultEmbeddingModel
	}
	if apiKey == "" {
		apiKey = noToken
	}

	client, err := openai.New(
		openai.WithBaseURL(baseURL),
		openai.WithToken(apiKey),
		openai.WithEmbeddingModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("create embedding client: %w", err)
	}

	// Canonical texts are multi-line, keep them as they are
	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(false))
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}

	return &LocalEmbedding{
		embedder: embedder,
		model:    model,
		baseURL:  baseURL,
		logger:   slog.Default().With("component", "local-embedding"),
	}, nil
}

// Embed generates one vector per text, in input order
func (e *LocalEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	e.logger.Debug("generating embeddings", "count", len(texts))
	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed %d texts: %w", len(texts), err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding server returned %d vectors for %d texts", len(vectors), len(texts))
	}
	return vectors, nil
}

// EmbedQuery generates an embedding for a search query
func (e *LocalEmbedding) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// Dimensions returns the known output size of the model, or 0
func (e *LocalEmbedding) Dimensions() int {
	return localModelDimensions[e.model]
}

func (e *LocalEmbedding) Model() string {
	return e.model
}

// HealthCheck embeds a short probe text
func (e *LocalEmbedding) HealthCheck(ctx context.Context) error {
	_, err := e.EmbedQuery(ctx, "health check")
	return err
}

func (e *LocalEmbedding) Close() error {
	return nil
}
