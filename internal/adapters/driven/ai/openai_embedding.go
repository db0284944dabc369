package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/ragsense/ragsense/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*OpenAIEmbedding)(nil)

const (
	defaultOpenAIEmbeddingModel = "text-embedding-3-small"

	// maxInputsPerRequest is the API limit on inputs per embedding call
	maxInputsPerRequest = 2048
)

// openAIModelDimensions seeds Dimensions before the first response
var openAIModelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// OpenAIEmbedding calls an OpenAI-compatible /embeddings endpoint.
//
// The vector length reported by the first successful response becomes the
// model's fixed dimension; a later response of a different length is an
// error, since stored document vectors could no longer be compared.
type OpenAIEmbedding struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client

	dimensions atomic.Int64
	observed   atomic.Bool
}

// NewOpenAIEmbedding creates an embedding client. baseURL defaults to the
// public OpenAI API.
func NewOpenAIEmbedding(apiKey, model, baseURL string) (driven.EmbeddingService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if model == "" {
		model = defaultOpenAIEmbeddingModel
	}
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}

	e := &OpenAIEmbedding{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
	e.dimensions.Store(int64(openAIModelDimensions[model]))
	return e, nil
}

type embeddingRequest struct {
	Input          []string `json:"input"`
	Model          string   `json:"model"`
	EncodingFormat string   `json:"encoding_format,omitempty"`
}

type embeddingItem struct {
	Index     int       `json:"index"`
	Embedding []float32 `json:"embedding"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

type embeddingResponse struct {
	Data  []embeddingItem `json:"data"`
	Model string          `json:"model"`
	Error *apiError       `json:"error,omitempty"`
}

// Embed encodes texts in input order, splitting inputs above the API limit
// into several calls
func (e *OpenAIEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxInputsPerRequest {
		end := min(start+maxInputsPerRequest, len(texts))
		batch, err := e.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

func (e *OpenAIEmbedding) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.post(ctx, embeddingRequest{
		Input:          texts,
		Model:          e.model,
		EncodingFormat: "float",
	})
	if err != nil {
		return nil, err
	}

	// Items carry their input index and may arrive in any order
	vectors := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index >= 0 && item.Index < len(vectors) {
			vectors[item.Index] = item.Embedding
		}
	}
	for i, v := range vectors {
		if v == nil {
			return nil, fmt.Errorf("no embedding returned for input %d", i)
		}
		if err := e.checkDimensions(len(v)); err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
	}
	return vectors, nil
}

// checkDimensions fixes the dimension on first use and enforces it after
func (e *OpenAIEmbedding) checkDimensions(n int) error {
	if e.observed.CompareAndSwap(false, true) {
		e.dimensions.Store(int64(n))
		return nil
	}
	if want := e.dimensions.Load(); int64(n) != want {
		return fmt.Errorf("model %s returned %d dimensions, expected %d", e.model, n, want)
	}
	return nil
}

// EmbedQuery encodes a single search text
func (e *OpenAIEmbedding) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// Dimensions returns the observed vector length, or the documented length
// of a known model before the first call
func (e *OpenAIEmbedding) Dimensions() int {
	return int(e.dimensions.Load())
}

func (e *OpenAIEmbedding) Model() string {
	return e.model
}

// HealthCheck embeds a short probe text
func (e *OpenAIEmbedding) HealthCheck(ctx context.Context) error {
	_, err := e.EmbedQuery(ctx, "health check")
	return err
}

func (e *OpenAIEmbedding) Close() error {
	e.client.CloseIdleConnections()
	return nil
}

func (e *OpenAIEmbedding) post(ctx context.Context, body embeddingRequest) (*embeddingResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var out embeddingResponse
	decodeErr := json.Unmarshal(raw, &out)
	switch {
	case decodeErr == nil && out.Error != nil:
		return nil, fmt.Errorf("embedding API error (status %d): %s (type: %s, code: %s)",
			resp.StatusCode, out.Error.Message, out.Error.Type, out.Error.Code)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("embedding API returned status %d", resp.StatusCode)
	case decodeErr != nil:
		return nil, fmt.Errorf("failed to parse response: %w", decodeErr)
	}
	return &out, nil
}
