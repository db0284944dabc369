package elasticsearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/ragsense/ragsense/internal/core/domain"
	"github.com/ragsense/ragsense/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore implements driven.DocumentStore using Elasticsearch
type DocumentStore struct {
	es *elasticsearch.Client
}

// Config holds Elasticsearch connection configuration
type Config struct {
	// Addresses are the cluster endpoints (e.g., http://localhost:9200)
	Addresses []string

	Username string
	Password string
	APIKey   string

	// Timeout for a single HTTP round trip
	Timeout time.Duration

	// MaxRetries on 502/503/504 and connection errors
	MaxRetries int
}

// DefaultConfig returns sensible defaults
func DefaultConfig(address string) Config {
	return Config{
		Addresses:  []string{address},
		Timeout:    30 * time.Second,
		MaxRetries: 3,
	}
}

// NewDocumentStore creates a new Elasticsearch-backed DocumentStore
func NewDocumentStore(cfg Config) (*DocumentStore, error) {
	if len(cfg.Addresses) == 0 || cfg.Addresses[0] == "" {
		return nil, fmt.Errorf("elasticsearch: no address configured")
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = cfg.Timeout

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:  cfg.Addresses,
		Username:   cfg.Username,
		Password:   cfg.Password,
		APIKey:     cfg.APIKey,
		Transport:  transport,
		MaxRetries: cfg.MaxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: create client: %w", err)
	}
	return &DocumentStore{es: es}, nil
}

// Ping checks that the cluster answers
func (s *DocumentStore) Ping(ctx context.Context) error {
	res, err := s.es.Ping(s.es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("%w: ping returned %s", domain.ErrStoreUnavailable, res.Status())
	}
	return nil
}

// errorBody is the error envelope Elasticsearch returns on failed requests
type errorBody struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
}

// transportError classifies a failure to reach the cluster
func transportError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrStoreUnavailable, op, err)
}

// responseError maps an error response to a domain error.
// 5xx means the store is unavailable, anything else is a rejected query.
func responseError(op string, res *esapi.Response) error {
	body, _ := io.ReadAll(io.LimitReader(res.Body, 64<<10))

	reason := strings.TrimSpace(string(body))
	var eb errorBody
	if json.Unmarshal(body, &eb) == nil && eb.Error.Type != "" {
		reason = eb.Error.Type + ": " + eb.Error.Reason
	}

	switch {
	case res.StatusCode == http.StatusNotFound && eb.Error.Type == "":
		return fmt.Errorf("%w: %s", domain.ErrNotFound, op)
	case res.StatusCode >= 500:
		return fmt.Errorf("%w: %s returned %d: %s", domain.ErrStoreUnavailable, op, res.StatusCode, reason)
	default:
		return fmt.Errorf("%w: %s returned %d: %s", domain.ErrQuery, op, res.StatusCode, reason)
	}
}

// decode reads a successful response body into v
func decode(op string, res *esapi.Response, v any) error {
	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %s: decode response: %v", domain.ErrStoreUnavailable, op, err)
	}
	return nil
}
