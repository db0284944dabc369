package domain

import (
	"strings"
	"time"
)

const (
	// DefaultBatchSize is the scroll page size and embedding batch size
	DefaultBatchSize = 128

	// DefaultScrollTTL keeps a scroll cursor alive between page fetches
	DefaultScrollTTL = 2 * time.Minute

	// MaxBatchSize bounds a single embedding call
	MaxBatchSize = 1000

	// EmbeddingField is the document field holding the stored vector
	EmbeddingField = "embedding"
)

// ReindexStatus represents the state of a reindex run
type ReindexStatus string

const (
	ReindexStatusRunning   ReindexStatus = "running"
	ReindexStatusCompleted ReindexStatus = "completed"
	ReindexStatusFailed    ReindexStatus = "failed"
)

// ReindexRequest asks for the embeddings of one collection to be recomputed
type ReindexRequest struct {
	Collection string
	BatchSize  int
	ScrollTTL  time.Duration
}

// ApplyDefaults fills unset batch size and cursor lifetime
func (r *ReindexRequest) ApplyDefaults() {
	if r.BatchSize == 0 {
		r.BatchSize = DefaultBatchSize
	}
	if r.ScrollTTL == 0 {
		r.ScrollTTL = DefaultScrollTTL
	}
}

// Validate checks the request after defaults are applied
func (r *ReindexRequest) Validate() error {
	if strings.TrimSpace(r.Collection) == "" {
		return ErrInvalidInput
	}
	if r.BatchSize <= 0 || r.BatchSize > MaxBatchSize {
		return ErrInvalidInput
	}
	if r.ScrollTTL < time.Second {
		return ErrInvalidInput
	}
	return nil
}

// ReindexRun records one execution of the embedding indexer
type ReindexRun struct {
	ID          string        `json:"id"`
	Collection  string        `json:"collection"`
	Model       string        `json:"model"`
	BatchSize   int           `json:"batch_size"`
	Status      ReindexStatus `json:"status"`
	Processed   int           `json:"processed"`
	Pages       int           `json:"pages"`
	Error       string        `json:"error,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}

// NewReindexRun starts a run record for a request
func NewReindexRun(req ReindexRequest, model string) *ReindexRun {
	return &ReindexRun{
		ID:         GenerateID(),
		Collection: req.Collection,
		Model:      model,
		BatchSize:  req.BatchSize,
		Status:     ReindexStatusRunning,
		StartedAt:  time.Now(),
	}
}

// Complete marks the run as finished
func (r *ReindexRun) Complete(processed, pages int) {
	now := time.Now()
	r.Status = ReindexStatusCompleted
	r.Processed = processed
	r.Pages = pages
	r.Error = ""
	r.CompletedAt = &now
}

// Fail marks the run as failed, keeping the progress made so far
func (r *ReindexRun) Fail(processed, pages int, err error) {
	now := time.Now()
	r.Status = ReindexStatusFailed
	r.Processed = processed
	r.Pages = pages
	if err != nil {
		r.Error = err.Error()
	}
	r.CompletedAt = &now
}

// Duration returns how long the run took, or has been running
func (r *ReindexRun) Duration() time.Duration {
	if r.CompletedAt != nil {
		return r.CompletedAt.Sub(r.StartedAt)
	}
	return time.Since(r.StartedAt)
}
