package driven

import (
	"context"
	"time"

	"github.com/ragsense/ragsense/internal/core/domain"
)

// Hit is one raw document returned by the document store
type Hit struct {
	ID     string
	Score  float64
	Source map[string]any
}

// StoreQuery describes a scored query against a single collection
type StoreQuery struct {
	Mode    domain.SearchMode
	Text    string
	Vector  []float32 // required for vector and hybrid modes
	Weights domain.FusionWeights
	Size    int
}

// PartialUpdate sets fields on an existing document, leaving the rest untouched
type PartialUpdate struct {
	ID     string
	Fields map[string]any
}

// DocumentStore is the search-capable document store (Elasticsearch).
// Collections are index names.
type DocumentStore interface {
	// Search runs a scored query and returns at most q.Size hits in
	// descending score order.
	Search(ctx context.Context, collection string, q StoreQuery) ([]Hit, error)

	// Scan opens a cursor over every document of a collection.
	// The cursor stays alive for ttl between page fetches.
	Scan(ctx context.Context, collection string, pageSize int, ttl time.Duration) (Cursor, error)

	// Get retrieves a single document by ID.
	// Returns domain.ErrNotFound if the document does not exist.
	Get(ctx context.Context, collection, id string) (*Hit, error)

	// BulkUpdate applies partial updates in one round trip.
	// Any per-document failure fails the whole call.
	BulkUpdate(ctx context.Context, collection string, updates []PartialUpdate) error

	// Ping verifies the store is reachable
	Ping(ctx context.Context) error
}

// Cursor walks a collection page by page
type Cursor interface {
	// Next returns the next page. An empty page means the scan is exhausted.
	Next(ctx context.Context) ([]Hit, error)

	// Close releases the server-side cursor.
	// Safe to call more than once.
	Close(ctx context.Context) error
}
