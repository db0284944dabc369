package driven

import (
	"context"

	"github.com/ragsense/ragsense/internal/core/domain"
)

// ReindexRunStore handles reindex run persistence (PostgreSQL)
type ReindexRunStore interface {
	// Save creates or updates a run
	Save(ctx context.Context, run *domain.ReindexRun) error

	// Get retrieves a run by ID
	Get(ctx context.Context, id string) (*domain.ReindexRun, error)

	// List returns the most recent runs first.
	// An empty collection lists runs of every collection.
	List(ctx context.Context, collection string, limit int) ([]*domain.ReindexRun, error)
}
