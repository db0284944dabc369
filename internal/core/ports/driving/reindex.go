package driving

import (
	"context"
	"time"

	"github.com/ragsense/ragsense/internal/core/domain"
)

// ReindexService recomputes stored embeddings
type ReindexService interface {
	// Reindex runs the embedding indexer for one collection and waits for it.
	// Returns domain.ErrReindexInProgress if another run holds the collection.
	Reindex(ctx context.Context, req domain.ReindexRequest) (*domain.ReindexRun, error)

	// ReindexAll reindexes every embeddings-enabled catalog collection concurrently
	ReindexAll(ctx context.Context, batchSize int, scrollTTL time.Duration) ([]*domain.ReindexRun, error)

	// Enqueue schedules a reindex of one collection on the task queue
	Enqueue(ctx context.Context, req domain.ReindexRequest) (*domain.Task, error)

	// EnqueueAll schedules a reindex of every embeddings-enabled collection
	EnqueueAll(ctx context.Context, batchSize int, scrollTTL time.Duration) (*domain.Task, error)

	// ListRuns returns recent runs, newest first
	ListRuns(ctx context.Context, collection string, limit int) ([]*domain.ReindexRun, error)
}
