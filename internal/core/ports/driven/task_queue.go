package driven

import (
	"context"

	"github.com/ragsense/ragsense/internal/core/domain"
)

// TaskQueue carries reindex tasks from the API to the workers.
// Redis Streams is used when REDIS_URL is set, a PostgreSQL table otherwise.
type TaskQueue interface {
	// Enqueue stores a pending task
	Enqueue(ctx context.Context, task *domain.Task) error

	// EnqueueBatch stores several tasks atomically
	EnqueueBatch(ctx context.Context, tasks []*domain.Task) error

	// DequeueWithTimeout claims the next pending task, blocking up to
	// timeout seconds. It returns nil, nil when nothing arrived in time.
	DequeueWithTimeout(ctx context.Context, timeout int) (*domain.Task, error)

	// Ack marks a claimed task completed
	Ack(ctx context.Context, taskID string) error

	// Nack records a failed attempt. The task is retried until it runs out
	// of attempts and is then marked failed.
	Nack(ctx context.Context, taskID string, reason string) error

	// GetTask returns a task by ID, wrapping domain.ErrNotFound when unknown
	GetTask(ctx context.Context, taskID string) (*domain.Task, error)

	Stats(ctx context.Context) (*QueueStats, error)
	Ping(ctx context.Context) error
	Close() error
}

// QueueStats contains queue statistics
type QueueStats struct {
	PendingCount    int64 `json:"pending_count"`
	ProcessingCount int64 `json:"processing_count"`
	CompletedCount  int64 `json:"completed_count"`
	FailedCount     int64 `json:"failed_count"`
}
