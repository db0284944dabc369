package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ragsense/ragsense/internal/core/domain"
	"github.com/ragsense/ragsense/internal/core/ports/driven"
)

var _ driven.TaskQueue = (*Queue)(nil)

// pollInterval is how often an empty queue is re-checked while waiting
const pollInterval = time.Second

const taskColumns = `id, type, payload, status, priority, attempts, max_attempts, error,
	created_at, updated_at, started_at, completed_at, scheduled_for`

// Every state change is a single UPDATE so that no transaction is held
// across a reindex. Claims skip rows locked by other workers.
const (
	claimQuery = `
		UPDATE tasks
		SET status = 'processing', attempts = attempts + 1, started_at = NOW(), updated_at = NOW()
		WHERE id = (
			SELECT id FROM tasks
			WHERE status = 'pending' AND scheduled_for <= NOW()
			ORDER BY priority DESC, created_at
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + taskColumns

	ackQuery = `
		UPDATE tasks
		SET status = 'completed', error = '', completed_at = NOW(), updated_at = NOW()
		WHERE id = $1`

	// Backoff is 2^attempts seconds capped at five minutes, as domain.RetryBackoff
	nackQuery = `
		UPDATE tasks
		SET error = $2,
		    updated_at = NOW(),
		    status = CASE WHEN attempts < max_attempts THEN 'pending' ELSE 'failed' END,
		    scheduled_for = CASE WHEN attempts < max_attempts
		        THEN NOW() + make_interval(secs => LEAST(POWER(2, LEAST(attempts, 9)), 300))
		        ELSE scheduled_for END
		WHERE id = $1`
)

// Queue is the reindex task queue on the tasks table, used when Redis is not
// configured. The table is created by postgres.DB.InitSchema.
type Queue struct {
	db *sql.DB
}

func NewQueue(db *sql.DB) *Queue {
	return &Queue{db: db}
}

func (q *Queue) Enqueue(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return errors.New("task is required")
	}
	return q.EnqueueBatch(ctx, []*domain.Task{task})
}

// EnqueueBatch inserts all tasks with one multi-row statement
func (q *Queue) EnqueueBatch(ctx context.Context, tasks []*domain.Task) error {
	const cols = 11
	var (
		rows []string
		args []any
	)
	for _, task := range tasks {
		if task == nil {
			continue
		}
		payload, err := json.Marshal(task.Payload)
		if err != nil {
			return fmt.Errorf("marshal payload of task %s: %w", task.ID, err)
		}

		marks := make([]string, cols)
		for i := range marks {
			marks[i] = fmt.Sprintf("$%d", len(args)+i+1)
		}
		rows = append(rows, "("+strings.Join(marks, ", ")+")")
		args = append(args,
			task.ID, task.Type, payload, task.Status, task.Priority,
			task.Attempts, task.MaxAttempts, task.Error,
			task.CreatedAt, task.UpdatedAt, task.ScheduledFor)
	}
	if len(rows) == 0 {
		return nil
	}

	query := `INSERT INTO tasks (id, type, payload, status, priority, attempts, max_attempts, error,
		created_at, updated_at, scheduled_for) VALUES ` + strings.Join(rows, ", ")
	if _, err := q.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert %d tasks: %w", len(rows), err)
	}
	return nil
}

// DequeueWithTimeout polls for a due task for up to timeout seconds.
// A timeout of 0 checks once.
func (q *Queue) DequeueWithTimeout(ctx context.Context, timeout int) (*domain.Task, error) {
	deadline := time.Now().Add(time.Duration(timeout) * time.Second)
	for {
		task, err := scanTask(q.db.QueryRowContext(ctx, claimQuery))
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			if ctx.Err() != nil {
				return nil, nil
			}
			return nil, fmt.Errorf("claim task: %w", err)
		default:
			return task, nil
		}

		wait := time.Until(deadline)
		if wait <= 0 {
			return nil, nil
		}
		select {
		case <-ctx.Done():
			return nil, nil
		case <-time.After(min(pollInterval, wait)):
		}
	}
}

func (q *Queue) Ack(ctx context.Context, taskID string) error {
	return q.settle(ctx, ackQuery, taskID)
}

// Nack records reason and reschedules the task with backoff, or marks it
// failed once max_attempts is reached
func (q *Queue) Nack(ctx context.Context, taskID string, reason string) error {
	return q.settle(ctx, nackQuery, taskID, reason)
}

func (q *Queue) settle(ctx context.Context, query, taskID string, args ...any) error {
	res, err := q.db.ExecContext(ctx, query, append([]any{taskID}, args...)...)
	if err != nil {
		return fmt.Errorf("update task %s: %w", taskID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("task %s: %w", taskID, domain.ErrNotFound)
	}
	return nil
}

func (q *Queue) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	task, err := scanTask(q.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, taskID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %s: %w", taskID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query task %s: %w", taskID, err)
	}
	return task, nil
}

func (q *Queue) Stats(ctx context.Context) (*driven.QueueStats, error) {
	stats := &driven.QueueStats{}
	err := q.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'processing'),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'failed')
		FROM tasks`,
	).Scan(&stats.PendingCount, &stats.ProcessingCount, &stats.CompletedCount, &stats.FailedCount)
	if err != nil {
		return nil, fmt.Errorf("query queue stats: %w", err)
	}
	return stats, nil
}

func (q *Queue) Ping(ctx context.Context) error {
	return q.db.PingContext(ctx)
}

// Close leaves the pool open; it belongs to postgres.DB
func (q *Queue) Close() error {
	return nil
}

func scanTask(row interface{ Scan(dest ...any) error }) (*domain.Task, error) {
	var (
		task                   domain.Task
		payload                []byte
		startedAt, completedAt sql.NullTime
	)
	err := row.Scan(&task.ID, &task.Type, &payload, &task.Status, &task.Priority,
		&task.Attempts, &task.MaxAttempts, &task.Error,
		&task.CreatedAt, &task.UpdatedAt, &startedAt, &completedAt, &task.ScheduledFor)
	if err != nil {
		return nil, err
	}

	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &task.Payload); err != nil {
			return nil, fmt.Errorf("unmarshal payload of task %s: %w", task.ID, err)
		}
	}
	if startedAt.Valid {
		task.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		task.CompletedAt = &completedAt.Time
	}
	return &task, nil
}
