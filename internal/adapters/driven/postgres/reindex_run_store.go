package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ragsense/ragsense/internal/core/domain"
	"github.com/ragsense/ragsense/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ReindexRunStore = (*ReindexRunStore)(nil)

const defaultRunListLimit = 50

// ReindexRunStore implements driven.ReindexRunStore using PostgreSQL
type ReindexRunStore struct {
	db *DB
}

// NewReindexRunStore creates a new ReindexRunStore
func NewReindexRunStore(db *DB) *ReindexRunStore {
	return &ReindexRunStore{db: db}
}

// Save creates or updates a run
func (s *ReindexRunStore) Save(ctx context.Context, run *domain.ReindexRun) error {
	query := `
		INSERT INTO reindex_runs (
			id, collection, model, batch_size, status,
			processed, pages, error, started_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			processed = EXCLUDED.processed,
			pages = EXCLUDED.pages,
			error = EXCLUDED.error,
			completed_at = EXCLUDED.completed_at
	`
	_, err := s.db.ExecContext(ctx, query,
		run.ID,
		run.Collection,
		run.Model,
		run.BatchSize,
		run.Status,
		run.Processed,
		run.Pages,
		run.Error,
		run.StartedAt,
		nullTime(run.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("save reindex run: %w", err)
	}
	return nil
}

// Get retrieves a run by ID
func (s *ReindexRunStore) Get(ctx context.Context, id string) (*domain.ReindexRun, error) {
	query := `
		SELECT id, collection, model, batch_size, status,
		       processed, pages, error, started_at, completed_at
		FROM reindex_runs
		WHERE id = $1
	`
	run, err := scanRun(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get reindex run: %w", err)
	}
	return run, nil
}

// List returns the most recent runs first
func (s *ReindexRunStore) List(ctx context.Context, collection string, limit int) ([]*domain.ReindexRun, error) {
	if limit <= 0 {
		limit = defaultRunListLimit
	}

	query := `
		SELECT id, collection, model, batch_size, status,
		       processed, pages, error, started_at, completed_at
		FROM reindex_runs
		WHERE $1 = '' OR collection = $1
		ORDER BY started_at DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, collection, limit)
	if err != nil {
		return nil, fmt.Errorf("list reindex runs: %w", err)
	}
	defer rows.Close()

	var runs []*domain.ReindexRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reindex run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reindex runs: %w", err)
	}
	return runs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*domain.ReindexRun, error) {
	var run domain.ReindexRun
	var completedAt sql.NullTime
	err := row.Scan(
		&run.ID,
		&run.Collection,
		&run.Model,
		&run.BatchSize,
		&run.Status,
		&run.Processed,
		&run.Pages,
		&run.Error,
		&run.StartedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}
	run.CompletedAt = timeOrNil(completedAt)
	return &run, nil
}
