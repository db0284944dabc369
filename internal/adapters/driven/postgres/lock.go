package postgres

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/ragsense/ragsense/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DistributedLock = (*LeaseLock)(nil)

// LeaseLock implements DistributedLock with rows in the locks table.
// A lock is a lease: it belongs to its owner until expires_at, after which
// any instance may take it over.
type LeaseLock struct {
	db      *DB
	ownerID string
}

// NewLeaseLock creates a lease lock adapter with a fresh owner token
func NewLeaseLock(db *DB) *LeaseLock {
	hostname, _ := os.Hostname()
	return &LeaseLock{
		db:      db,
		ownerID: fmt.Sprintf("%s:%d:%s", hostname, os.Getpid(), uuid.NewString()),
	}
}

// Acquire inserts the lease, or takes over an expired one
func (l *LeaseLock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	query := `
		INSERT INTO locks (name, owner, expires_at)
		VALUES ($1, $2, NOW() + $3 * INTERVAL '1 millisecond')
		ON CONFLICT (name) DO UPDATE
		SET owner = EXCLUDED.owner, expires_at = EXCLUDED.expires_at
		WHERE locks.expires_at < NOW()
	`
	result, err := l.db.ExecContext(ctx, query, name, l.ownerID, ttl.Milliseconds())
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	return rows == 1, nil
}

// Release deletes the lease if this instance owns it
func (l *LeaseLock) Release(ctx context.Context, name string) error {
	_, err := l.db.ExecContext(ctx, `DELETE FROM locks WHERE name = $1 AND owner = $2`, name, l.ownerID)
	if err != nil {
		return fmt.Errorf("release lock %s: %w", name, err)
	}
	return nil
}

// Extend pushes out the expiry of a live lease this instance owns
func (l *LeaseLock) Extend(ctx context.Context, name string, ttl time.Duration) error {
	query := `
		UPDATE locks
		SET expires_at = NOW() + $3 * INTERVAL '1 millisecond'
		WHERE name = $1 AND owner = $2 AND expires_at >= NOW()
	`
	result, err := l.db.ExecContext(ctx, query, name, l.ownerID, ttl.Milliseconds())
	if err != nil {
		return fmt.Errorf("extend lock %s: %w", name, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("extend lock %s: %w", name, err)
	}
	if rows == 0 {
		return fmt.Errorf("extend lock %s: not held by this instance", name)
	}
	return nil
}

// Ping checks if the PostgreSQL backend is healthy
func (l *LeaseLock) Ping(ctx context.Context) error {
	return l.db.PingContext(ctx)
}

// OwnerID returns this instance's owner token
func (l *LeaseLock) OwnerID() string {
	return l.ownerID
}
