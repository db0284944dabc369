// Package memory holds single-process fallbacks for the coordination ports.
// They are used when neither Redis nor PostgreSQL is configured, which is
// only safe while one process runs reindexes.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ragsense/ragsense/internal/core/ports/driven"
)

var _ driven.DistributedLock = (*Lock)(nil)

// Lock is a TTL lock table local to this process
type Lock struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
}

// NewLock creates an empty lock table
func NewLock() *Lock {
	return &Lock{
		expires: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Acquire takes name unless a live lease exists
func (l *Lock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if exp, ok := l.expires[name]; ok && now.Before(exp) {
		return false, nil
	}
	l.expires[name] = now.Add(ttl)
	return true, nil
}

// Release drops the lease
func (l *Lock) Release(ctx context.Context, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.expires, name)
	return nil
}

// Extend pushes out a live lease
func (l *Lock) Extend(ctx context.Context, name string, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	exp, ok := l.expires[name]
	if !ok || !now.Before(exp) {
		delete(l.expires, name)
		return fmt.Errorf("lock %s not held", name)
	}
	l.expires[name] = now.Add(ttl)
	return nil
}

// Ping always succeeds
func (l *Lock) Ping(ctx context.Context) error {
	return nil
}
