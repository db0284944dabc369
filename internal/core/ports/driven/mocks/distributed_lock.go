package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ragsense/ragsense/internal/core/ports/driven"
)

var _ driven.DistributedLock = (*MockDistributedLock)(nil)

// MockDistributedLock keeps lease expiries in a map. AcquireFn replaces the
// acquire logic when a test needs a backend error.
type MockDistributedLock struct {
	mu     sync.Mutex
	leases map[string]time.Time

	AcquireFn func(name string, ttl time.Duration) (bool, error)

	// Acquired lists lock names in acquisition order
	Acquired []string
	Extended int
}

func NewMockDistributedLock() *MockDistributedLock {
	return &MockDistributedLock{leases: make(map[string]time.Time)}
}

func (m *MockDistributedLock) live(name string) bool {
	expiry, ok := m.leases[name]
	return ok && time.Now().Before(expiry)
}

func (m *MockDistributedLock) Acquire(_ context.Context, name string, ttl time.Duration) (bool, error) {
	if m.AcquireFn != nil {
		return m.AcquireFn(name, ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.live(name) {
		return false, nil
	}
	m.leases[name] = time.Now().Add(ttl)
	m.Acquired = append(m.Acquired, name)
	return true, nil
}

func (m *MockDistributedLock) Release(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.leases, name)
	return nil
}

func (m *MockDistributedLock) Extend(_ context.Context, name string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.live(name) {
		return fmt.Errorf("lock %s not held", name)
	}
	m.leases[name] = time.Now().Add(ttl)
	m.Extended++
	return nil
}

func (m *MockDistributedLock) Ping(context.Context) error {
	return nil
}

// IsHeld reports whether name has a live lease
func (m *MockDistributedLock) IsHeld(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live(name)
}

// SetLockHeld simulates another instance holding name for ttl
func (m *MockDistributedLock) SetLockHeld(name string, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leases[name] = time.Now().Add(ttl)
}
