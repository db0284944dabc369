package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/ragsense/ragsense/internal/core/ports/driven"
)

var _ driven.EmbeddingCache = (*MockEmbeddingCache)(nil)

// MockEmbeddingCache is an in-memory EmbeddingCache without expiry
type MockEmbeddingCache struct {
	mu      sync.Mutex
	entries map[string][]float32

	GetErr error
	SetErr error
	Hits   int
	Misses int
}

// NewMockEmbeddingCache creates an empty cache
func NewMockEmbeddingCache() *MockEmbeddingCache {
	return &MockEmbeddingCache{entries: make(map[string][]float32)}
}

func (m *MockEmbeddingCache) Get(ctx context.Context, model, text string) ([]float32, bool, error) {
	if m.GetErr != nil {
		return nil, false, m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[model+"\x00"+text]
	if ok {
		m.Hits++
	} else {
		m.Misses++
	}
	return v, ok, nil
}

func (m *MockEmbeddingCache) Set(ctx context.Context, model, text string, vector []float32, ttl time.Duration) error {
	if m.SetErr != nil {
		return m.SetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[model+"\x00"+text] = vector
	return nil
}
