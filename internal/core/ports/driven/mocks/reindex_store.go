package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/ragsense/ragsense/internal/core/domain"
	"github.com/ragsense/ragsense/internal/core/ports/driven"
)

var _ driven.ReindexRunStore = (*MockReindexRunStore)(nil)

// MockReindexRunStore keeps runs in memory
type MockReindexRunStore struct {
	mu   sync.RWMutex
	runs map[string]*domain.ReindexRun

	SaveErr error
}

// NewMockReindexRunStore creates an empty store
func NewMockReindexRunStore() *MockReindexRunStore {
	return &MockReindexRunStore{
		runs: make(map[string]*domain.ReindexRun),
	}
}

func (m *MockReindexRunStore) Save(ctx context.Context, run *domain.ReindexRun) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *run
	m.runs[run.ID] = &cp
	return nil
}

func (m *MockReindexRunStore) Get(ctx context.Context, id string) (*domain.ReindexRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *run
	return &cp, nil
}

func (m *MockReindexRunStore) List(ctx context.Context, collection string, limit int) ([]*domain.ReindexRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*domain.ReindexRun
	for _, run := range m.runs {
		if collection != "" && run.Collection != collection {
			continue
		}
		cp := *run
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
