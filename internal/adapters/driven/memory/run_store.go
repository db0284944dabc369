package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/ragsense/ragsense/internal/core/domain"
	"github.com/ragsense/ragsense/internal/core/ports/driven"
)

var _ driven.ReindexRunStore = (*RunStore)(nil)

// DefaultRunHistory is how many runs a RunStore keeps
const DefaultRunHistory = 200

// RunStore keeps the most recent reindex runs in memory.
// The oldest run is evicted once the history is full.
type RunStore struct {
	mu      sync.RWMutex
	runs    map[string]domain.ReindexRun
	order   []string // insertion order, oldest first
	history int
}

// NewRunStore creates a store holding up to history runs.
// A non-positive history uses DefaultRunHistory.
func NewRunStore(history int) *RunStore {
	if history <= 0 {
		history = DefaultRunHistory
	}
	return &RunStore{
		runs:    make(map[string]domain.ReindexRun),
		history: history,
	}
}

// Save creates or updates a run
func (s *RunStore) Save(ctx context.Context, run *domain.ReindexRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[run.ID]; !ok {
		s.order = append(s.order, run.ID)
		if len(s.order) > s.history {
			delete(s.runs, s.order[0])
			s.order = s.order[1:]
		}
	}
	s.runs[run.ID] = *run
	return nil
}

// Get retrieves a run by ID
func (s *RunStore) Get(ctx context.Context, id string) (*domain.ReindexRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, fmt.Errorf("reindex run %s: %w", id, domain.ErrNotFound)
	}
	return &run, nil
}

// List returns runs newest first, optionally of one collection
func (s *RunStore) List(ctx context.Context, collection string, limit int) ([]*domain.ReindexRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.ReindexRun, 0, len(s.runs))
	for _, run := range s.runs {
		if collection != "" && run.Collection != collection {
			continue
		}
		out = append(out, &run)
	}
	slices.SortFunc(out, func(a, b *domain.ReindexRun) int {
		return b.StartedAt.Compare(a.StartedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
