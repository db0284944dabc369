package normalisers

import (
	"slices"
	"sync"

	"github.com/ragsense/ragsense/internal/core/domain"
	"github.com/ragsense/ragsense/internal/core/ports/driven"
)

// Verify interface compliance
var (
	_ driven.NormaliserRegistry = (*Registry)(nil)
	_ driven.Normaliser         = (*JiraNormaliser)(nil)
	_ driven.Normaliser         = (*ConfluenceNormaliser)(nil)
	_ driven.Normaliser         = (*NetworkDriveNormaliser)(nil)
	_ driven.Normaliser         = (*UnknownNormaliser)(nil)
)

// Registry implements NormaliserRegistry with one normaliser per source type.
// Lookups for unregistered types fall back to the Unknown normaliser.
type Registry struct {
	mu          sync.RWMutex
	normalisers map[domain.SourceType]driven.Normaliser
}

// NewRegistry creates an empty normaliser registry.
func NewRegistry() *Registry {
	return &Registry{
		normalisers: make(map[domain.SourceType]driven.Normaliser),
	}
}

// Register registers a normaliser, replacing any existing one for its type.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.normalisers[n.SourceType()] = n
}

// Get returns the normaliser for a source type, or the Unknown fallback.
// Returns nil only if neither is registered.
func (r *Registry) Get(t domain.SourceType) driven.Normaliser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if n, ok := r.normalisers[t]; ok {
		return n
	}
	return r.normalisers[domain.SourceTypeUnknown]
}

// List returns the registered source types in dispatch order.
func (r *Registry) List() []domain.SourceType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]domain.SourceType, 0, len(r.normalisers))
	for _, t := range domain.AllSourceTypes() {
		if _, ok := r.normalisers[t]; ok {
			types = append(types, t)
		}
	}
	for t := range r.normalisers {
		if !slices.Contains(types, t) {
			types = append(types, t)
		}
	}
	return types
}

// DefaultRegistry creates a registry with every built-in source type registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(&JiraNormaliser{})
	r.Register(&ConfluenceNormaliser{})
	r.Register(&NetworkDriveNormaliser{})
	r.Register(&UnknownNormaliser{})

	return r
}
