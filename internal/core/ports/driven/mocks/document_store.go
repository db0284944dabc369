package mocks

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ragsense/ragsense/internal/core/domain"
	"github.com/ragsense/ragsense/internal/core/ports/driven"
)

var _ driven.DocumentStore = (*MockDocumentStore)(nil)

// MockDocumentStore is an in-memory DocumentStore.
// Keyword scores count matched query terms, vector scores are cosine+1 and
// hybrid scores use the query weights. Documents typed "Attachment" are
// excluded from vector and hybrid queries.
type MockDocumentStore struct {
	mu          sync.Mutex
	collections map[string][]*storedDoc

	// Custom behavior hooks (optional)
	SearchFn  func(collection string, q driven.StoreQuery) ([]driven.Hit, error)
	ScanErr   error
	PageErrFn func(collection string, page int) error
	BulkErrFn func(collection string, call int) error
	PingErr   error

	// Call counters for assertions
	SearchCalls   []string
	BulkCalls     int
	ScansOpened   int
	ScansClosed   int
	LastBulkSizes []int
}

type storedDoc struct {
	id     string
	source map[string]any
}

// NewMockDocumentStore creates an empty store
func NewMockDocumentStore() *MockDocumentStore {
	return &MockDocumentStore{
		collections: make(map[string][]*storedDoc),
	}
}

// Put inserts or replaces a document
func (m *MockDocumentStore) Put(collection, id string, source map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.collections[collection] {
		if d.id == id {
			d.source = source
			return
		}
	}
	m.collections[collection] = append(m.collections[collection], &storedDoc{id: id, source: source})
}

// CreateCollection registers an empty collection
func (m *MockDocumentStore) CreateCollection(collection string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collections[collection]; !ok {
		m.collections[collection] = []*storedDoc{}
	}
}

// Source returns the stored source of a document, or nil
func (m *MockDocumentStore) Source(collection, id string) map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.collections[collection] {
		if d.id == id {
			return d.source
		}
	}
	return nil
}

// Count returns the number of documents in a collection
func (m *MockDocumentStore) Count(collection string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.collections[collection])
}

func (m *MockDocumentStore) Search(ctx context.Context, collection string, q driven.StoreQuery) ([]driven.Hit, error) {
	m.mu.Lock()
	m.SearchCalls = append(m.SearchCalls, collection)
	m.mu.Unlock()

	if m.SearchFn != nil {
		return m.SearchFn(collection, q)
	}
	if q.Mode.RequiresEmbedding() && len(q.Vector) == 0 {
		return nil, fmt.Errorf("%w: missing query vector", domain.ErrQuery)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	docs, ok := m.collections[collection]
	if !ok {
		return nil, fmt.Errorf("%w: no such index %q", domain.ErrQuery, collection)
	}

	var hits []driven.Hit
	for _, d := range docs {
		score, ok := scoreDoc(d.source, q)
		if !ok {
			continue
		}
		hits = append(hits, driven.Hit{ID: d.id, Score: score, Source: d.source})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if q.Size > 0 && len(hits) > q.Size {
		hits = hits[:q.Size]
	}
	return hits, nil
}

func scoreDoc(source map[string]any, q driven.StoreQuery) (float64, bool) {
	text := termScore(source, q.Text)
	if q.Mode == domain.SearchModeKeyword {
		return text, text > 0
	}

	if t, _ := source["Type"].(string); t == "Attachment" {
		return 0, false
	}
	vec := vectorOf(source[domain.EmbeddingField])
	if len(vec) == 0 {
		return 0, false
	}
	cos := cosine(q.Vector, vec)

	if q.Mode == domain.SearchModeVector {
		return cos + domain.CosineOffset, true
	}
	return q.Weights.Combine(text, cos), true
}

// termScore counts the query terms that occur anywhere in the document text
func termScore(source map[string]any, query string) float64 {
	haystack := strings.ToLower(flatten(source))
	var score float64
	for _, term := range strings.Fields(strings.ToLower(query)) {
		if strings.Contains(haystack, term) {
			score++
		}
	}
	return score
}

func flatten(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case map[string]any:
		var b strings.Builder
		for k, inner := range val {
			if k == domain.EmbeddingField {
				continue
			}
			b.WriteString(flatten(inner))
			b.WriteByte(' ')
		}
		return b.String()
	case []any:
		var b strings.Builder
		for _, inner := range val {
			b.WriteString(flatten(inner))
			b.WriteByte(' ')
		}
		return b.String()
	default:
		return ""
	}
}

func vectorOf(v any) []float32 {
	switch val := v.(type) {
	case []float32:
		return val
	case []float64:
		out := make([]float32, len(val))
		for i, f := range val {
			out[i] = float32(f)
		}
		return out
	case []any:
		out := make([]float32, 0, len(val))
		for _, f := range val {
			n, ok := f.(float64)
			if !ok {
				return nil
			}
			out = append(out, float32(n))
		}
		return out
	default:
		return nil
	}
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func (m *MockDocumentStore) Scan(ctx context.Context, collection string, pageSize int, ttl time.Duration) (driven.Cursor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ScanErr != nil {
		return nil, m.ScanErr
	}
	docs, ok := m.collections[collection]
	if !ok {
		return nil, fmt.Errorf("%w: no such index %q", domain.ErrQuery, collection)
	}

	snapshot := make([]driven.Hit, len(docs))
	for i, d := range docs {
		snapshot[i] = driven.Hit{ID: d.id, Score: 1, Source: d.source}
	}
	m.ScansOpened++
	return &mockCursor{store: m, collection: collection, hits: snapshot, pageSize: pageSize}, nil
}

type mockCursor struct {
	store      *MockDocumentStore
	collection string
	hits       []driven.Hit
	pageSize   int
	offset     int
	page       int
	closed     bool
}

func (c *mockCursor) Next(ctx context.Context) ([]driven.Hit, error) {
	c.page++
	if c.store.PageErrFn != nil {
		if err := c.store.PageErrFn(c.collection, c.page); err != nil {
			return nil, err
		}
	}
	if c.offset >= len(c.hits) {
		return nil, nil
	}
	end := min(c.offset+c.pageSize, len(c.hits))
	page := c.hits[c.offset:end]
	c.offset = end
	return page, nil
}

func (c *mockCursor) Close(ctx context.Context) error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.store.mu.Lock()
	c.store.ScansClosed++
	c.store.mu.Unlock()
	return nil
}

func (m *MockDocumentStore) Get(ctx context.Context, collection, id string) (*driven.Hit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.collections[collection] {
		if d.id == id {
			return &driven.Hit{ID: d.id, Score: 1, Source: d.source}, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockDocumentStore) BulkUpdate(ctx context.Context, collection string, updates []driven.PartialUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.BulkCalls++
	m.LastBulkSizes = append(m.LastBulkSizes, len(updates))
	if m.BulkErrFn != nil {
		if err := m.BulkErrFn(collection, m.BulkCalls); err != nil {
			return err
		}
	}

	byID := make(map[string]*storedDoc, len(m.collections[collection]))
	for _, d := range m.collections[collection] {
		byID[d.id] = d
	}
	for _, u := range updates {
		d, ok := byID[u.ID]
		if !ok {
			return fmt.Errorf("document %s/%s missing", collection, u.ID)
		}
		merged := make(map[string]any, len(d.source)+len(u.Fields))
		for k, v := range d.source {
			merged[k] = v
		}
		for k, v := range u.Fields {
			merged[k] = v
		}
		d.source = merged
	}
	return nil
}

func (m *MockDocumentStore) Ping(ctx context.Context) error {
	return m.PingErr
}
