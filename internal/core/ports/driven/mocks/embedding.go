package mocks

import (
	"context"
	"encoding/binary"
	"hash/fnv"
	"sync"

	"github.com/ragsense/ragsense/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*MockEmbeddingService)(nil)

// errEmbeddingTimeout is what a scripted failure returns
var errEmbeddingTimeout = context.DeadlineExceeded

// MockEmbeddingService derives a stable pseudo-vector from each text, so equal
// texts always embed equally. SetVector pins exact vectors for ranking tests.
type MockEmbeddingService struct {
	mu       sync.Mutex
	dims     int
	model    string
	failNext bool
	pinned   map[string][]float32

	// FailOnCall makes the n-th Embed call fail, counting from 1
	FailOnCall int

	EmbedCalls [][]string
	QueryCalls []string
}

func NewMockEmbeddingService() *MockEmbeddingService {
	return &MockEmbeddingService{
		dims:   8,
		model:  "mock-embedding-model",
		pinned: map[string][]float32{},
	}
}

func (m *MockEmbeddingService) Embed(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.EmbedCalls = append(m.EmbedCalls, append([]string(nil), texts...))
	if m.shouldFail(len(m.EmbedCalls)) {
		return nil, errEmbeddingTimeout
	}

	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		out = append(out, m.vectorFor(text))
	}
	return out, nil
}

func (m *MockEmbeddingService) EmbedQuery(_ context.Context, query string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.QueryCalls = append(m.QueryCalls, query)
	if m.shouldFail(0) {
		return nil, errEmbeddingTimeout
	}
	return m.vectorFor(query), nil
}

// shouldFail consumes a SetFailNext, then checks FailOnCall against call.
// Callers hold mu.
func (m *MockEmbeddingService) shouldFail(call int) bool {
	if m.failNext {
		m.failNext = false
		return true
	}
	return call > 0 && call == m.FailOnCall
}

func (m *MockEmbeddingService) vectorFor(text string) []float32 {
	if v, ok := m.pinned[text]; ok {
		return v
	}

	vec := make([]float32, m.dims)
	var idx [4]byte
	for i := range vec {
		h := fnv.New64a()
		h.Write([]byte(text))
		binary.BigEndian.PutUint32(idx[:], uint32(i))
		h.Write(idx[:])
		vec[i] = float32(h.Sum64()%1000) / 1000
	}
	return vec
}

func (m *MockEmbeddingService) Dimensions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dims
}

func (m *MockEmbeddingService) Model() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.model
}

func (m *MockEmbeddingService) HealthCheck(context.Context) error { return nil }

func (m *MockEmbeddingService) Close() error { return nil }

// SetFailNext makes the next Embed or EmbedQuery call fail
func (m *MockEmbeddingService) SetFailNext(fail bool) {
	m.mu.Lock()
	m.failNext = fail
	m.mu.Unlock()
}

func (m *MockEmbeddingService) SetDimensions(dims int) {
	m.mu.Lock()
	m.dims = dims
	m.mu.Unlock()
}

func (m *MockEmbeddingService) SetModel(model string) {
	m.mu.Lock()
	m.model = model
	m.mu.Unlock()
}

// SetVector pins the vector returned for text
func (m *MockEmbeddingService) SetVector(text string, vec []float32) {
	m.mu.Lock()
	m.pinned[text] = vec
	m.mu.Unlock()
}

// Calls counts Embed calls
func (m *MockEmbeddingService) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.EmbedCalls)
}
