package mocks

import (
	"context"
	"sync"

	"github.com/ragsense/ragsense/internal/core/ports/driven"
)

var _ driven.LLMService = (*MockLLMService)(nil)

// MockLLMService records prompts and returns a canned reply
type MockLLMService struct {
	mu sync.Mutex

	Reply string
	// CompleteFn overrides Reply when set
	CompleteFn func(system, prompt string) (string, error)
	PingErr    error

	Calls      int
	LastSystem string
	LastPrompt string
}

// NewMockLLMService creates a mock that answers every prompt with reply
func NewMockLLMService(reply string) *MockLLMService {
	return &MockLLMService{Reply: reply}
}

func (m *MockLLMService) Complete(ctx context.Context, system, prompt string) (string, error) {
	m.mu.Lock()
	m.Calls++
	m.LastSystem = system
	m.LastPrompt = prompt
	m.mu.Unlock()

	if m.CompleteFn != nil {
		return m.CompleteFn(system, prompt)
	}
	return m.Reply, nil
}

func (m *MockLLMService) Model() string {
	return "mock-llm"
}

func (m *MockLLMService) Ping(ctx context.Context) error {
	return m.PingErr
}

func (m *MockLLMService) Close() error {
	return nil
}
