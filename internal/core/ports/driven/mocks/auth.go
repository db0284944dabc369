package mocks

import (
	"fmt"
	"sync"

	"github.com/ragsense/ragsense/internal/core/domain"
	"github.com/ragsense/ragsense/internal/core/ports/driven"
)

var _ driven.AuthAdapter = (*MockAuthAdapter)(nil)

// MockAuthAdapter treats the operator key as its own hash and hands out
// opaque numbered tokens backed by an in-memory claims table
type MockAuthAdapter struct {
	mu     sync.Mutex
	issued map[string]domain.TokenClaims
}

func NewMockAuthAdapter() *MockAuthAdapter {
	return &MockAuthAdapter{issued: make(map[string]domain.TokenClaims)}
}

func (m *MockAuthAdapter) HashKey(key string) (string, error) {
	return key, nil
}

func (m *MockAuthAdapter) VerifyKey(key, hash string) bool {
	return hash != "" && key == hash
}

func (m *MockAuthAdapter) GenerateToken(claims *domain.TokenClaims) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	token := fmt.Sprintf("mock-token-%d", len(m.issued)+1)
	m.issued[token] = *claims
	return token, nil
}

func (m *MockAuthAdapter) ParseToken(token string) (*domain.TokenClaims, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	claims, ok := m.issued[token]
	if !ok {
		return nil, domain.ErrTokenInvalid
	}
	return &claims, nil
}
