package driving

import (
	"context"

	"github.com/ragsense/ragsense/internal/core/domain"
)

// AuthService issues and validates operator access tokens
type AuthService interface {
	// IssueToken exchanges the operator API key for a signed token
	IssueToken(ctx context.Context, req domain.TokenRequest) (*domain.TokenResponse, error)

	// MintToken signs a token for a subject without a key check (CLI use)
	MintToken(ctx context.Context, subject string, role domain.Role) (*domain.TokenResponse, error)

	// ValidateToken validates a token and returns the auth context
	ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error)
}
