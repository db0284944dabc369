package services

import (
	"context"
	"time"

	"github.com/ragsense/ragsense/internal/core/domain"
	"github.com/ragsense/ragsense/internal/core/ports/driven"
	"github.com/ragsense/ragsense/internal/core/ports/driving"
)

// Ensure authService implements AuthService
var _ driving.AuthService = (*authService)(nil)

// defaultSubject names tokens issued without an explicit subject
const defaultSubject = "operator"

// authService implements the AuthService interface
type authService struct {
	authAdapter driven.AuthAdapter
	keyHash     string
	tokenTTL    time.Duration
}

// NewAuthService creates a new AuthService.
// keyHash is the hash of the operator API key; when empty no key is accepted.
func NewAuthService(authAdapter driven.AuthAdapter, keyHash string, tokenTTL time.Duration) driving.AuthService {
	if tokenTTL <= 0 {
		tokenTTL = domain.DefaultTokenTTL
	}
	return &authService{
		authAdapter: authAdapter,
		keyHash:     keyHash,
		tokenTTL:    tokenTTL,
	}
}

// IssueToken exchanges the operator API key for an operator token
func (s *authService) IssueToken(ctx context.Context, req domain.TokenRequest) (*domain.TokenResponse, error) {
	if req.APIKey == "" {
		return nil, domain.ErrInvalidInput
	}
	if s.keyHash == "" || !s.authAdapter.VerifyKey(req.APIKey, s.keyHash) {
		return nil, domain.ErrInvalidCredentials
	}

	subject := req.Subject
	if subject == "" {
		subject = defaultSubject
	}
	return s.MintToken(ctx, subject, domain.RoleOperator)
}

// MintToken signs a token without a key check
func (s *authService) MintToken(_ context.Context, subject string, role domain.Role) (*domain.TokenResponse, error) {
	if subject == "" || (role != domain.RoleOperator && role != domain.RoleReader) {
		return nil, domain.ErrInvalidInput
	}

	now := time.Now()
	expiresAt := now.Add(s.tokenTTL)
	token, err := s.authAdapter.GenerateToken(&domain.TokenClaims{
		Subject:   subject,
		Role:      role,
		IssuedAt:  now.Unix(),
		ExpiresAt: expiresAt.Unix(),
	})
	if err != nil {
		return nil, err
	}

	return &domain.TokenResponse{Token: token, ExpiresAt: expiresAt}, nil
}

// ValidateToken validates a token and returns the auth context
func (s *authService) ValidateToken(_ context.Context, token string) (*domain.AuthContext, error) {
	if token == "" {
		return nil, domain.ErrTokenInvalid
	}

	claims, err := s.authAdapter.ParseToken(token)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}

	if claims.IsExpired() {
		return nil, domain.ErrTokenExpired
	}

	return &domain.AuthContext{
		Subject: claims.Subject,
		Role:    claims.Role,
	}, nil
}
