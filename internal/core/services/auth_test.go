package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ragsense/ragsense/internal/core/domain"
	"github.com/ragsense/ragsense/internal/core/ports/driven/mocks"
)

const testOperatorKey = "op-key-123"

func newTestAuthService() (*mocks.MockAuthAdapter, *authService) {
	authAdapter := mocks.NewMockAuthAdapter()
	svc := NewAuthService(authAdapter, testOperatorKey, time.Hour).(*authService)
	return authAdapter, svc
}

func TestAuthService_IssueToken(t *testing.T) {
	_, svc := newTestAuthService()

	tests := []struct {
		name    string
		req     domain.TokenRequest
		wantErr error
	}{
		{
			name: "valid key",
			req:  domain.TokenRequest{APIKey: testOperatorKey},
		},
		{
			name: "valid key with subject",
			req:  domain.TokenRequest{APIKey: testOperatorKey, Subject: "ci-pipeline"},
		},
		{
			name:    "wrong key",
			req:     domain.TokenRequest{APIKey: "nope"},
			wantErr: domain.ErrInvalidCredentials,
		},
		{
			name:    "empty key",
			req:     domain.TokenRequest{},
			wantErr: domain.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.IssueToken(context.Background(), tt.req)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.Token == "" {
				t.Error("expected token to be set")
			}
			if resp.ExpiresAt.Before(time.Now().Add(59 * time.Minute)) {
				t.Errorf("expected expiry about an hour ahead, got %v", resp.ExpiresAt)
			}
		})
	}
}

func TestAuthService_IssueToken_NoKeyConfigured(t *testing.T) {
	svc := NewAuthService(mocks.NewMockAuthAdapter(), "", time.Hour)

	_, err := svc.IssueToken(context.Background(), domain.TokenRequest{APIKey: "anything"})
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_ValidateToken(t *testing.T) {
	_, svc := newTestAuthService()

	resp, err := svc.IssueToken(context.Background(), domain.TokenRequest{APIKey: testOperatorKey, Subject: "ci"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	authCtx, err := svc.ValidateToken(context.Background(), resp.Token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if authCtx.Subject != "ci" {
		t.Errorf("expected subject ci, got %s", authCtx.Subject)
	}
	if !authCtx.IsOperator() {
		t.Error("expected operator role")
	}
}

func TestAuthService_ValidateToken_DefaultSubject(t *testing.T) {
	_, svc := newTestAuthService()

	resp, _ := svc.IssueToken(context.Background(), domain.TokenRequest{APIKey: testOperatorKey})
	authCtx, err := svc.ValidateToken(context.Background(), resp.Token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if authCtx.Subject != defaultSubject {
		t.Errorf("expected subject %s, got %s", defaultSubject, authCtx.Subject)
	}
}

func TestAuthService_ValidateToken_Invalid(t *testing.T) {
	_, svc := newTestAuthService()

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateToken(context.Background(), tt.token)
			if !errors.Is(err, domain.ErrTokenInvalid) {
				t.Errorf("expected ErrTokenInvalid, got %v", err)
			}
		})
	}
}

func TestAuthService_ValidateToken_Expired(t *testing.T) {
	authAdapter, svc := newTestAuthService()

	token, _ := authAdapter.GenerateToken(&domain.TokenClaims{
		Subject:   "ci",
		Role:      domain.RoleOperator,
		IssuedAt:  time.Now().Add(-2 * time.Hour).Unix(),
		ExpiresAt: time.Now().Add(-time.Hour).Unix(),
	})

	_, err := svc.ValidateToken(context.Background(), token)
	if !errors.Is(err, domain.ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestAuthService_MintToken(t *testing.T) {
	_, svc := newTestAuthService()

	resp, err := svc.MintToken(context.Background(), "dashboard", domain.RoleReader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	authCtx, err := svc.ValidateToken(context.Background(), resp.Token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if authCtx.IsOperator() {
		t.Error("expected reader role")
	}

	if _, err := svc.MintToken(context.Background(), "", domain.RoleReader); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty subject, got %v", err)
	}
	if _, err := svc.MintToken(context.Background(), "x", domain.Role("admin")); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for unknown role, got %v", err)
	}
}
