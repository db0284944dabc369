package driven

import "github.com/ragsense/ragsense/internal/core/domain"

// AuthAdapter handles authentication cryptographic operations.
// Operator keys are stored only as hashes.
type AuthAdapter interface {
	// Key operations
	HashKey(key string) (string, error)
	VerifyKey(key, hash string) bool

	// Token operations
	GenerateToken(claims *domain.TokenClaims) (string, error)
	ParseToken(token string) (*domain.TokenClaims, error)
}
