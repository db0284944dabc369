package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/ragsense/ragsense/internal/core/domain"
	"github.com/ragsense/ragsense/internal/core/ports/driven"
)

var _ driven.AuthAdapter = (*Adapter)(nil)

const (
	issuer   = "ragsense"
	audience = "ragsense-api"
)

type jwtClaims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Adapter hashes operator API keys with bcrypt and signs access tokens as
// HS256 JWTs scoped to the ragsense API
type Adapter struct {
	jwtSecret  []byte
	bcryptCost int
	parser     *jwt.Parser
}

func NewAdapter(jwtSecret string) *Adapter {
	return NewAdapterWithCost(jwtSecret, bcrypt.DefaultCost)
}

// NewAdapterWithCost is NewAdapter with an explicit bcrypt cost; tests use
// bcrypt.MinCost
func NewAdapterWithCost(jwtSecret string, bcryptCost int) *Adapter {
	return &Adapter{
		jwtSecret:  []byte(jwtSecret),
		bcryptCost: bcryptCost,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(issuer),
			jwt.WithAudience(audience),
			jwt.WithExpirationRequired(),
		),
	}
}

// keyDigest maps a key of any length into bcrypt's 72-byte input limit
func keyDigest(key string) []byte {
	sum := sha256.Sum256([]byte(key))
	return []byte(hex.EncodeToString(sum[:]))
}

func (a *Adapter) HashKey(key string) (string, error) {
	if key == "" {
		return "", errors.New("key is required")
	}
	hash, err := bcrypt.GenerateFromPassword(keyDigest(key), a.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash key: %w", err)
	}
	return string(hash), nil
}

func (a *Adapter) VerifyKey(key, hash string) bool {
	if key == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), keyDigest(key)) == nil
}

func (a *Adapter) GenerateToken(claims *domain.TokenClaims) (string, error) {
	if len(a.jwtSecret) == 0 {
		return "", errors.New("jwt secret is not configured")
	}
	if !knownRole(claims.Role) {
		return "", fmt.Errorf("unknown role %q", claims.Role)
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims{
		Role: claims.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			Subject:   claims.Subject,
			IssuedAt:  jwt.NewNumericDate(time.Unix(claims.IssuedAt, 0)),
			ExpiresAt: jwt.NewNumericDate(time.Unix(claims.ExpiresAt, 0)),
		},
	}).SignedString(a.jwtSecret)
}

// ParseToken verifies signature, issuer, audience and expiry, and rejects
// roles this server does not know
func (a *Adapter) ParseToken(token string) (*domain.TokenClaims, error) {
	var jc jwtClaims
	if _, err := a.parser.ParseWithClaims(token, &jc, func(*jwt.Token) (any, error) {
		return a.jwtSecret, nil
	}); err != nil {
		return nil, err
	}
	if !knownRole(jc.Role) {
		return nil, fmt.Errorf("token carries unknown role %q", jc.Role)
	}

	out := &domain.TokenClaims{Subject: jc.Subject, Role: jc.Role}
	if jc.IssuedAt != nil {
		out.IssuedAt = jc.IssuedAt.Unix()
	}
	out.ExpiresAt = jc.ExpiresAt.Unix()
	return out, nil
}

func knownRole(r domain.Role) bool {
	return r == domain.RoleOperator || r == domain.RoleReader
}
