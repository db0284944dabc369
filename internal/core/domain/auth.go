package domain

import "time"

// Role is the permission level carried in an access token
type Role string

const (
	// RoleOperator may trigger and inspect reindex runs
	RoleOperator Role = "operator"
	// RoleReader may only query
	RoleReader Role = "reader"
)

// DefaultTokenTTL is the lifetime of issued access tokens
const DefaultTokenTTL = 12 * time.Hour

// AuthContext contains the authenticated caller for request context
type AuthContext struct {
	Subject string `json:"subject"`
	Role    Role   `json:"role"`
}

// IsOperator checks if the caller may run operator actions
func (a *AuthContext) IsOperator() bool {
	return a.Role == RoleOperator
}

// TokenRequest exchanges an API key for an access token
type TokenRequest struct {
	APIKey  string `json:"apiKey" example:"op-key"`
	Subject string `json:"subject,omitempty" example:"ci-pipeline"`
}

// TokenResponse is returned after a successful exchange
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenClaims represents the JWT token payload
type TokenClaims struct {
	Subject   string `json:"sub"`
	Role      Role   `json:"role"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// IsExpired checks the expiry against now
func (c *TokenClaims) IsExpired() bool {
	return time.Now().Unix() >= c.ExpiresAt
}
