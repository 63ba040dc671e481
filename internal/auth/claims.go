package auth

import "github.com/golang-jwt/jwt/v5"

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims are the only supported JWT claims shape for this service.
// The registered JWT ID doubles as the session key for audit tracking:
// every request carrying the same access token belongs to one session.
type Claims struct {
	jwt.RegisteredClaims

	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	TokenType TokenType `json:"token_type"`
}

// SessionKey returns the stable per-login session identifier.
func (c Claims) SessionKey() string {
	return c.RegisteredClaims.ID
}
