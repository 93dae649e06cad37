package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultSessionTTL matches the browser session lifetime of the storefront admin.
const DefaultSessionTTL = 7 * 24 * time.Hour

// Claims are the session-token claims. Role is carried in the token so the
// gatekeeper can authorise without a store round trip.
type Claims struct {
	jwt.RegisteredClaims

	// Role is the user's role at sign-in ("USER" or "ADMIN").
	Role string `json:"role,omitempty"`

	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`

	// Provider records which strategy authenticated the session.
	Provider string `json:"provider,omitempty"`
}

// NewSessionClaims builds minimally-correct session claims.
func NewSessionClaims(subject, role, email, name, provider, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Role:     role,
		Email:    email,
		Name:     name,
		Provider: provider,
	}
}

// Renew returns a copy of c with fresh iat/nbf/exp/jti. Every custom claim,
// the role in particular, is carried over unchanged.
func (c Claims) Renew(ttl time.Duration, now time.Time) Claims {
	out := c
	out.IssuedAt = jwt.NewNumericDate(now)
	out.NotBefore = jwt.NewNumericDate(now)
	out.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	out.ID = NewJTI()
	return out
}

// ExpiresAtTime returns exp or the zero time.
func (c Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}
