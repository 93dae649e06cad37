package domain

import "time"

// Account links a user to an identity at an external provider. The
// provider-issued tokens are kept as returned and are all optional.
type Account struct {
	ID                string
	UserID            string
	Type              string // "oauth" or "oidc"
	Provider          string
	ProviderAccountID string
	RefreshToken      *string
	AccessToken       *string
	ExpiresAt         *int64 // unix seconds, as the provider reports it
	TokenType         *string
	Scope             *string
	IDToken           *string
	SessionState      *string
	CreatedAt         time.Time
}
