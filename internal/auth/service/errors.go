package service

import "errors"

var (
	// ErrInvalidCredentials is the single outcome of every failed credential
	// sign-in: unknown email, missing password hash, wrong password and
	// malformed input all collapse into it.
	ErrInvalidCredentials = errors.New("invalid_credentials")

	ErrEmailTaken       = errors.New("email_taken")
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrForbidden        = errors.New("forbidden")
	ErrUserNotFound     = errors.New("user_not_found")
	ErrProviderDisabled = errors.New("provider_disabled")
	ErrOAuthExchange    = errors.New("oauth_exchange_failed")
	ErrTokenExpired     = errors.New("token_expired")
	ErrTokenNotFound    = errors.New("token_not_found")
	ErrInvalidRole      = errors.New("invalid_role")

	// ErrOAuthAccountNotLinked means the provider's email belongs to an
	// existing user but the provider did not verify it.
	ErrOAuthAccountNotLinked = errors.New("oauth_account_not_linked")
)
