package jwtx

import (
	"errors"
)

// Signer is our interface for anything that can sign session JWTs.
type Signer interface {
	Alg() string
	Sign(Claims) (string, error)
}

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrAlgMismatch = errors.New("jwtx: algorithm mismatch")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")
	ErrWeakSecret  = errors.New("jwtx: secret must be at least 32 bytes")

	ErrIssuer       = errors.New("jwtx: issuer mismatch")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrNotYetValid  = errors.New("jwtx: token not yet valid")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
)
