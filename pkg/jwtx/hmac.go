package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the minimum HMAC key size we accept (256 bits).
const MinSecretLength = 32

// HMACSigner signs session tokens with HS256.
type HMACSigner struct {
	secret []byte
}

// NewHMACSigner returns a signer for the shared secret.
func NewHMACSigner(secret string) (*HMACSigner, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	return &HMACSigner{secret: []byte(secret)}, nil
}

func (s *HMACSigner) Alg() string { return jwt.SigningMethodHS256.Alg() }

// Sign turns claims into a compact HS256 JWT.
func (s *HMACSigner) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

// HMACVerifier validates HS256 session tokens. Any other algorithm, including
// "none", is rejected before the signature is looked at.
type HMACVerifier struct {
	secret []byte
	issuer string
	leeway time.Duration
	now    func() time.Time
}

// NewHMACVerifier creates a verifier. An empty issuer means "don't care".
func NewHMACVerifier(secret, issuer string) (*HMACVerifier, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	return &HMACVerifier{
		secret: []byte(secret),
		issuer: issuer,
		leeway: 5 * time.Second,
		now:    time.Now,
	}, nil
}

// WithClock overrides the verification clock (tests).
func (v *HMACVerifier) WithClock(now func() time.Time) *HMACVerifier {
	v.now = now
	return v
}

// Verify validates the JWT string and returns its parsed Claims.
func (v *HMACVerifier) Verify(tokenStr string) (Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.NewParser(opts...).ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return Claims{}, mapParseError(token, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Claims{}, ErrInvalidClaim
	}
	if claims.Subject == "" {
		return Claims{}, ErrInvalidClaim
	}

	return *claims, nil
}

func mapParseError(token *jwt.Token, err error) error {
	if token != nil && token.Method != nil && token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
		return fmt.Errorf("%w: %w", ErrAlgMismatch, err)
	}

	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %w", ErrInvalidSig, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", ErrExpired, err)
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return fmt.Errorf("%w: %w", ErrNotYetValid, err)
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return fmt.Errorf("%w: %w", ErrIssuer, err)
	default:
		return fmt.Errorf("%w: %w", ErrInvalidClaim, err)
	}
}
