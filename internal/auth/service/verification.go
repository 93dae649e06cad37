package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/shopauth/internal/auth/domain"
	"github.com/aussiebroadwan/shopauth/internal/auth/store"
	"github.com/aussiebroadwan/shopauth/pkg/cryptox"
	"github.com/aussiebroadwan/shopauth/pkg/slogx"
)

// DefaultVerificationTTL is how long an issued verification token stays
// redeemable.
const DefaultVerificationTTL = 24 * time.Hour

// TokenSender delivers a verification token to whoever controls identifier.
type TokenSender interface {
	SendVerificationToken(ctx context.Context, identifier, token string, expires time.Time) error
}

// LogTokenSender is the development sender: the token only reaches the
// debug log.
type LogTokenSender struct{}

func (LogTokenSender) SendVerificationToken(ctx context.Context, identifier, token string, expires time.Time) error {
	l := slogx.FromContext(ctx)
	l.Info("verification token issued", slog.String("identifier", identifier), slog.Time("expires", expires))
	l.Debug("verification token value", slog.String("identifier", identifier), slog.String("token", token))
	return nil
}

type verificationInput struct {
	Identifier string `json:"identifier" validate:"required,email"`
}

type VerificationService struct {
	Store  store.Store
	Sender TokenSender
	TTL    time.Duration
	Now    func() time.Time
}

func (s *VerificationService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Issue creates a single-use token for identifier and hands it to the
// sender. Only the fingerprint is stored.
func (s *VerificationService) Issue(ctx context.Context, identifier string) (time.Time, error) {
	in := verificationInput{Identifier: strings.TrimSpace(identifier)}
	if err := validateStruct(in); err != nil {
		return time.Time{}, err
	}

	ttl := s.TTL
	if ttl <= 0 {
		ttl = DefaultVerificationTTL
	}

	raw, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return time.Time{}, err
	}

	vt := domain.VerificationToken{
		Identifier: domain.NormalizeEmail(in.Identifier),
		Token:      cryptox.FingerprintToken(raw),
		Expires:    s.now().Add(ttl),
	}
	if err := s.Store.VerificationTokens().CreateVerificationToken(ctx, vt); err != nil {
		return time.Time{}, err
	}

	if err := s.Sender.SendVerificationToken(ctx, vt.Identifier, raw, vt.Expires); err != nil {
		return time.Time{}, err
	}
	return vt.Expires, nil
}

// Redeem consumes the token. It succeeds at most once per token, however
// many callers race for it.
func (s *VerificationService) Redeem(ctx context.Context, identifier, token string) error {
	if strings.TrimSpace(identifier) == "" || token == "" {
		return ErrTokenNotFound
	}

	vt, err := s.Store.VerificationTokens().UseVerificationToken(ctx,
		domain.NormalizeEmail(identifier), cryptox.FingerprintToken(token))
	if errors.Is(err, store.ErrNotFound) {
		return ErrTokenNotFound
	}
	if err != nil {
		return err
	}

	if vt.Expired(s.now()) {
		return ErrTokenExpired
	}
	return nil
}
