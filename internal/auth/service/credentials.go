package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/aussiebroadwan/shopauth/internal/auth/domain"
	"github.com/aussiebroadwan/shopauth/internal/auth/store"
	"github.com/aussiebroadwan/shopauth/pkg/cryptox"
	"github.com/aussiebroadwan/shopauth/pkg/slogx"
)

// Provider identifiers.
const (
	ProviderCredentials = "credentials"
	ProviderGoogle      = "google"
)

// Resolver is one authentication strategy.
type Resolver interface {
	Name() string
}

type credentialsInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// dummyHash is verified against when there is no digest to check, so an
// unknown email costs the same as a wrong password.
var dummyHash = sync.OnceValue(func() string {
	h, err := cryptox.HashPassword("shopauth-timing-equaliser")
	if err != nil {
		panic(err)
	}
	return h
})

// CredentialsResolver authenticates email and password pairs.
type CredentialsResolver struct {
	Store store.Store

	// Params are the hashing parameters new digests are created with. Stored
	// digests with other parameters are upgraded on the next good sign-in.
	Params cryptox.Params
}

func (r *CredentialsResolver) Name() string { return ProviderCredentials }

func (r *CredentialsResolver) params() cryptox.Params {
	if r.Params == (cryptox.Params{}) {
		return cryptox.DefaultParams
	}
	return r.Params
}

// Authorize returns the identity for email and password. Every credential
// failure is ErrInvalidCredentials; only store failures surface as other
// errors.
func (r *CredentialsResolver) Authorize(ctx context.Context, email, password string) (domain.Identity, error) {
	l := slogx.FromContext(ctx)

	in := credentialsInput{Email: strings.TrimSpace(email), Password: password}
	if err := validateStruct(in); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			l.Debug("credential sign-in rejected", slog.String("reason", "malformed input"))
			return domain.Identity{}, ErrInvalidCredentials
		}
		return domain.Identity{}, err
	}

	user, err := r.Store.Users().GetUserByEmail(ctx, domain.NormalizeEmail(in.Email))
	if errors.Is(err, store.ErrNotFound) {
		cryptox.VerifyPassword(password, dummyHash())
		l.Debug("credential sign-in rejected", slog.String("reason", "unknown email"))
		return domain.Identity{}, ErrInvalidCredentials
	}
	if err != nil {
		return domain.Identity{}, err
	}

	if !user.HasPassword() {
		cryptox.VerifyPassword(password, dummyHash())
		l.Debug("credential sign-in rejected",
			slog.String("reason", "no password"), slog.String("user_id", user.ID))
		return domain.Identity{}, ErrInvalidCredentials
	}

	if !cryptox.VerifyPassword(password, *user.PasswordHash) {
		l.Info("credential sign-in rejected",
			slog.String("reason", "wrong password"), slog.String("user_id", user.ID))
		return domain.Identity{}, ErrInvalidCredentials
	}

	r.maybeRehash(ctx, user, password)

	return identityOf(user, false), nil
}

// maybeRehash upgrades a digest created with older parameters. Failures are
// logged and otherwise ignored: the sign-in already succeeded.
func (r *CredentialsResolver) maybeRehash(ctx context.Context, user domain.User, password string) {
	if !cryptox.NeedsRehash(*user.PasswordHash, r.params()) {
		return
	}

	l := slogx.FromContext(ctx)
	hash, err := cryptox.HashPasswordWithParams(password, r.params())
	if err != nil {
		l.Warn("password rehash failed", slog.String("user_id", user.ID), slog.Any("error", err))
		return
	}
	if _, err := r.Store.Users().UpdateUser(ctx, user.ID, store.UserUpdate{PasswordHash: &hash}); err != nil {
		l.Warn("password rehash not stored", slog.String("user_id", user.ID), slog.Any("error", err))
		return
	}
	l.Info("password digest upgraded", slog.String("user_id", user.ID))
}

func identityOf(u domain.User, isNew bool) domain.Identity {
	return domain.Identity{
		UserID:    u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		IsNewUser: isNew,
	}
}
