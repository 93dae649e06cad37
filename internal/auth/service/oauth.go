package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/shopauth/internal/auth/domain"
	"github.com/aussiebroadwan/shopauth/internal/auth/store"
	"github.com/aussiebroadwan/shopauth/pkg/idx"
	"github.com/aussiebroadwan/shopauth/pkg/slogx"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// OAuthProfile is the subset of the provider's userinfo document we use.
type OAuthProfile struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

// OAuthResolver authenticates through an external OAuth2/OIDC provider and
// maps the provider identity onto a local user.
type OAuthResolver struct {
	Provider    string
	DisplayName string
	Config      *oauth2.Config
	UserInfoURL string
	Store       store.Store
	Now         func() time.Time
}

// NewGoogleResolver wires the Google endpoints. redirectURL is the absolute
// URL of the provider callback route.
func NewGoogleResolver(clientID, clientSecret, redirectURL string, st store.Store) *OAuthResolver {
	return &OAuthResolver{
		Provider:    ProviderGoogle,
		DisplayName: "Google",
		Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		UserInfoURL: googleUserInfoURL,
		Store:       st,
	}
}

func (r *OAuthResolver) Name() string { return r.Provider }

func (r *OAuthResolver) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// AuthCodeURL is where the browser is sent to start the flow.
func (r *OAuthResolver) AuthCodeURL(state string) string {
	return r.Config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades an authorization code for the local identity, creating
// the user and the account link on first sign-in.
func (r *OAuthResolver) Exchange(ctx context.Context, code string) (domain.Identity, error) {
	if strings.TrimSpace(code) == "" {
		return domain.Identity{}, fmt.Errorf("%w: missing code", ErrOAuthExchange)
	}

	tok, err := r.Config.Exchange(ctx, code)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: token exchange: %w", ErrOAuthExchange, err)
	}

	profile, err := r.fetchProfile(ctx, tok)
	if err != nil {
		return domain.Identity{}, err
	}

	return r.Resolve(ctx, profile, tok)
}

func (r *OAuthResolver) fetchProfile(ctx context.Context, tok *oauth2.Token) (OAuthProfile, error) {
	client := r.Config.Client(ctx, tok)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.UserInfoURL, nil)
	if err != nil {
		return OAuthProfile{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return OAuthProfile{}, fmt.Errorf("%w: userinfo: %w", ErrOAuthExchange, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return OAuthProfile{}, fmt.Errorf("%w: userinfo returned status %d", ErrOAuthExchange, resp.StatusCode)
	}

	var p OAuthProfile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return OAuthProfile{}, fmt.Errorf("%w: decode userinfo: %w", ErrOAuthExchange, err)
	}
	if p.Subject == "" {
		return OAuthProfile{}, fmt.Errorf("%w: userinfo without subject", ErrOAuthExchange)
	}
	return p, nil
}

// Resolve maps a provider profile onto a local user.
//
// User creation and the account link are separate writes. If the link
// fails after the user was created, the next attempt finds the user by
// email and links it then. An unverified email may only link to such an
// orphan: a user with no password and no linked accounts.
func (r *OAuthResolver) Resolve(ctx context.Context, p OAuthProfile, tok *oauth2.Token) (domain.Identity, error) {
	l := slogx.FromContext(ctx).With(slog.String("provider", r.Provider))

	user, err := r.Store.Users().GetUserByAccount(ctx, r.Provider, p.Subject)
	if err == nil {
		return identityOf(user, false), nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.Identity{}, err
	}

	email := strings.TrimSpace(p.Email)
	if email == "" {
		return domain.Identity{}, fmt.Errorf("%w: provider returned no email", ErrOAuthExchange)
	}

	isNew := false
	user, err = r.Store.Users().GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, store.ErrNotFound):
		user, err = r.createUser(ctx, email, p.Name)
		if err != nil {
			return domain.Identity{}, err
		}
		isNew = true

	case err != nil:
		return domain.Identity{}, err

	case !p.EmailVerified:
		orphan, err := r.isOrphan(ctx, user)
		if err != nil {
			return domain.Identity{}, err
		}
		if !orphan {
			// An unverified address must not take over an existing account.
			l.Warn("refusing to link unverified email", slog.String("user_id", user.ID))
			return domain.Identity{}, ErrOAuthAccountNotLinked
		}
		l.Info("relinking orphaned user", slog.String("user_id", user.ID))
	}

	if err := r.Store.Accounts().LinkAccount(ctx, r.accountFor(user.ID, p.Subject, tok)); err != nil &&
		!errors.Is(err, store.ErrAlreadyExists) {
		return domain.Identity{}, err
	}

	l.Info("provider account linked", slog.String("user_id", user.ID), slog.Bool("new_user", isNew))
	return identityOf(user, isNew), nil
}

func (r *OAuthResolver) createUser(ctx context.Context, email, name string) (domain.User, error) {
	if strings.TrimSpace(name) == "" {
		name, _, _ = strings.Cut(email, "@")
	}

	now := r.now().UTC()
	user := domain.User{
		ID:        idx.NewAt(now).String(),
		Email:     email,
		Name:      strings.TrimSpace(name),
		Role:      domain.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := r.Store.Users().CreateUser(ctx, user)
	if errors.Is(err, store.ErrAlreadyExists) {
		// Lost a race with a concurrent first sign-in.
		return r.Store.Users().GetUserByEmail(ctx, email)
	}
	return user, err
}

// isOrphan reports whether u was left behind by a first sign-in whose
// account link never landed.
func (r *OAuthResolver) isOrphan(ctx context.Context, u domain.User) (bool, error) {
	if u.HasPassword() {
		return false, nil
	}
	accounts, err := r.Store.Accounts().ListAccountsByUser(ctx, u.ID)
	if err != nil {
		return false, err
	}
	return len(accounts) == 0, nil
}

func (r *OAuthResolver) accountFor(userID, subject string, tok *oauth2.Token) domain.Account {
	a := domain.Account{
		ID:                idx.New().String(),
		UserID:            userID,
		Type:              "oidc",
		Provider:          r.Provider,
		ProviderAccountID: subject,
		CreatedAt:         r.now().UTC(),
	}
	if tok == nil {
		return a
	}

	a.AccessToken = optional(tok.AccessToken)
	a.RefreshToken = optional(tok.RefreshToken)
	a.TokenType = optional(tok.TokenType)
	if !tok.Expiry.IsZero() {
		exp := tok.Expiry.Unix()
		a.ExpiresAt = &exp
	}
	if s, ok := tok.Extra("scope").(string); ok {
		a.Scope = optional(s)
	}
	if s, ok := tok.Extra("id_token").(string); ok {
		a.IDToken = optional(s)
	}
	return a
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
