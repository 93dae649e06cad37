package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/aussiebroadwan/shopauth/internal/auth/domain"
	"github.com/aussiebroadwan/shopauth/internal/auth/store"
	"github.com/aussiebroadwan/shopauth/pkg/cryptox"
	"github.com/aussiebroadwan/shopauth/pkg/idx"
	"github.com/aussiebroadwan/shopauth/pkg/jwtx"
	"github.com/aussiebroadwan/shopauth/pkg/slogx"
)

// Strategy selects how sessions are represented.
type Strategy string

const (
	// StrategyJWT issues self-contained signed tokens. Nothing is stored.
	StrategyJWT Strategy = "jwt"
	// StrategyDatabase issues opaque tokens backed by a sessions row.
	StrategyDatabase Strategy = "database"
)

func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyJWT, StrategyDatabase:
		return Strategy(s), nil
	}
	return "", fmt.Errorf("unknown session strategy %q", s)
}

type SessionService struct {
	Store    store.Store
	Strategy Strategy
	Signer   jwtx.Signer
	Verifier jwtx.Verifier
	Issuer   string

	// MaxAge is the lifetime of a fresh session.
	MaxAge time.Duration
	// UpdateAge is how old a session must be before Refresh extends it.
	UpdateAge time.Duration

	// BaseURL is the externally reachable origin, e.g. https://shop.example.
	BaseURL string

	Notifier Notifier
	Now      func() time.Time
}

func (s *SessionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *SessionService) maxAge() time.Duration {
	if s.MaxAge <= 0 {
		return jwtx.DefaultSessionTTL
	}
	return s.MaxAge
}

func (s *SessionService) notify(ctx context.Context, ev Event) {
	if s.Notifier != nil {
		s.Notifier.Notify(ctx, ev)
	}
}

// SignIn issues a session for an authenticated identity. The sign-in event
// is emitted after the session exists.
func (s *SessionService) SignIn(ctx context.Context, id domain.Identity, provider string) (domain.IssuedSession, error) {
	now := s.now()

	var (
		token   string
		expires time.Time
	)

	switch s.Strategy {
	case StrategyDatabase:
		raw, err := cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			return domain.IssuedSession{}, err
		}
		expires = now.Add(s.maxAge())
		err = s.Store.Sessions().CreateSession(ctx, domain.Session{
			ID:           idx.NewAt(now).String(),
			SessionToken: cryptox.FingerprintToken(raw),
			UserID:       id.UserID,
			Expires:      expires,
			CreatedAt:    now,
		})
		if err != nil {
			return domain.IssuedSession{}, err
		}
		token = raw

	default:
		claims := jwtx.NewSessionClaims(id.UserID, string(id.Role), id.Email, id.Name, provider, s.Issuer, s.maxAge(), now)
		signed, err := s.Signer.Sign(claims)
		if err != nil {
			return domain.IssuedSession{}, err
		}
		token = signed
		expires = claims.ExpiresAtTime()
	}

	s.notify(ctx, Event{
		Type:      EventSignIn,
		UserID:    id.UserID,
		Provider:  provider,
		IsNewUser: id.IsNewUser,
		At:        now,
	})

	return domain.IssuedSession{
		Token:   token,
		Expires: expires,
		View: domain.SessionView{
			UserID:   id.UserID,
			Email:    id.Email,
			Name:     id.Name,
			Role:     id.Role,
			Provider: provider,
			Expires:  expires,
		},
	}, nil
}

// Authenticate resolves a bearer token into the caller's view. Any token
// problem is ErrUnauthenticated.
func (s *SessionService) Authenticate(ctx context.Context, token string) (domain.SessionView, error) {
	view, _, err := s.resolve(ctx, token)
	return view, err
}

// resolve returns the view and the time the session was last (re)issued.
func (s *SessionService) resolve(ctx context.Context, token string) (domain.SessionView, time.Time, error) {
	if token == "" {
		return domain.SessionView{}, time.Time{}, ErrUnauthenticated
	}

	if s.Strategy == StrategyDatabase {
		sess, user, err := s.Store.Sessions().GetSessionAndUser(ctx, cryptox.FingerprintToken(token), s.now())
		if errors.Is(err, store.ErrNotFound) {
			return domain.SessionView{}, time.Time{}, ErrUnauthenticated
		}
		if err != nil {
			return domain.SessionView{}, time.Time{}, err
		}
		view := domain.SessionView{
			UserID:  user.ID,
			Email:   user.Email,
			Name:    user.Name,
			Role:    user.Role,
			Expires: sess.Expires,
		}
		return view, sess.Expires.Add(-s.maxAge()), nil
	}

	claims, err := s.Verifier.Verify(token)
	if err != nil {
		slogx.FromContext(ctx).Debug("session token rejected", slog.Any("error", err))
		return domain.SessionView{}, time.Time{}, ErrUnauthenticated
	}
	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		return domain.SessionView{}, time.Time{}, ErrUnauthenticated
	}

	var issued time.Time
	if claims.IssuedAt != nil {
		issued = claims.IssuedAt.Time
	}
	view := domain.SessionView{
		UserID:   claims.Subject,
		Email:    claims.Email,
		Name:     claims.Name,
		Role:     role,
		Provider: claims.Provider,
		Expires:  claims.ExpiresAtTime(),
	}
	return view, issued, nil
}

// Refresh authenticates token and, once the session is older than
// UpdateAge, extends it. The returned token is non-empty only when the
// caller must store a new value or a new expiry.
func (s *SessionService) Refresh(ctx context.Context, token string) (domain.SessionView, string, error) {
	view, issued, err := s.resolve(ctx, token)
	if err != nil {
		return domain.SessionView{}, "", err
	}

	now := s.now()
	if now.Sub(issued) < s.UpdateAge {
		return view, "", nil
	}

	if s.Strategy == StrategyDatabase {
		expires := now.Add(s.maxAge())
		if err := s.Store.Sessions().UpdateSession(ctx, cryptox.FingerprintToken(token), expires); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domain.SessionView{}, "", ErrUnauthenticated
			}
			return domain.SessionView{}, "", err
		}
		view.Expires = expires
		return view, token, nil
	}

	claims, err := s.Verifier.Verify(token)
	if err != nil {
		return domain.SessionView{}, "", ErrUnauthenticated
	}
	renewed := claims.Renew(s.maxAge(), now)
	signed, err := s.Signer.Sign(renewed)
	if err != nil {
		return domain.SessionView{}, "", err
	}
	view.Expires = renewed.ExpiresAtTime()
	return view, signed, nil
}

// SignOut ends the session behind token. Unknown or expired tokens are not
// an error; there is simply nothing to end and no event is emitted.
func (s *SessionService) SignOut(ctx context.Context, token string) error {
	view, _, err := s.resolve(ctx, token)
	if errors.Is(err, ErrUnauthenticated) {
		return nil
	}
	if err != nil {
		return err
	}

	if s.Strategy == StrategyDatabase {
		if err := s.Store.Sessions().DeleteSession(ctx, cryptox.FingerprintToken(token)); err != nil &&
			!errors.Is(err, store.ErrNotFound) {
			return err
		}
	}

	s.notify(ctx, Event{Type: EventSignOut, UserID: view.UserID, Provider: view.Provider, At: s.now()})
	return nil
}

// SafeRedirect constrains a post-login target to this application. Relative
// paths are joined to the base URL, absolute URLs must share its origin, and
// anything else yields the base URL.
func (s *SessionService) SafeRedirect(target string) string {
	base := strings.TrimSuffix(s.BaseURL, "/")
	baseURL, err := url.Parse(base)
	if err != nil {
		return base
	}

	target = strings.TrimSpace(target)
	if target == "" || strings.ContainsAny(target, "\\\r\n\t") {
		return base
	}

	if strings.HasPrefix(target, "/") {
		if strings.HasPrefix(target, "//") {
			return base
		}
		u, err := url.Parse(target)
		if err != nil || u.Scheme != "" || u.Host != "" {
			return base
		}
		return base + target
	}

	u, err := url.Parse(target)
	if err != nil || u.User != nil {
		return base
	}
	if strings.EqualFold(u.Scheme, baseURL.Scheme) && strings.EqualFold(u.Host, baseURL.Host) {
		return target
	}
	return base
}
