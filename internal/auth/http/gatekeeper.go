package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/aussiebroadwan/shopauth/internal/auth/domain"
	"github.com/aussiebroadwan/shopauth/internal/auth/service"
	"github.com/aussiebroadwan/shopauth/pkg/authsdk"
	"github.com/aussiebroadwan/shopauth/pkg/httpx"
	"github.com/aussiebroadwan/shopauth/pkg/slogx"
)

// LoginPath is where unauthenticated browser navigations are sent.
const LoginPath = "/auth/login"

// publicPrefixes are reachable without a session. Each entry matches itself
// and anything below it on a path segment boundary.
var publicPrefixes = []string{
	"/auth/login",
	"/auth/register",
	"/api/auth",
	"/api/health",
	"/livez",
	"/metrics",
	"/swagger",
}

// IsPublicPath reports whether path may be served without a session.
func IsPublicPath(path string) bool {
	if path == "/" {
		return true
	}
	for _, p := range publicPrefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

type sessionCtxKey struct{}

// SessionFromContext returns the caller's session view, set by Authorize.
func SessionFromContext(ctx context.Context) (domain.SessionView, bool) {
	v, ok := ctx.Value(sessionCtxKey{}).(domain.SessionView)
	return v, ok
}

func withSession(ctx context.Context, v domain.SessionView) context.Context {
	ctx = context.WithValue(ctx, sessionCtxKey{}, v)
	ctx = httpx.WithUserID(ctx, v.UserID)
	return slogx.With(ctx, slog.String("user_id", v.UserID))
}

// sessionToken reads the bearer credential, preferring the Authorization
// header over the session cookie.
func sessionToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(authsdk.SessionCookieName); err == nil {
		return c.Value
	}
	return ""
}

// Authorize is the last gatekeeper step. Public paths pass through. Anything
// else needs a valid session: browsers are redirected to the login page with
// the original target as callbackUrl, API clients get 401.
func Authorize(sessions *service.SessionService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IsPublicPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			view, err := sessions.Authenticate(r.Context(), sessionToken(r))
			if err != nil {
				if !errors.Is(err, service.ErrUnauthenticated) {
					slogx.FromContext(r.Context()).Error("session lookup failed", slog.Any("error", err))
					authsdk.ErrServerError.WriteError(w)
					return
				}
				if httpx.IsBrowserNavigation(r) {
					target := LoginPath + "?callbackUrl=" + url.QueryEscape(r.URL.RequestURI())
					http.Redirect(w, r, target, http.StatusFound)
					return
				}
				authsdk.ErrUnauthenticated.WriteError(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(withSession(r.Context(), view)))
		})
	}
}

// RequireRole rejects sessions without role. It must run after Authorize.
func RequireRole(role domain.Role) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			view, ok := SessionFromContext(r.Context())
			if !ok {
				authsdk.ErrUnauthenticated.WriteError(w)
				return
			}
			if view.Role != role {
				authsdk.ErrForbidden.WriteError(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
