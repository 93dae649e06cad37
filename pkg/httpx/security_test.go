package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/shopauth/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestSecurityHeaders(t *testing.T) {
	redirect := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/auth/login", http.StatusFound)
	})

	t.Run("development", func(t *testing.T) {
		rec := httptest.NewRecorder()
		httpx.SecurityHeaders(false)(redirect).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		h := rec.Header()
		require.Equal(t, http.StatusFound, rec.Code)
		require.Equal(t, "nosniff", h.Get("X-Content-Type-Options"))
		require.Equal(t, "DENY", h.Get("X-Frame-Options"))
		require.Equal(t, "1; mode=block", h.Get("X-XSS-Protection"))
		require.Equal(t, "strict-origin-when-cross-origin", h.Get("Referrer-Policy"))
		require.Equal(t, "camera=(), microphone=(), geolocation=()", h.Get("Permissions-Policy"))
		require.Contains(t, h.Get("Content-Security-Policy"), "frame-ancestors 'none'")
		require.Contains(t, h.Get("Content-Security-Policy"), "default-src 'self'; ")
		require.Empty(t, h.Get("Strict-Transport-Security"))
	})

	t.Run("production adds hsts", func(t *testing.T) {
		rec := httptest.NewRecorder()
		httpx.SecurityHeaders(true)(redirect).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, "max-age=31536000; includeSubDomains; preload", rec.Header().Get("Strict-Transport-Security"))
	})
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(okHandler(), mw("a"), nil, mw("b"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"a", "b"}, order)
}

func TestIsBrowserNavigation(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	require.True(t, httpx.IsBrowserNavigation(req))

	req = httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Accept", "application/json")
	require.False(t, httpx.IsBrowserNavigation(req))

	req = httptest.NewRequest(http.MethodPost, "/dashboard", nil)
	req.Header.Set("Accept", "text/html")
	require.False(t, httpx.IsBrowserNavigation(req))
}
