package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aussiebroadwan/shopauth/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestParseOrigins(t *testing.T) {
	require.Equal(t,
		[]string{"http://localhost:3000", "https://shop.example"},
		httpx.ParseOrigins(" http://localhost:3000/ , ,https://shop.example"))
	require.Nil(t, httpx.ParseOrigins(""))
}

func TestPreflight(t *testing.T) {
	cfg := httpx.CORSConfig{AllowedOrigins: []string{"http://localhost:3000", "https://shop.example"}}

	reached := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusTeapot)
	})
	h := httpx.Preflight(cfg)(next)

	t.Run("answers options directly", func(t *testing.T) {
		reached = false
		req := httptest.NewRequest(http.MethodOptions, "/api/anything", nil)
		req.Header.Set("Origin", "https://shop.example")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.False(t, reached)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "https://shop.example", rec.Header().Get("Access-Control-Allow-Origin"))
		require.Equal(t, "GET,OPTIONS,PATCH,DELETE,POST,PUT", rec.Header().Get("Access-Control-Allow-Methods"))
		require.Equal(t, "Content-Type, Authorization", rec.Header().Get("Access-Control-Allow-Headers"))
		require.Equal(t, "86400", rec.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("unknown origin gets the first configured origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("other methods pass through", func(t *testing.T) {
		reached = false
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.True(t, reached)
		require.Equal(t, http.StatusTeapot, rec.Code)
	})
}

func TestPreflightBypassesRateLimit(t *testing.T) {
	l := httpx.NewFixedWindowLimiter(1, time.Minute)
	h := httpx.Chain(okHandler(),
		httpx.Preflight(httpx.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}}),
		httpx.FixedWindowMiddleware(l, httpx.IPKeyExtractor),
	)

	get := func(method string) int {
		req := httptest.NewRequest(method, "/", nil)
		req.RemoteAddr = "10.1.1.1:1"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusOK, get(http.MethodGet))
	require.Equal(t, http.StatusTooManyRequests, get(http.MethodGet))
	require.Equal(t, http.StatusOK, get(http.MethodOptions))
}

func TestCORS(t *testing.T) {
	h := httpx.CORS(httpx.CORSConfig{AllowedOrigins: []string{"https://shop.example"}})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://shop.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "https://shop.example", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
