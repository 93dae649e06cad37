package httpx

import (
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/cors"
)

const (
	corsAllowMethods = "GET,OPTIONS,PATCH,DELETE,POST,PUT"
	corsAllowHeaders = "Content-Type, Authorization"
	corsMaxAge       = 86400
)

// CORSConfig lists the origins allowed to call us from a browser.
type CORSConfig struct {
	AllowedOrigins []string
}

// ParseOrigins splits a comma-separated origin list.
func ParseOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func (c CORSConfig) allowOrigin(requestOrigin string) string {
	if requestOrigin != "" && slices.Contains(c.AllowedOrigins, requestOrigin) {
		return requestOrigin
	}
	if len(c.AllowedOrigins) > 0 {
		return c.AllowedOrigins[0]
	}
	return ""
}

// Preflight answers every OPTIONS request immediately with 200 and the CORS
// allowances. It runs before rate limiting, so preflights are never throttled.
func Preflight(cfg CORSConfig) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			if origin := cfg.allowOrigin(r.Header.Get("Origin")); origin != "" {
				h.Set("Access-Control-Allow-Origin", origin)
			}
			h.Add("Vary", "Origin")
			h.Set("Access-Control-Allow-Methods", corsAllowMethods)
			h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
			h.Set("Access-Control-Max-Age", "86400")
			w.WriteHeader(http.StatusOK)
		})
	}
}

// CORS decorates non-preflight responses for allow-listed origins.
func CORS(cfg CORSConfig) Middleware {
	return cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   strings.Split(corsAllowMethods, ","),
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           corsMaxAge,
	})
}
