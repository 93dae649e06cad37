package httpx

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/shopauth/pkg/slogx"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines token-bucket parameters for a single endpoint.
type RateLimitConfig struct {
	// RequestsPerWindow is the number of requests allowed in the time window
	RequestsPerWindow int
	// Window is the time window for rate limiting
	Window time.Duration
	// Burst allows for temporary bursts above the rate limit
	Burst int
}

// StrictLimit guards credential sign-in and registration against brute force,
// keyed by client IP plus the submitted email. It sits behind the global
// fixed-window limiter, which is per IP only.
var StrictLimit = RateLimitConfig{
	RequestsPerWindow: 5,
	Window:            time.Minute,
	Burst:             5,
}

// ParseRateLimitFromEnv reads RATELIMIT_{prefix}_REQUESTS, _WINDOW_SEC and
// _BURST, falling back to def for anything unset or invalid.
func ParseRateLimitFromEnv(prefix string, def RateLimitConfig) RateLimitConfig {
	config := def

	if val := os.Getenv("RATELIMIT_" + prefix + "_REQUESTS"); val != "" {
		if requests, err := strconv.Atoi(val); err == nil && requests > 0 {
			config.RequestsPerWindow = requests
		}
	}
	if val := os.Getenv("RATELIMIT_" + prefix + "_WINDOW_SEC"); val != "" {
		if windowSec, err := strconv.Atoi(val); err == nil && windowSec > 0 {
			config.Window = time.Duration(windowSec) * time.Second
		}
	}
	if val := os.Getenv("RATELIMIT_" + prefix + "_BURST"); val != "" {
		if burst, err := strconv.Atoi(val); err == nil && burst > 0 {
			config.Burst = burst
		}
	}

	return config
}

// KeyExtractor is a function that extracts a unique key from the request
// for rate limiting purposes (e.g., IP address, user ID, email).
type KeyExtractor func(*http.Request) string

// IPKeyExtractor extracts the client IP address from the request.
// X-Forwarded-For and X-Real-IP are trusted as-is, so this is only as good as
// the proxy in front of us.
func IPKeyExtractor(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// UserIDKeyExtractor extracts the authenticated user id from the request context.
func UserIDKeyExtractor(r *http.Request) string {
	id, _ := UserIDFromContext(r.Context())
	return id
}

// CompositeKeyExtractor combines multiple key extractors with a separator,
// skipping extractors that return nothing.
func CompositeKeyExtractor(sep string, extractors ...KeyExtractor) KeyExtractor {
	return func(r *http.Request) string {
		var parts []string
		for _, extractor := range extractors {
			if key := extractor(r); key != "" {
				parts = append(parts, key)
			}
		}
		return strings.Join(parts, sep)
	}
}

const maxPeekBody = 1 << 20

// BodyFieldKeyExtractor reads fieldName from a JSON or form body (or the query
// string) without consuming the body for the downstream handler. Values are
// lower-cased so "Alice@x" and "alice@x" share a bucket.
func BodyFieldKeyExtractor(fieldName string) KeyExtractor {
	return func(r *http.Request) string {
		if v := r.URL.Query().Get(fieldName); v != "" {
			return strings.ToLower(v)
		}
		if r.Body == nil || r.Body == http.NoBody {
			return ""
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBody))
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(body))
		if err != nil {
			return ""
		}

		mt, params, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
		var value string
		switch mt {
		case "application/json":
			var m map[string]any
			if json.Unmarshal(body, &m) != nil {
				return ""
			}
			value, _ = m[fieldName].(string)
		case "application/x-www-form-urlencoded":
			vals, err := url.ParseQuery(string(body))
			if err != nil {
				return ""
			}
			value = vals.Get(fieldName)
		case "multipart/form-data":
			value = multipartField(body, params["boundary"], fieldName)
		}
		return strings.ToLower(strings.TrimSpace(value))
	}
}

// multipartField returns the first value of a non-file part named fieldName.
func multipartField(body []byte, boundary, fieldName string) string {
	if boundary == "" {
		return ""
	}
	mr := multipart.NewReader(bytes.NewReader(body), boundary)
	for {
		part, err := mr.NextPart()
		if err != nil {
			return ""
		}
		if part.FormName() == fieldName && part.FileName() == "" {
			v, err := io.ReadAll(io.LimitReader(part, 1024))
			if err != nil {
				return ""
			}
			return string(v)
		}
	}
}

// bucketLimiter manages token buckets for different keys.
type bucketLimiter struct {
	limiters sync.Map // map[string]*rate.Limiter
	rate     rate.Limit
	burst    int

	mu          sync.Mutex
	lastCleanup time.Time
}

func (rl *bucketLimiter) get(key string) *rate.Limiter {
	if limiter, ok := rl.limiters.Load(key); ok {
		return limiter.(*rate.Limiter)
	}

	limiter := rate.NewLimiter(rl.rate, rl.burst)
	actual, _ := rl.limiters.LoadOrStore(key, limiter)

	rl.maybeCleanup()

	return actual.(*rate.Limiter)
}

// maybeCleanup drops idle buckets (full token count) every five minutes.
func (rl *bucketLimiter) maybeCleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if time.Since(rl.lastCleanup) < 5*time.Minute {
		return
	}
	rl.lastCleanup = time.Now()

	rl.limiters.Range(func(key, value any) bool {
		if value.(*rate.Limiter).Tokens() >= float64(rl.burst) {
			rl.limiters.Delete(key)
		}
		return true
	})
}

// RateLimitMiddleware creates a token-bucket middleware. The keyExtractor
// determines how requests are grouped; requests with no key pass through.
func RateLimitMiddleware(config RateLimitConfig, keyExtractor KeyExtractor) Middleware {
	rl := &bucketLimiter{
		rate:        rate.Limit(float64(config.RequestsPerWindow) / config.Window.Seconds()),
		burst:       config.Burst,
		lastCleanup: time.Now(),
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := slogx.FromContext(r.Context())

			key := keyExtractor(r)
			if key == "" {
				log.Warn("rate limit: unable to extract key, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			limiter := rl.get(key)
			if !limiter.Allow() {
				reservation := limiter.Reserve()
				delay := reservation.Delay()
				reservation.Cancel()

				retryAfter := max(int(delay.Seconds()), 1)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

				log.Warn("rate limit exceeded",
					"limiter", "bucket",
					"endpoint", r.URL.Path,
					"retry_after", retryAfter,
				)
				writeTooManyRequests(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitByIPAndField limits by client IP plus a request field, e.g. the
// email being signed in with.
func RateLimitByIPAndField(config RateLimitConfig, fieldName string) Middleware {
	return RateLimitMiddleware(config, CompositeKeyExtractor(":",
		IPKeyExtractor,
		BodyFieldKeyExtractor(fieldName),
	))
}

func writeTooManyRequests(w http.ResponseWriter) {
	WriteJSON(w, http.StatusTooManyRequests, map[string]string{
		"error":             "rate_limit_exceeded",
		"error_description": "Too many requests. Please try again later.",
	})
}
