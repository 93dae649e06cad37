package httpx

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/aussiebroadwan/shopauth/pkg/slogx"
)

// WindowStore counts hits per fixed-window bucket. Implementations must be
// safe for concurrent use.
type WindowStore interface {
	// Hit records one request against key unless the bucket already holds
	// max hits. It returns the count after the call and whether the request
	// was admitted. resetAt is when the bucket stops mattering.
	Hit(ctx context.Context, key string, max int, resetAt, now time.Time) (count int, allowed bool, err error)
}

// Decision is the outcome of one rate-limit check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	// RetryAfter is the time left in the current window, rounded up to whole
	// seconds, never less than one. Only meaningful when Allowed is false.
	RetryAfter time.Duration
}

// FixedWindowLimiter admits at most Max requests per client in each window of
// length Window. Windows are aligned to the epoch, so a client's bucket is
// identified by (client, floor(now/Window)).
type FixedWindowLimiter struct {
	Store  WindowStore
	Max    int
	Window time.Duration

	// Now is the clock; defaults to time.Now.
	Now func() time.Time
	// OnReject, when set, is told about every rejected client.
	OnReject func(client string)
}

// NewFixedWindowLimiter builds a limiter over an in-process store.
func NewFixedWindowLimiter(max int, window time.Duration) *FixedWindowLimiter {
	return &FixedWindowLimiter{
		Store:  NewMemoryWindowStore(window),
		Max:    max,
		Window: window,
	}
}

func (l *FixedWindowLimiter) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

// Allow checks and records one request from client.
func (l *FixedWindowLimiter) Allow(ctx context.Context, client string) (Decision, error) {
	now := l.now()
	windowMs := l.Window.Milliseconds()
	if windowMs <= 0 {
		return Decision{}, fmt.Errorf("httpx: invalid rate-limit window %s", l.Window)
	}

	index := now.UnixMilli() / windowMs
	resetAt := time.UnixMilli((index + 1) * windowMs)
	key := client + ":" + strconv.FormatInt(index, 10)

	count, allowed, err := l.Store.Hit(ctx, key, l.Max, resetAt, now)
	if err != nil {
		return Decision{}, err
	}

	d := Decision{
		Allowed:   allowed,
		Limit:     l.Max,
		Remaining: max(l.Max-count, 0),
		ResetAt:   resetAt,
	}
	if !allowed {
		d.Remaining = 0
		secs := math.Ceil(resetAt.Sub(now).Seconds())
		d.RetryAfter = time.Duration(max(secs, 1)) * time.Second
		if l.OnReject != nil {
			l.OnReject(client)
		}
	}
	return d, nil
}

// FixedWindowMiddleware enforces l per client. Every response carries the
// X-RateLimit-* headers; rejected requests get 429 with Retry-After. If the
// store fails the request is let through.
func FixedWindowMiddleware(l *FixedWindowLimiter, keyExtractor KeyExtractor) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := slogx.FromContext(r.Context())

			client := keyExtractor(r)
			if client == "" {
				client = "anonymous"
			}

			d, err := l.Allow(r.Context(), client)
			if err != nil {
				log.Error("rate limit store failed, allowing request", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.UnixMilli(), 10))

			if !d.Allowed {
				h.Set("Retry-After", strconv.Itoa(int(d.RetryAfter/time.Second)))
				log.Warn("rate limit exceeded",
					"limiter", "fixed_window",
					"endpoint", r.URL.Path,
					"retry_after", d.RetryAfter.String(),
				)
				writeTooManyRequests(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type windowBucket struct {
	count   int
	resetAt time.Time
}

// MemoryWindowStore is a process-local WindowStore. Buckets whose window
// ended more than one window ago are pruned on every call, so memory stays
// proportional to the number of clients seen in the last two windows.
type MemoryWindowStore struct {
	mu      sync.Mutex
	window  time.Duration
	buckets map[string]*windowBucket
}

func NewMemoryWindowStore(window time.Duration) *MemoryWindowStore {
	return &MemoryWindowStore{
		window:  window,
		buckets: make(map[string]*windowBucket),
	}
}

func (s *MemoryWindowStore) Hit(_ context.Context, key string, max int, resetAt, now time.Time) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := now.Add(-s.window)
	for k, b := range s.buckets {
		if b.resetAt.Before(cutoff) {
			delete(s.buckets, k)
		}
	}

	b, ok := s.buckets[key]
	if !ok {
		b = &windowBucket{resetAt: resetAt}
		s.buckets[key] = b
	}

	if b.count >= max {
		return b.count, false, nil
	}
	b.count++
	return b.count, true, nil
}

// Len reports the number of live buckets.
func (s *MemoryWindowStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}
