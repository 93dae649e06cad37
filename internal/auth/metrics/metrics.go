// Package metrics holds the Prometheus collectors of the auth service.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result label values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultError   = "error"
)

// Metrics owns a private registry so tests and multiple servers in one
// process never collide on the default registerer.
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequestsTotal          *prometheus.CounterVec
	HTTPRequestDurationSeconds *prometheus.HistogramVec

	AuthLoginsTotal        *prometheus.CounterVec
	AuthRegistrationsTotal *prometheus.CounterVec
	SessionEventsTotal     *prometheus.CounterVec
	VerificationTotal      *prometheus.CounterVec
	RateLimitedTotal       *prometheus.CounterVec
	NotificationsDropped   prometheus.Counter
}

func New(serviceName string) *Metrics {
	labels := prometheus.Labels{"service": serviceName}

	m := &Metrics{
		Registry: prometheus.NewRegistry(),

		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "http_requests_total",
				Help:        "Total number of HTTP requests.",
				ConstLabels: labels,
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "http_request_duration_seconds",
				Help:        "Duration of HTTP requests.",
				Buckets:     prometheus.DefBuckets,
				ConstLabels: labels,
			},
			[]string{"method", "route"},
		),
		AuthLoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "auth_logins_total",
				Help:        "Total number of sign-in attempts.",
				ConstLabels: labels,
			},
			[]string{"provider", "result"},
		),
		AuthRegistrationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "auth_registrations_total",
				Help:        "Total number of registration attempts.",
				ConstLabels: labels,
			},
			[]string{"result"},
		),
		SessionEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "auth_session_events_total",
				Help:        "Sign-in, sign-out and refresh events delivered to the notifier.",
				ConstLabels: labels,
			},
			[]string{"event"},
		),
		VerificationTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "auth_verification_tokens_total",
				Help:        "Verification tokens issued and redeemed.",
				ConstLabels: labels,
			},
			[]string{"action", "result"},
		),
		RateLimitedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "http_rate_limited_total",
				Help:        "Requests rejected by a rate limiter.",
				ConstLabels: labels,
			},
			[]string{"limiter"},
		),
		NotificationsDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name:        "auth_notifications_dropped_total",
				Help:        "Lifecycle notifications dropped because the queue was full.",
				ConstLabels: labels,
			},
		),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDurationSeconds,
		m.AuthLoginsTotal,
		m.AuthRegistrationsTotal,
		m.SessionEventsTotal,
		m.VerificationTotal,
		m.RateLimitedTotal,
		m.NotificationsDropped,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// Login records one sign-in attempt.
func (m *Metrics) Login(provider, result string) {
	m.AuthLoginsTotal.WithLabelValues(provider, result).Inc()
}

func (m *Metrics) Registration(result string) {
	m.AuthRegistrationsTotal.WithLabelValues(result).Inc()
}

// RateLimited returns a callback suitable for FixedWindowLimiter.OnReject.
func (m *Metrics) RateLimited(limiter string) func(string) {
	c := m.RateLimitedTotal.WithLabelValues(limiter)
	return func(string) { c.Inc() }
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// Middleware records request counts and latencies. The route label is the
// ServeMux pattern that served the request, so unbounded paths never become
// label values.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		route := &routeHolder{}

		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), routeKey{}, route)))

		label := RouteGatekeeper
		if route.recorded {
			label = route.pattern
			if label == "" {
				label = RouteUnmatched
			}
		}
		m.HTTPRequestsTotal.WithLabelValues(r.Method, label, strconv.Itoa(rec.status)).Inc()
		m.HTTPRequestDurationSeconds.WithLabelValues(r.Method, label).Observe(time.Since(start).Seconds())
	})
}

// Route labels for requests that never reached a registered pattern.
const (
	// RouteGatekeeper marks responses written before routing: preflight,
	// rate limiting and the authorization decision.
	RouteGatekeeper = "gatekeeper"
	RouteUnmatched  = "unmatched"
)

type routeKey struct{}

type routeHolder struct {
	pattern  string
	recorded bool
}

// RecordRoute reports the matched pattern to Middleware. It must wrap the
// ServeMux directly: the mux sets Pattern on the request it is handed, and
// outer middlewares only see their own copies.
func RecordRoute(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		if h, ok := r.Context().Value(routeKey{}).(*routeHolder); ok {
			h.pattern = r.Pattern
			h.recorded = true
		}
	})
}
