package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/shopauth/internal/auth/domain"
	"github.com/aussiebroadwan/shopauth/internal/auth/metrics"
	"github.com/aussiebroadwan/shopauth/internal/auth/service"
	"github.com/aussiebroadwan/shopauth/internal/auth/store"
	"github.com/aussiebroadwan/shopauth/pkg/httpx"
	"github.com/aussiebroadwan/shopauth/pkg/slogx"
	"github.com/gorilla/sessions"

	_ "github.com/aussiebroadwan/shopauth/api/shopauth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Config holds the HTTP-level settings of the router.
type Config struct {
	BaseURL      string
	Production   bool
	BuildVersion string
	CORS         httpx.CORSConfig

	// Limiter is the global fixed-window limiter of the gatekeeper.
	Limiter *httpx.FixedWindowLimiter

	// SignInLimit is the per IP and email token bucket on credential
	// sign-in and registration.
	SignInLimit httpx.RateLimitConfig

	// StateSecret keys the signed OAuth state cookie.
	StateSecret string
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	cfg     Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	store   store.Store
	state   sessions.Store

	Sessions     *service.SessionService
	Providers    *service.Providers
	Registration *service.RegistrationService
	Verification *service.VerificationService
	Users        *service.UserService
}

func NewRouter(cfg Config, st store.Store, m *metrics.Metrics, logger *slog.Logger) *Router {
	r := &Router{
		Mux:     http.NewServeMux(),
		cfg:     cfg,
		logger:  logger,
		metrics: m,
		store:   st,
		state:   newStateStore(cfg.StateSecret, cfg.Production),
	}
	if cfg.Limiter == nil {
		r.cfg.Limiter = httpx.NewFixedWindowLimiter(100, 15*time.Minute)
	}
	if r.cfg.SignInLimit.RequestsPerWindow == 0 {
		r.cfg.SignInLimit = httpx.StrictLimit
	}
	return r
}

// ApplyRoutes registers every route and builds the gatekeeper chain. Call it
// once the services are set.
func (r *Router) ApplyRoutes() {
	// Gatekeeper order is fixed: preflight, rate limit, then the
	// authorization decision. Each step may answer on its own. Security
	// headers never answer, so they go first and land on every response.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		r.metrics.Middleware,
		httpx.SecurityHeaders(r.cfg.Production),
		httpx.Preflight(r.cfg.CORS),
		httpx.FixedWindowMiddleware(r.cfg.Limiter, httpx.IPKeyExtractor),
		httpx.CORS(r.cfg.CORS),
		Authorize(r.Sessions),
		metrics.RecordRoute,
	}

	r.registerPages()
	r.registerAuth()
	r.registerVerification()
	r.registerAPI()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
	r.Mux.HandleFunc("/", notFound)
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			shopauth API
//	@version		1.0.0
//	@description	Authentication, session and request security for the shop admin application.
//	@description
//	@description				Sessions are carried in the shopauth.session-token cookie or as a bearer token.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/shopauth
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Session token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerPages() {
	h := &PagesHandler{Providers: r.Providers, Sessions: r.Sessions, Version: r.cfg.BuildVersion, router: r}

	r.Mux.HandleFunc("GET /{$}", h.HandleIndex)
	r.Mux.HandleFunc("GET /auth/login", h.HandleLogin)
	r.Mux.HandleFunc("GET /auth/register", h.HandleRegister)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		Sessions:     r.Sessions,
		Providers:    r.Providers,
		Registration: r.Registration,
		Metrics:      r.metrics,
		BaseURL:      r.cfg.BaseURL,
		router:       r,
	}

	// Credential sign-in and registration are brute-force targets: limit by
	// IP and email on top of the global window.
	r.Mux.Handle("POST /api/auth/callback/credentials",
		httpx.Chain(http.HandlerFunc(h.HandleCredentials),
			httpx.RateLimitByIPAndField(r.cfg.SignInLimit, "email"),
		),
	)
	r.Mux.Handle("POST /api/auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIPAndField(r.cfg.SignInLimit, "email"),
		),
	)

	r.Mux.HandleFunc("GET /api/auth/csrf", h.HandleCSRF)
	r.Mux.HandleFunc("GET /api/auth/providers", h.HandleProviders)
	r.Mux.HandleFunc("GET /api/auth/signin/{provider}", h.HandleOAuthSignIn)
	r.Mux.HandleFunc("GET /api/auth/callback/{provider}", h.HandleOAuthCallback)
	r.Mux.HandleFunc("GET /api/auth/session", h.HandleSession)
	r.Mux.HandleFunc("POST /api/auth/signout", h.HandleSignOut)
}

func (r *Router) registerVerification() {
	h := &VerificationHandler{Verification: r.Verification, Metrics: r.metrics}

	r.Mux.Handle("POST /api/auth/verification",
		httpx.Chain(http.HandlerFunc(h.HandleIssue),
			httpx.RateLimitByIPAndField(r.cfg.SignInLimit, "identifier"),
		),
	)
	r.Mux.HandleFunc("GET /api/auth/verify", h.HandleVerify)
}

func (r *Router) registerAPI() {
	h := &UsersHandler{Users: r.Users}

	r.Mux.HandleFunc("GET /api/me", h.HandleMe)
	r.Mux.Handle("PATCH /api/admin/users/{id}/role",
		httpx.Chain(http.HandlerFunc(h.HandleUpdateRole),
			RequireRole(domain.RoleAdmin),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler())
	r.Mux.Handle("GET /api/health", HealthHandler(r.cfg.BuildVersion, r.store))
	r.Mux.Handle("GET /metrics", r.metrics.Handler())
}
