package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/shopauth/internal/auth/http"
	"github.com/aussiebroadwan/shopauth/internal/auth/metrics"
	"github.com/aussiebroadwan/shopauth/internal/auth/service"
	"github.com/aussiebroadwan/shopauth/internal/auth/store"
	"github.com/aussiebroadwan/shopauth/internal/auth/store/drivers/postgres"
	"github.com/aussiebroadwan/shopauth/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/shopauth/pkg/cryptox"
	"github.com/aussiebroadwan/shopauth/pkg/httpx"
	"github.com/aussiebroadwan/shopauth/pkg/jwtx"
	"github.com/aussiebroadwan/shopauth/pkg/slogx"
	"github.com/redis/go-redis/v9"
)

// BuildVersion is overridden at build time via -ldflags.
var BuildVersion = "v0.1.0"

const serviceName = "shopauth"

// Application encapsulates the auth service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db      store.Store
	redis   *redis.Client // nil unless REDIS_URL is set
	metrics *metrics.Metrics

	// Services
	notifier            *service.AsyncNotifier
	sessionService      *service.SessionService
	providers           *service.Providers
	registrationService *service.RegistrationService
	verificationService *service.VerificationService
	userService         *service.UserService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// NewLogger builds the process logger from configuration.
func NewLogger(cfg Config) *slog.Logger {
	return slogx.New(slogx.Config{
		Service: serviceName,
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
}

// New creates an Application with every dependency initialised. The store
// is migrated before anything else runs.
func New(ctx context.Context, cfg Config) (*Application, error) {
	app := &Application{
		cfg:     cfg,
		logger:  NewLogger(cfg),
		metrics: metrics.New(serviceName),
	}
	slog.SetDefault(app.logger)

	if _, err := cryptox.LoadPepper(cfg.PepperFile); err != nil {
		return nil, fmt.Errorf("failed to load pepper: %w", err)
	}

	db, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply database migrations: %w", err)
	}
	app.logger.Info("database migrations applied successfully")

	if err := app.initRedis(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := app.initServices(); err != nil {
		app.closeBackends()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// OpenStore picks the driver from DATABASE_URL: postgres:// and
// postgresql:// use the pgx pool, anything else is a SQLite path.
func OpenStore(ctx context.Context, cfg Config) (store.Store, error) {
	dsn := cfg.DatabaseURL
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		pgCfg := postgres.DefaultConfig()
		pgCfg.QueryTimeout = cfg.QueryTimeout
		db, err := postgres.NewStore(ctx, dsn, pgCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return db, nil
	}

	db, err := sqlite.NewStore(strings.TrimPrefix(dsn, "sqlite://"), sqlite.WithQueryTimeout(cfg.QueryTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return db, nil
}

func (app *Application) initRedis(ctx context.Context) error {
	if app.cfg.RedisURL == "" {
		return nil
	}

	opts, err := redis.ParseURL(app.cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	app.redis = client
	app.logger.Info("rate limit windows shared through redis")
	return nil
}

// initServices initializes all business logic services.
func (app *Application) initServices() error {
	signer, err := jwtx.NewHMACSigner(app.cfg.JWTSecret)
	if err != nil {
		return fmt.Errorf("failed to initialize session signer: %w", err)
	}
	verifier, err := jwtx.NewHMACVerifier(app.cfg.JWTSecret, app.cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize session verifier: %w", err)
	}

	app.notifier = service.NewAsyncNotifier(app.logger, 0,
		service.LogSink{},
		service.MetricsSink{Metrics: app.metrics},
	)
	app.notifier.OnDrop = func(service.Event) { app.metrics.NotificationsDropped.Inc() }

	app.sessionService = &service.SessionService{
		Store:     app.db,
		Strategy:  app.cfg.SessionStrategy,
		Signer:    signer,
		Verifier:  verifier,
		Issuer:    app.cfg.BaseURL,
		MaxAge:    app.cfg.SessionMaxAge,
		UpdateAge: app.cfg.SessionUpdateAge,
		BaseURL:   app.cfg.BaseURL,
		Notifier:  app.notifier,
	}

	app.providers = &service.Providers{
		Credentials: &service.CredentialsResolver{Store: app.db},
		OAuth:       map[string]*service.OAuthResolver{},
	}
	if app.cfg.GoogleClientID != "" && app.cfg.GoogleClientSecret != "" {
		app.providers.OAuth[service.ProviderGoogle] = service.NewGoogleResolver(
			app.cfg.GoogleClientID,
			app.cfg.GoogleClientSecret,
			app.cfg.BaseURL+"/api/auth/callback/"+service.ProviderGoogle,
			app.db,
		)
	}
	app.logger.Info("sign-in providers enabled", "providers", app.providers.Names())

	app.registrationService = &service.RegistrationService{Store: app.db}
	app.verificationService = &service.VerificationService{Store: app.db, Sender: service.LogTokenSender{}}
	app.userService = &service.UserService{Store: app.db}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
	return nil
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	limiter := httpx.NewFixedWindowLimiter(app.cfg.RateLimitMax, app.cfg.RateLimitWindow)
	if app.redis != nil {
		limiter.Store = httpx.NewRedisWindowStore(app.redis, serviceName+":ratelimit:")
	}
	limiter.OnReject = app.metrics.RateLimited("global")

	router := httpapi.NewRouter(httpapi.Config{
		BaseURL:      app.cfg.BaseURL,
		Production:   app.cfg.Production(),
		BuildVersion: BuildVersion,
		CORS:         httpx.CORSConfig{AllowedOrigins: app.cfg.AllowedOrigins},
		Limiter:      limiter,
		SignInLimit:  httpx.ParseRateLimitFromEnv("SIGNIN", httpx.StrictLimit),
		StateSecret:  app.cfg.SessionSecret,
	}, app.db, app.metrics, app.logger)

	// Wire services to router
	router.Sessions = app.sessionService
	router.Providers = app.providers
	router.Registration = app.registrationService
	router.Verification = app.verificationService
	router.Users = app.userService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

// Handler exposes the fully wired HTTP handler.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.notifier.Start()
	app.housekeepingService.Start()

	app.logger.Info("auth service starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"session_strategy", app.cfg.SessionStrategy)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.stopBackground()
			app.closeBackends()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// No more requests can emit events, so the notifier drains what is left.
	app.stopBackground()

	if err := app.closeBackends(); err != nil {
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

func (app *Application) stopBackground() {
	app.housekeepingService.Stop()
	app.notifier.Stop()
}

func (app *Application) closeBackends() error {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}
	return nil
}
