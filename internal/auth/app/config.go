package app

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/shopauth/internal/auth/service"
	"github.com/aussiebroadwan/shopauth/pkg/httpx"
	"github.com/aussiebroadwan/shopauth/pkg/slogx"
	"github.com/joho/godotenv"
)

const minSecretLength = 32

type Config struct {
	Env         string // development, production, test (default: development)
	DatabaseURL string // Required: sqlite://path, file: URI, plain path or postgres:// URL
	BaseURL     string // Required: externally reachable origin (NEXTAUTH_URL)

	SessionSecret string // Required: keys the OAuth state cookie, at least 32 bytes
	JWTSecret     string // Required: HMAC key for session tokens, at least 32 bytes

	AllowedOrigins  []string      // CORS allow-list (default: http://localhost:3000)
	RateLimitMax    int           // Requests per window per client (default: 100)
	RateLimitWindow time.Duration // Fixed window length (default: 15m)
	RedisURL        string        // Optional: shares rate-limit windows across replicas

	GoogleClientID     string // Optional: Google sign-in is enabled when both are set
	GoogleClientSecret string

	SessionStrategy  service.Strategy // jwt or database (default: jwt)
	SessionMaxAge    time.Duration    // Session lifetime (default: 168h)
	SessionUpdateAge time.Duration    // Refresh threshold (default: 24h)
	QueryTimeout     time.Duration    // Per-call store bound (default: 5s)
	PepperFile       string           // Optional: password pepper file

	LogLevel             string        // error, warn, info, debug (default: info)
	LogFormat            string        // json, text (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Expired row sweep (default: 1h)
}

// Production reports whether secure cookies and HSTS apply.
func (c Config) Production() bool { return c.Env == "production" }

// LoadConfig reads an optional .env file and then the environment. Every
// problem found is reported at once so a misconfigured deployment fails on
// its first start with the full list.
func LoadConfig() (Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	p := &envParser{}
	cfg := Config{
		Env:         getEnvOrDefault("NODE_ENV", "development"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		BaseURL:     strings.TrimSuffix(os.Getenv("NEXTAUTH_URL"), "/"),

		SessionSecret: os.Getenv("NEXTAUTH_SECRET"),
		JWTSecret:     os.Getenv("JWT_SECRET"),

		AllowedOrigins:  httpx.ParseOrigins(getEnvOrDefault("ALLOWED_ORIGINS", "http://localhost:3000")),
		RateLimitMax:    p.int("RATE_LIMIT_MAX", 100),
		RateLimitWindow: time.Duration(p.int("RATE_LIMIT_WINDOW_MS", 900000)) * time.Millisecond,
		RedisURL:        os.Getenv("REDIS_URL"),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),

		SessionMaxAge:    p.duration("AUTH_SESSION_MAX_AGE", 7*24*time.Hour),
		SessionUpdateAge: p.duration("AUTH_SESSION_UPDATE_AGE", 24*time.Hour),
		QueryTimeout:     p.duration("AUTH_DB_QUERY_TIMEOUT", 5*time.Second),
		PepperFile:       os.Getenv("AUTH_PEPPER_FILE"),

		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 p.int("PORT", 8080),
		ShutdownGracePeriod:  p.duration("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: p.duration("HOUSEKEEPING_INTERVAL", time.Hour),
	}

	strategy, err := service.ParseStrategy(getEnvOrDefault("AUTH_SESSION_STRATEGY", string(service.StrategyJWT)))
	if err != nil {
		p.fail("AUTH_SESSION_STRATEGY must be jwt or database")
	}
	cfg.SessionStrategy = strategy

	cfg.validate(p)
	if err := p.err(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate(p *envParser) {
	switch c.Env {
	case "development", "production", "test":
	default:
		p.fail("NODE_ENV must be development, production or test")
	}

	if c.DatabaseURL == "" {
		p.fail("DATABASE_URL is required")
	}

	if c.BaseURL == "" {
		p.fail("NEXTAUTH_URL is required")
	} else if u, err := url.Parse(c.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		p.fail("NEXTAUTH_URL must be an absolute http(s) URL")
	}

	if len(c.SessionSecret) < minSecretLength {
		p.fail(fmt.Sprintf("NEXTAUTH_SECRET must be at least %d characters", minSecretLength))
	}
	if len(c.JWTSecret) < minSecretLength {
		p.fail(fmt.Sprintf("JWT_SECRET must be at least %d characters", minSecretLength))
	}

	if len(c.AllowedOrigins) == 0 {
		p.fail("ALLOWED_ORIGINS must list at least one origin")
	}
	if c.RateLimitMax <= 0 {
		p.fail("RATE_LIMIT_MAX must be positive")
	}
	if c.RateLimitWindow <= 0 {
		p.fail("RATE_LIMIT_WINDOW_MS must be positive")
	}

	if (c.GoogleClientID == "") != (c.GoogleClientSecret == "") {
		p.fail("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set together")
	}

	if c.SessionMaxAge <= 0 {
		p.fail("AUTH_SESSION_MAX_AGE must be positive")
	}
	if c.SessionUpdateAge < 0 || c.SessionUpdateAge > c.SessionMaxAge {
		p.fail("AUTH_SESSION_UPDATE_AGE must be between 0 and AUTH_SESSION_MAX_AGE")
	}

	if !slogx.ValidLevel(c.LogLevel) {
		p.fail("LOG_LEVEL must be error, warn, info or debug")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		p.fail("LOG_FORMAT must be json or text")
	}
	if c.Port <= 0 || c.Port > 65535 {
		p.fail("PORT must be between 1 and 65535")
	}
}

// envParser collects problems instead of stopping at the first one.
type envParser struct {
	problems []error
}

func (p *envParser) fail(msg string) {
	p.problems = append(p.problems, errors.New(msg))
}

func (p *envParser) err() error {
	if len(p.problems) == 0 {
		return nil
	}
	return fmt.Errorf("invalid configuration:\n%w", errors.Join(p.problems...))
}

func (p *envParser) int(key string, def int) int {
	value := os.Getenv(key)
	if value == "" {
		return def
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		p.fail(fmt.Sprintf("%s must be an integer, got %q", key, value))
		return def
	}
	return n
}

func (p *envParser) duration(key string, def time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return def
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	p.fail(fmt.Sprintf("%s must be a duration such as 30s or 1h, got %q", key, value))
	return def
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
