package http_test

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/shopauth/internal/auth/domain"
	authhttp "github.com/aussiebroadwan/shopauth/internal/auth/http"
	"github.com/aussiebroadwan/shopauth/internal/auth/metrics"
	"github.com/aussiebroadwan/shopauth/internal/auth/service"
	"github.com/aussiebroadwan/shopauth/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/shopauth/pkg/cryptox"
	"github.com/aussiebroadwan/shopauth/pkg/httpx"
	"github.com/aussiebroadwan/shopauth/pkg/idx"
	"github.com/aussiebroadwan/shopauth/pkg/jwtx"
	"github.com/aussiebroadwan/shopauth/pkg/slogx"
	"github.com/stretchr/testify/require"
)

const (
	testBaseURL = "http://shop.test"
	testSecret  = "test-secret-0123456789-abcdefghijklmnop"
)

type testEnv struct {
	Router  *authhttp.Router
	Store   *sqlite.Store
	Metrics *metrics.Metrics
	Tokens  *capturingSender
}

type envOption func(*authhttp.Config, *service.SessionService)

func withLimiter(l *httpx.FixedWindowLimiter) envOption {
	return func(c *authhttp.Config, _ *service.SessionService) { c.Limiter = l }
}

func withStrategy(s service.Strategy) envOption {
	return func(_ *authhttp.Config, ss *service.SessionService) { ss.Strategy = s }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	signer, err := jwtx.NewHMACSigner(testSecret)
	require.NoError(t, err)
	verifier, err := jwtx.NewHMACVerifier(testSecret, testBaseURL)
	require.NoError(t, err)

	sessions := &service.SessionService{
		Store:     st,
		Strategy:  service.StrategyJWT,
		Signer:    signer,
		Verifier:  verifier,
		Issuer:    testBaseURL,
		MaxAge:    time.Hour,
		UpdateAge: 10 * time.Minute,
		BaseURL:   testBaseURL,
	}
	cfg := authhttp.Config{
		BaseURL:      testBaseURL,
		BuildVersion: "test",
		CORS:         httpx.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		Limiter:      httpx.NewFixedWindowLimiter(1000, time.Minute),
		SignInLimit:  httpx.RateLimitConfig{RequestsPerWindow: 1000, Window: time.Minute, Burst: 1000},
		StateSecret:  testSecret,
	}
	for _, o := range opts {
		o(&cfg, sessions)
	}

	m := metrics.New("shopauth-test")
	sender := &capturingSender{}

	r := authhttp.NewRouter(cfg, st, m, slogx.Discard())
	r.Sessions = sessions
	r.Providers = &service.Providers{Credentials: &service.CredentialsResolver{Store: st}}
	r.Registration = &service.RegistrationService{Store: st}
	r.Verification = &service.VerificationService{Store: st, Sender: sender}
	r.Users = &service.UserService{Store: st}
	r.ApplyRoutes()

	return &testEnv{Router: r, Store: st, Metrics: m, Tokens: sender}
}

func (e *testEnv) seedUser(t *testing.T, email, password string, role domain.Role) domain.User {
	t.Helper()

	hash, err := cryptox.HashPassword(password)
	require.NoError(t, err)
	u := domain.User{
		ID:           idx.New().String(),
		Email:        strings.ToLower(email),
		Name:         "Seeded User",
		PasswordHash: &hash,
		Role:         role,
	}
	require.NoError(t, e.Store.Users().CreateUser(context.Background(), u))
	return u
}

type capturingSender struct {
	mu     sync.Mutex
	tokens map[string]string
}

func (s *capturingSender) SendVerificationToken(_ context.Context, identifier, token string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tokens == nil {
		s.tokens = map[string]string{}
	}
	s.tokens[identifier] = token
	return nil
}

func (s *capturingSender) Token(identifier string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens[identifier]
}
