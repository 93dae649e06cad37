package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/shopauth/internal/auth/domain"
	"github.com/aussiebroadwan/shopauth/internal/auth/store"
	"github.com/aussiebroadwan/shopauth/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/shopauth/pkg/cryptox"
	"github.com/aussiebroadwan/shopauth/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.NewStore(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

// seedUser creates a user with password (empty for an OAuth-only user).
func seedUser(t *testing.T, s store.Store, email, password string, role domain.Role) domain.User {
	t.Helper()

	u := domain.User{
		ID:    idx.New().String(),
		Email: email,
		Name:  "Test User",
		Role:  role,
	}
	if password != "" {
		hash, err := cryptox.HashPassword(password)
		require.NoError(t, err)
		u.PasswordHash = &hash
	}
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
	return u
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (n *recordingNotifier) Notify(_ context.Context, ev Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *recordingNotifier) Events() []Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Event(nil), n.events...)
}
