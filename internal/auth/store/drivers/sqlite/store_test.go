package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/shopauth/internal/auth/domain"
	"github.com/aussiebroadwan/shopauth/internal/auth/store"
	"github.com/aussiebroadwan/shopauth/internal/auth/store/drivers/sqlite"
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

func createUser(t *testing.T, s store.Store, email string) domain.User {
	t.Helper()

	hash := "argon2-digest"
	u := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		Name:         "Test User",
		PasswordHash: &hash,
		Role:         domain.RoleUser,
	}
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
	return u
}

func TestMigrationsAreIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.Ping(context.Background()))
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	t.Run("email keeps its case and matches case-insensitively", func(t *testing.T) {
		u := createUser(t, s, "Alice@Example.com")

		got, err := s.Users().GetUserByEmail(ctx, "ALICE@example.COM")
		require.NoError(t, err)
		require.Equal(t, u.ID, got.ID)
		require.Equal(t, "Alice@Example.com", got.Email)
		require.Equal(t, domain.RoleUser, got.Role)
		require.True(t, got.HasPassword())
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		createUser(t, s, "bob@example.com")

		err := s.Users().CreateUser(ctx, domain.User{ID: idx.New().String(), Email: "BOB@example.com"})
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("absent user is not found", func(t *testing.T) {
		_, err := s.Users().GetUserByEmail(ctx, "nobody@example.com")
		require.ErrorIs(t, err, store.ErrNotFound)

		_, err = s.Users().GetUserByID(ctx, idx.New().String())
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("partial update touches only given fields", func(t *testing.T) {
		u := createUser(t, s, "carol@example.com")
		admin := domain.RoleAdmin

		got, err := s.Users().UpdateUser(ctx, u.ID, store.UserUpdate{Role: &admin})
		require.NoError(t, err)
		require.Equal(t, domain.RoleAdmin, got.Role)
		require.Equal(t, u.Name, got.Name)
		require.Equal(t, *u.PasswordHash, *got.PasswordHash)

		n, err := s.Users().CountByRole(ctx, domain.RoleAdmin)
		require.NoError(t, err)
		require.Equal(t, 1, n)

		_, err = s.Users().UpdateUser(ctx, idx.New().String(), store.UserUpdate{Role: &admin})
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("oauth-only user has no password", func(t *testing.T) {
		u := domain.User{ID: idx.New().String(), Email: "dave@example.com", Name: "Dave"}
		require.NoError(t, s.Users().CreateUser(ctx, u))

		got, err := s.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Nil(t, got.PasswordHash)
		require.False(t, got.HasPassword())
	})
}

func TestAccounts(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := createUser(t, s, "erin@example.com")

	access := "access-token"
	acct := domain.Account{
		ID:                idx.New().String(),
		UserID:            u.ID,
		Type:              "oauth",
		Provider:          "google",
		ProviderAccountID: "g-123",
		AccessToken:       &access,
	}
	require.NoError(t, s.Accounts().LinkAccount(ctx, acct))

	got, err := s.Users().GetUserByAccount(ctx, "google", "g-123")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	dup := acct
	dup.ID = idx.New().String()
	require.ErrorIs(t, s.Accounts().LinkAccount(ctx, dup), store.ErrAlreadyExists)

	list, err := s.Accounts().ListAccountsByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "access-token", *list[0].AccessToken)
	require.Nil(t, list[0].RefreshToken)

	require.NoError(t, s.Accounts().UnlinkAccount(ctx, "google", "g-123"))
	require.ErrorIs(t, s.Accounts().UnlinkAccount(ctx, "google", "g-123"), store.ErrNotFound)

	_, err = s.Users().GetUserByAccount(ctx, "google", "g-123")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestSessions(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := createUser(t, s, "frank@example.com")
	now := time.Now()

	live := domain.Session{ID: idx.New().String(), SessionToken: "live", UserID: u.ID, Expires: now.Add(time.Hour)}
	stale := domain.Session{ID: idx.New().String(), SessionToken: "stale", UserID: u.ID, Expires: now.Add(-time.Second)}
	require.NoError(t, s.Sessions().CreateSession(ctx, live))
	require.NoError(t, s.Sessions().CreateSession(ctx, stale))

	t.Run("live session resolves with its user", func(t *testing.T) {
		sess, user, err := s.Sessions().GetSessionAndUser(ctx, "live", now)
		require.NoError(t, err)
		require.Equal(t, live.ID, sess.ID)
		require.Equal(t, u.Email, user.Email)
		require.WithinDuration(t, live.Expires, sess.Expires, time.Millisecond)
	})

	t.Run("expired session is never returned", func(t *testing.T) {
		_, _, err := s.Sessions().GetSessionAndUser(ctx, "stale", now)
		require.ErrorIs(t, err, store.ErrNotFound)

		// Still physically present until housekeeping runs.
		require.NoError(t, s.Sessions().UpdateSession(ctx, "stale", now.Add(-time.Minute)))
	})

	t.Run("update extends expiry", func(t *testing.T) {
		later := now.Add(48 * time.Hour)
		require.NoError(t, s.Sessions().UpdateSession(ctx, "live", later))

		sess, _, err := s.Sessions().GetSessionAndUser(ctx, "live", now.Add(24*time.Hour))
		require.NoError(t, err)
		require.WithinDuration(t, later, sess.Expires, time.Millisecond)
	})

	t.Run("housekeeping removes only expired rows", func(t *testing.T) {
		n, err := s.Sessions().DeleteExpiredSessions(ctx, now)
		require.NoError(t, err)
		require.EqualValues(t, 1, n)

		require.ErrorIs(t, s.Sessions().DeleteSession(ctx, "stale"), store.ErrNotFound)
		require.NoError(t, s.Sessions().DeleteSession(ctx, "live"))
	})
}

func TestDeleteUserCascades(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := createUser(t, s, "gina@example.com")

	require.NoError(t, s.Accounts().LinkAccount(ctx, domain.Account{
		ID: idx.New().String(), UserID: u.ID, Type: "oauth", Provider: "google", ProviderAccountID: "g-9",
	}))
	require.NoError(t, s.Sessions().CreateSession(ctx, domain.Session{
		ID: idx.New().String(), SessionToken: "tok", UserID: u.ID, Expires: time.Now().Add(time.Hour),
	}))

	require.NoError(t, s.Users().DeleteUser(ctx, u.ID))

	list, err := s.Accounts().ListAccountsByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Empty(t, list)

	require.ErrorIs(t, s.Sessions().DeleteSession(ctx, "tok"), store.ErrNotFound)
	require.ErrorIs(t, s.Users().DeleteUser(ctx, u.ID), store.ErrNotFound)
}

func TestVerificationTokens(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	t.Run("single use", func(t *testing.T) {
		tok := domain.VerificationToken{Identifier: "h@example.com", Token: "fp-1", Expires: time.Now().Add(time.Hour)}
		require.NoError(t, s.VerificationTokens().CreateVerificationToken(ctx, tok))

		got, err := s.VerificationTokens().UseVerificationToken(ctx, tok.Identifier, tok.Token)
		require.NoError(t, err)
		require.Equal(t, tok.Identifier, got.Identifier)

		_, err = s.VerificationTokens().UseVerificationToken(ctx, tok.Identifier, tok.Token)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("identifier must match", func(t *testing.T) {
		tok := domain.VerificationToken{Identifier: "i@example.com", Token: "fp-2", Expires: time.Now().Add(time.Hour)}
		require.NoError(t, s.VerificationTokens().CreateVerificationToken(ctx, tok))

		_, err := s.VerificationTokens().UseVerificationToken(ctx, "other@example.com", tok.Token)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("concurrent redeemers get at most one token", func(t *testing.T) {
		tok := domain.VerificationToken{Identifier: "j@example.com", Token: "fp-3", Expires: time.Now().Add(time.Hour)}
		require.NoError(t, s.VerificationTokens().CreateVerificationToken(ctx, tok))

		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			winners  int
			otherErr error
		)
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.VerificationTokens().UseVerificationToken(ctx, tok.Identifier, tok.Token)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					winners++
				case !errors.Is(err, store.ErrNotFound):
					otherErr = err
				}
			}()
		}
		wg.Wait()

		require.NoError(t, otherErr)
		require.Equal(t, 1, winners)
	})

	t.Run("housekeeping removes expired tokens", func(t *testing.T) {
		now := time.Now()
		require.NoError(t, s.VerificationTokens().CreateVerificationToken(ctx,
			domain.VerificationToken{Identifier: "k@example.com", Token: "fp-4", Expires: now.Add(-time.Minute)}))

		n, err := s.VerificationTokens().DeleteExpiredVerificationTokens(ctx, now)
		require.NoError(t, err)
		require.EqualValues(t, 1, n)
	})
}

func TestWithTx(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	t.Run("rolls back on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := s.WithTx(ctx, func(tx store.Tx) error {
			require.NoError(t, tx.Users().CreateUser(ctx, domain.User{ID: idx.New().String(), Email: "rb@example.com"}))
			return boom
		})
		require.ErrorIs(t, err, boom)

		_, err = s.Users().GetUserByEmail(ctx, "rb@example.com")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("commits on success", func(t *testing.T) {
		err := s.WithTx(ctx, func(tx store.Tx) error {
			return tx.Users().CreateUser(ctx, domain.User{ID: idx.New().String(), Email: "ok@example.com"})
		})
		require.NoError(t, err)

		_, err = s.Users().GetUserByEmail(ctx, "ok@example.com")
		require.NoError(t, err)
	})

	t.Run("nested transactions are refused", func(t *testing.T) {
		err := s.WithTx(ctx, func(tx store.Tx) error {
			_, err := tx.Tx(ctx)
			return err
		})
		require.Error(t, err)
	})
}

func TestQueryTimeout(t *testing.T) {
	s, err := sqlite.NewStore(filepath.Join(t.TempDir(), "auth.db"), sqlite.WithQueryTimeout(time.Second))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.Users().GetUserByEmail(ctx, "x@example.com")
	require.ErrorIs(t, err, store.ErrUnavailable)
}
