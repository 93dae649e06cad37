package service

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/shopauth/internal/auth/domain"
	"github.com/aussiebroadwan/shopauth/internal/auth/store"
	"github.com/aussiebroadwan/shopauth/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestCredentialsResolver(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	r := &CredentialsResolver{Store: s}

	admin := seedUser(t, s, "Admin@Example.com", "AdminPassword123!", domain.RoleAdmin)
	seedUser(t, s, "oauth-only@example.com", "", domain.RoleUser)

	t.Run("valid credentials carry the role", func(t *testing.T) {
		id, err := r.Authorize(ctx, "admin@example.com", "AdminPassword123!")
		require.NoError(t, err)
		require.Equal(t, admin.ID, id.UserID)
		require.Equal(t, domain.RoleAdmin, id.Role)
		require.Equal(t, "Admin@Example.com", id.Email)
		require.False(t, id.IsNewUser)
	})

	t.Run("email lookup ignores case and whitespace", func(t *testing.T) {
		id, err := r.Authorize(ctx, "  ADMIN@example.COM ", "AdminPassword123!")
		require.NoError(t, err)
		require.Equal(t, admin.ID, id.UserID)
	})

	t.Run("every failure is the same error", func(t *testing.T) {
		cases := map[string][2]string{
			"wrong password":   {"admin@example.com", "WrongPassword123!"},
			"unknown email":    {"nobody@example.com", "AdminPassword123!"},
			"no password hash": {"oauth-only@example.com", "AdminPassword123!"},
			"malformed email":  {"not-an-email", "AdminPassword123!"},
			"short password":   {"admin@example.com", "short"},
			"empty":            {"", ""},
		}
		for name, c := range cases {
			_, err := r.Authorize(ctx, c[0], c[1])
			require.Same(t, ErrInvalidCredentials, err, name)
		}
	})

	t.Run("store failures are not credential failures", func(t *testing.T) {
		broken := newTestStore(t)
		require.NoError(t, broken.Close())

		_, err := (&CredentialsResolver{Store: broken}).Authorize(ctx, "admin@example.com", "AdminPassword123!")
		require.Error(t, err)
		require.NotErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestCredentialsResolverUpgradesWeakDigests(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	weak := cryptox.Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
	hash, err := cryptox.HashPasswordWithParams("UserPassword123!", weak)
	require.NoError(t, err)

	u := seedUser(t, s, "user@example.com", "", domain.RoleUser)
	_, err = s.Users().UpdateUser(ctx, u.ID, store.UserUpdate{PasswordHash: &hash})
	require.NoError(t, err)

	r := &CredentialsResolver{Store: s}
	_, err = r.Authorize(ctx, "user@example.com", "UserPassword123!")
	require.NoError(t, err)

	got, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotEqual(t, hash, *got.PasswordHash)
	require.False(t, cryptox.NeedsRehash(*got.PasswordHash, cryptox.DefaultParams))
	require.True(t, cryptox.VerifyPassword("UserPassword123!", *got.PasswordHash))
}
