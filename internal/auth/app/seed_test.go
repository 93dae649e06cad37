package app

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/shopauth/internal/auth/domain"
	"github.com/aussiebroadwan/shopauth/pkg/cryptox"
	"github.com/aussiebroadwan/shopauth/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestSeedIsRepeatable(t *testing.T) {
	ctx := context.Background()
	st, err := OpenStore(ctx, Config{DatabaseURL: "sqlite://" + t.TempDir() + "/auth.db"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	n, err := Seed(ctx, st, slogx.Discard(), DemoUsers)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	n, err = Seed(ctx, st, slogx.Discard(), DemoUsers)
	require.NoError(t, err)
	require.Zero(t, n)

	admin, err := st.Users().GetUserByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, admin.Role)
	require.Equal(t, "Admin User", admin.Name)
	require.True(t, cryptox.VerifyPassword("AdminPassword123!", *admin.PasswordHash))

	admins, err := st.Users().CountByRole(ctx, domain.RoleAdmin)
	require.NoError(t, err)
	require.Equal(t, 1, admins)
}
