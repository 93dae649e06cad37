package cryptox

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	// A fixed pepper keeps the whole package on the peppered code path.
	SetPepper("test-pepper")
	os.Exit(m.Run())
}

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{"simple password", "password123"},
		{"complex password", "P@ssw0rd!#$%^&*()"},
		{"long password", strings.Repeat("a", 100)},
		{"empty password", ""},
		{"unicode password", "пароль🔒密码"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password)
			require.NoError(t, err)

			parts := strings.Split(hash, "$")
			require.Len(t, parts, 6, "PHC hash should have 6 parts")
			require.Equal(t, "argon2id", parts[1])
			require.Equal(t, "v=19", parts[2])
			require.Equal(t, "m=19456,t=2,p=1", parts[3])
			require.NotEmpty(t, parts[4], "salt should not be empty")
			require.NotEmpty(t, parts[5], "hash should not be empty")

			require.True(t, VerifyPassword(tt.password, hash))
		})
	}
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	hash1, err := HashPassword("UserPassword123!")
	require.NoError(t, err)
	hash2, err := HashPassword("UserPassword123!")
	require.NoError(t, err)

	require.NotEqual(t, hash1, hash2, "hashes should differ due to unique salts")
	require.True(t, VerifyPassword("UserPassword123!", hash1))
	require.True(t, VerifyPassword("UserPassword123!", hash2))
}

func TestHashPasswordWithParams_RejectsZeroCost(t *testing.T) {
	_, err := HashPasswordWithParams("x", Params{})
	require.Error(t, err)
}

func TestVerifyPassword_WrongPassword(t *testing.T) {
	hash, err := HashPassword("UserPassword123!")
	require.NoError(t, err)

	for _, wrong := range []string{
		"WrongPassword!",
		"userpassword123!",
		"UserPassword123! ",
		"",
		strings.Repeat("x", 10000),
	} {
		require.False(t, VerifyPassword(wrong, hash), "password %q should not verify", wrong)
	}
}

func TestVerifyPassword_PepperMismatch(t *testing.T) {
	hash, err := HashPassword("UserPassword123!")
	require.NoError(t, err)

	SetPepper("another-pepper")
	t.Cleanup(func() { SetPepper("test-pepper") })

	require.False(t, VerifyPassword("UserPassword123!", hash))
}

func TestVerifyPassword_MalformedDigest(t *testing.T) {
	tests := []struct {
		name   string
		digest string
	}{
		{"empty", ""},
		{"plaintext", "UserPassword123!"},
		{"wrong algorithm", "$bcrypt$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA"},
		{"missing parts", "$argon2id$v=19$m=19456"},
		{"malformed parameters", "$argon2id$v=19$invalid$c2FsdA$aGFzaA"},
		{"zero memory", "$argon2id$v=19$m=0,t=2,p=1$c2FsdA$aGFzaA"},
		{"absurd memory", "$argon2id$v=19$m=99999999,t=2,p=1$c2FsdA$aGFzaA"},
		{"invalid base64 salt", "$argon2id$v=19$m=19456,t=2,p=1$!!!invalid!!!$aGFzaA"},
		{"invalid base64 hash", "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$!!!invalid!!!"},
		{"wrong version", "$argon2id$v=18$m=19456,t=2,p=1$c2FsdA$aGFzaA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotPanics(t, func() {
				require.False(t, VerifyPassword("UserPassword123!", tt.digest))
			})
		})
	}
}

func TestVerifyPassword_HonoursEncodedParams(t *testing.T) {
	weak := Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
	hash, err := HashPasswordWithParams("UserPassword123!", weak)
	require.NoError(t, err)
	require.Contains(t, hash, "m=8192,t=1,p=1")

	require.True(t, VerifyPassword("UserPassword123!", hash))
	require.True(t, NeedsRehash(hash, DefaultParams))

	strong, err := HashPassword("UserPassword123!")
	require.NoError(t, err)
	require.False(t, NeedsRehash(strong, DefaultParams))
	require.True(t, NeedsRehash("garbage", DefaultParams))
}

func TestLoadPepper(t *testing.T) {
	t.Cleanup(func() { SetPepper("test-pepper") })

	t.Run("generates and persists when missing", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "secrets", "pepper")

		p1, err := LoadPepper(path)
		require.NoError(t, err)
		require.NotEmpty(t, p1)
		require.Equal(t, p1, GetPepper())

		p2, err := LoadPepper(path)
		require.NoError(t, err)
		require.Equal(t, p1, p2, "second load should read the stored pepper")
	})

	t.Run("empty path disables pepper", func(t *testing.T) {
		p, err := LoadPepper("")
		require.NoError(t, err)
		require.Empty(t, p)
		require.Empty(t, GetPepper())
	})

	t.Run("empty file is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pepper")
		require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o600))

		_, err := LoadPepper(path)
		require.Error(t, err)
	})
}

func TestGeneratePassword(t *testing.T) {
	seen := make(map[string]bool)
	for range 20 {
		password, err := GeneratePassword()
		require.NoError(t, err)
		require.Len(t, password, 16)
		require.True(t, strings.ContainsAny(password, "abcdefghijklmnopqrstuvwxyz"))
		require.True(t, strings.ContainsAny(password, "ABCDEFGHIJKLMNOPQRSTUVWXYZ"))
		require.True(t, strings.ContainsAny(password, "0123456789"))
		require.True(t, strings.ContainsAny(password, "@$!%*?&"))
		require.False(t, seen[password], "duplicate password generated")
		seen[password] = true
	}
}
