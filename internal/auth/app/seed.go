package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aussiebroadwan/shopauth/internal/auth/domain"
	"github.com/aussiebroadwan/shopauth/internal/auth/store"
	"github.com/aussiebroadwan/shopauth/pkg/cryptox"
	"github.com/aussiebroadwan/shopauth/pkg/idx"
)

// SeedUser is a demo account created by the seed command.
type SeedUser struct {
	Email    string
	Name     string
	Password string
	Role     domain.Role
}

// DemoUsers are the development accounts. Never seed them in production.
var DemoUsers = []SeedUser{
	{Email: "admin@example.com", Name: "Admin User", Password: "AdminPassword123!", Role: domain.RoleAdmin},
	{Email: "user@example.com", Name: "John Doe", Password: "UserPassword123!", Role: domain.RoleUser},
}

// Seed creates each user that does not exist yet and returns how many were
// created. Existing users are left untouched, so seeding is repeatable.
func Seed(ctx context.Context, st store.Store, logger *slog.Logger, users []SeedUser) (int, error) {
	created := 0
	for _, su := range users {
		email := strings.TrimSpace(su.Email)

		_, err := st.Users().GetUserByEmail(ctx, email)
		if err == nil {
			logger.Info("seed user exists", "email", email)
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return created, fmt.Errorf("seed %s: %w", email, err)
		}

		hash, err := cryptox.HashPassword(su.Password)
		if err != nil {
			return created, fmt.Errorf("seed %s: %w", email, err)
		}
		u := domain.User{
			ID:           idx.New().String(),
			Email:        email,
			Name:         su.Name,
			PasswordHash: &hash,
			Role:         su.Role,
		}
		if err := st.Users().CreateUser(ctx, u); err != nil && !errors.Is(err, store.ErrAlreadyExists) {
			return created, fmt.Errorf("seed %s: %w", email, err)
		}

		created++
		logger.Info("seed user created", "email", email, "role", su.Role)
	}
	return created, nil
}
