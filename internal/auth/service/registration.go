package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/shopauth/internal/auth/domain"
	"github.com/aussiebroadwan/shopauth/internal/auth/store"
	"github.com/aussiebroadwan/shopauth/pkg/cryptox"
	"github.com/aussiebroadwan/shopauth/pkg/idx"
	"github.com/aussiebroadwan/shopauth/pkg/slogx"
)

type RegisterInput struct {
	Name            string `json:"name" validate:"required,min=2,max=100"`
	Email           string `json:"email" validate:"required,email,max=254"`
	Password        string `json:"password" validate:"required,min=8,max=128,password_policy"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

type RegistrationService struct {
	Store store.Store
	Now   func() time.Time
}

// Register creates a USER account with a hashed password. A taken email is
// ErrEmailTaken; invalid input is a *ValidationError.
func (s *RegistrationService) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := validateStruct(in); err != nil {
		return domain.User{}, err
	}

	_, err := s.Store.Users().GetUserByEmail(ctx, in.Email)
	if err == nil {
		return domain.User{}, ErrEmailTaken
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.User{}, err
	}

	hash, err := cryptox.HashPassword(in.Password)
	if err != nil {
		return domain.User{}, err
	}

	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	now = now.UTC()

	user := domain.User{
		ID:           idx.NewAt(now).String(),
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: &hash,
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, err
	}

	slogx.FromContext(ctx).Info("user registered", slog.String("user_id", user.ID))
	return user, nil
}
