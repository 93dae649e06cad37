package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aussiebroadwan/shopauth/internal/auth/domain"
	"github.com/aussiebroadwan/shopauth/internal/auth/store"
	"github.com/aussiebroadwan/shopauth/pkg/slogx"
)

// ErrLastAdmin prevents demoting the only remaining administrator.
var ErrLastAdmin = errors.New("last_admin")

type UserService struct {
	Store store.Store
}

// GetUser fetches a user by id.
func (s *UserService) GetUser(ctx context.Context, userID string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrUserNotFound
	}
	return u, err
}

// UpdateRole changes a user's role. This is the only path that writes the
// role, and only an ADMIN may take it.
func (s *UserService) UpdateRole(ctx context.Context, actor domain.SessionView, userID, role string) (domain.User, error) {
	if actor.Role != domain.RoleAdmin {
		return domain.User{}, ErrForbidden
	}

	next, err := domain.ParseRole(role)
	if err != nil {
		return domain.User{}, ErrInvalidRole
	}

	var updated domain.User
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		current, err := tx.Users().GetUserByID(ctx, userID)
		if err != nil {
			return err
		}

		if current.Role == domain.RoleAdmin && next != domain.RoleAdmin {
			admins, err := tx.Users().CountByRole(ctx, domain.RoleAdmin)
			if err != nil {
				return err
			}
			if admins <= 1 {
				return ErrLastAdmin
			}
		}

		updated, err = tx.Users().UpdateUser(ctx, userID, store.UserUpdate{Role: &next})
		return err
	})
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, err
	}

	slogx.FromContext(ctx).Info("user role changed",
		slog.String("user_id", userID),
		slog.String("role", string(next)),
		slog.String("actor_id", actor.UserID))
	return updated, nil
}
