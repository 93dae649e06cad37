package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/aussiebroadwan/shopauth/internal/auth/domain"
	"github.com/aussiebroadwan/shopauth/internal/auth/store"
	"github.com/aussiebroadwan/shopauth/internal/auth/store/drivers/sqlite/queries"
)

type usersRepo struct{ repo }

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	var row queries.User
	err := r.do(ctx, func(ctx context.Context, q *queries.Queries) (err error) {
		row, err = q.GetUserByID(ctx, id)
		return err
	})
	if err != nil {
		return domain.User{}, err
	}
	return mapUser(row), nil
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	var row queries.User
	err := r.do(ctx, func(ctx context.Context, q *queries.Queries) (err error) {
		row, err = q.GetUserByEmail(ctx, domain.NormalizeEmail(email))
		return err
	})
	if err != nil {
		return domain.User{}, err
	}
	return mapUser(row), nil
}

func (r *usersRepo) GetUserByAccount(ctx context.Context, provider, providerAccountID string) (domain.User, error) {
	var row queries.User
	err := r.do(ctx, func(ctx context.Context, q *queries.Queries) (err error) {
		row, err = q.GetUserByAccount(ctx, provider, providerAccountID)
		return err
	})
	if err != nil {
		return domain.User{}, err
	}
	return mapUser(row), nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.CreatedAt
	}
	if u.Role == "" {
		u.Role = domain.RoleUser
	}

	return r.do(ctx, func(ctx context.Context, q *queries.Queries) error {
		return q.CreateUser(ctx, queries.User{
			ID:        u.ID,
			Email:     strings.TrimSpace(u.Email),
			Name:      u.Name,
			Password:  mapOptionalString(u.PasswordHash),
			Role:      string(u.Role),
			CreatedAt: toMillis(u.CreatedAt),
			UpdatedAt: toMillis(u.UpdatedAt),
		})
	})
}

func (r *usersRepo) UpdateUser(ctx context.Context, id string, upd store.UserUpdate) (domain.User, error) {
	var row queries.User
	err := r.do(ctx, func(ctx context.Context, q *queries.Queries) (err error) {
		row, err = q.UpdateUser(ctx, id, upd.Assignments(toMillis(time.Now())))
		return err
	})
	if err != nil {
		return domain.User{}, err
	}
	return mapUser(row), nil
}

func (r *usersRepo) DeleteUser(ctx context.Context, id string) error {
	return r.do(ctx, func(ctx context.Context, q *queries.Queries) error {
		return mapAffected(q.DeleteUser(ctx, id))
	})
}

func (r *usersRepo) CountByRole(ctx context.Context, role domain.Role) (int, error) {
	var n int64
	err := r.do(ctx, func(ctx context.Context, q *queries.Queries) (err error) {
		n, err = q.CountUsersByRole(ctx, string(role))
		return err
	})
	return int(n), err
}
