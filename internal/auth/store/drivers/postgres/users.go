package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/shopauth/internal/auth/domain"
	"github.com/aussiebroadwan/shopauth/internal/auth/store"
)

type usersRepo struct{ repo }

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (u domain.User, err error) {
	err = r.do(ctx, func(ctx context.Context, db DBTX) error {
		u, err = scanUser(db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
		return err
	})
	return u, err
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (u domain.User, err error) {
	err = r.do(ctx, func(ctx context.Context, db DBTX) error {
		u, err = scanUser(db.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE lower(email) = $1`,
			domain.NormalizeEmail(email)))
		return err
	})
	return u, err
}

func (r *usersRepo) GetUserByAccount(ctx context.Context, provider, providerAccountID string) (u domain.User, err error) {
	err = r.do(ctx, func(ctx context.Context, db DBTX) error {
		u, err = scanUser(db.QueryRow(ctx, `
			SELECT u.id, u.email, u.name, u.password, u.role, u.created_at, u.updated_at
			FROM users u
			JOIN accounts a ON a.user_id = u.id
			WHERE a.provider = $1 AND a.provider_account_id = $2`,
			provider, providerAccountID))
		return err
	})
	return u, err
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.CreatedAt
	}
	if u.Role == "" {
		u.Role = domain.RoleUser
	}

	return r.do(ctx, func(ctx context.Context, db DBTX) error {
		_, err := db.Exec(ctx, `
			INSERT INTO users (id, email, name, password, role, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			u.ID, strings.TrimSpace(u.Email), u.Name, u.PasswordHash, string(u.Role), u.CreatedAt, u.UpdatedAt)
		return err
	})
}

// UpdateUser builds its SET clause from store.UserColumns only.
func (r *usersRepo) UpdateUser(ctx context.Context, id string, upd store.UserUpdate) (u domain.User, err error) {
	sets := upd.Assignments(time.Now())

	clauses := make([]string, 0, len(sets))
	args := make([]any, 0, len(sets)+1)
	for i, a := range sets {
		clauses = append(clauses, fmt.Sprintf("%s = $%d", a.Column, i+1))
		args = append(args, a.Value)
	}
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(clauses, ", "), len(args), userColumns)

	err = r.do(ctx, func(ctx context.Context, db DBTX) error {
		u, err = scanUser(db.QueryRow(ctx, query, args...))
		return err
	})
	return u, err
}

func (r *usersRepo) DeleteUser(ctx context.Context, id string) error {
	return r.do(ctx, func(ctx context.Context, db DBTX) error {
		return mapAffected(db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id))
	})
}

func (r *usersRepo) CountByRole(ctx context.Context, role domain.Role) (n int, err error) {
	err = r.do(ctx, func(ctx context.Context, db DBTX) error {
		return db.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role = $1`, string(role)).Scan(&n)
	})
	return n, err
}
