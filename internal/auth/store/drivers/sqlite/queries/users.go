package queries

import (
	"context"
	"strings"

	"github.com/aussiebroadwan/shopauth/internal/auth/store"
)

const getUserByID = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

func (q *Queries) GetUserByID(ctx context.Context, id string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByID, id))
}

const getUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE email = ? COLLATE NOCASE`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByEmail, email))
}

const getUserByAccount = `
SELECT u.id, u.email, u.name, u.password, u.role, u.created_at, u.updated_at
FROM users u
JOIN accounts a ON a.user_id = u.id
WHERE a.provider = ? AND a.provider_account_id = ?`

func (q *Queries) GetUserByAccount(ctx context.Context, provider, providerAccountID string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByAccount, provider, providerAccountID))
}

const createUser = `
INSERT INTO users (id, email, name, password, role, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateUser(ctx context.Context, u User) error {
	_, err := q.db.ExecContext(ctx, createUser,
		u.ID, u.Email, u.Name, u.Password, u.Role, u.CreatedAt, u.UpdatedAt)
	return err
}

// UpdateUser sets the given columns. Column names come from
// store.UserColumns only, never from input.
func (q *Queries) UpdateUser(ctx context.Context, id string, sets []store.Assignment) (User, error) {
	clauses := make([]string, 0, len(sets))
	args := make([]any, 0, len(sets)+1)
	for _, a := range sets {
		clauses = append(clauses, a.Column+" = ?")
		args = append(args, a.Value)
	}
	args = append(args, id)

	query := `UPDATE users SET ` + strings.Join(clauses, ", ") +
		` WHERE id = ? RETURNING ` + userColumns
	return scanUser(q.db.QueryRowContext(ctx, query, args...))
}

const deleteUser = `DELETE FROM users WHERE id = ?`

func (q *Queries) DeleteUser(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteUser, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const countUsersByRole = `SELECT COUNT(*) FROM users WHERE role = ?`

func (q *Queries) CountUsersByRole(ctx context.Context, role string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countUsersByRole, role).Scan(&n)
	return n, err
}
