package queries

import "context"

const accountColumns = `id, user_id, type, provider, provider_account_id, refresh_token,
access_token, expires_at, token_type, scope, id_token, session_state, created_at`

const createAccount = `INSERT INTO accounts (` + accountColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateAccount(ctx context.Context, a Account) error {
	_, err := q.db.ExecContext(ctx, createAccount,
		a.ID, a.UserID, a.Type, a.Provider, a.ProviderAccountID, a.RefreshToken,
		a.AccessToken, a.ExpiresAt, a.TokenType, a.Scope, a.IDToken, a.SessionState, a.CreatedAt)
	return err
}

const deleteAccount = `DELETE FROM accounts WHERE provider = ? AND provider_account_id = ?`

func (q *Queries) DeleteAccount(ctx context.Context, provider, providerAccountID string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteAccount, provider, providerAccountID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listAccountsByUser = `SELECT ` + accountColumns + ` FROM accounts
WHERE user_id = ? ORDER BY created_at`

func (q *Queries) ListAccountsByUser(ctx context.Context, userID string) ([]Account, error) {
	rows, err := q.db.QueryContext(ctx, listAccountsByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.Type, &a.Provider, &a.ProviderAccountID, &a.RefreshToken,
			&a.AccessToken, &a.ExpiresAt, &a.TokenType, &a.Scope, &a.IDToken, &a.SessionState, &a.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
