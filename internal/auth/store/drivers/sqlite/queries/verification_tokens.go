package queries

import "context"

const createVerificationToken = `
INSERT INTO verification_tokens (identifier, token, expires) VALUES (?, ?, ?)`

func (q *Queries) CreateVerificationToken(ctx context.Context, t VerificationToken) error {
	_, err := q.db.ExecContext(ctx, createVerificationToken, t.Identifier, t.Token, t.Expires)
	return err
}

// Single statement: concurrent redeemers race on the delete and only one
// gets a row back.
const useVerificationToken = `
DELETE FROM verification_tokens
WHERE identifier = ? AND token = ?
RETURNING identifier, token, expires`

func (q *Queries) UseVerificationToken(ctx context.Context, identifier, token string) (VerificationToken, error) {
	var t VerificationToken
	err := q.db.QueryRowContext(ctx, useVerificationToken, identifier, token).
		Scan(&t.Identifier, &t.Token, &t.Expires)
	return t, err
}

const deleteExpiredVerificationTokens = `DELETE FROM verification_tokens WHERE expires <= ?`

func (q *Queries) DeleteExpiredVerificationTokens(ctx context.Context, now int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteExpiredVerificationTokens, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
