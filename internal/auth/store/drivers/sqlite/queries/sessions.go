package queries

import "context"

const createSession = `
INSERT INTO sessions (id, session_token, user_id, expires, created_at)
VALUES (?, ?, ?, ?, ?)`

func (q *Queries) CreateSession(ctx context.Context, s Session) error {
	_, err := q.db.ExecContext(ctx, createSession, s.ID, s.SessionToken, s.UserID, s.Expires, s.CreatedAt)
	return err
}

// The expiry filter lives in the statement so a stale row is never returned.
const getSessionAndUser = `
SELECT s.id, s.session_token, s.user_id, s.expires, s.created_at,
       u.id, u.email, u.name, u.password, u.role, u.created_at, u.updated_at
FROM sessions s
JOIN users u ON u.id = s.user_id
WHERE s.session_token = ? AND s.expires > ?`

func (q *Queries) GetSessionAndUser(ctx context.Context, sessionToken string, now int64) (Session, User, error) {
	var s Session
	var u User
	err := q.db.QueryRowContext(ctx, getSessionAndUser, sessionToken, now).Scan(
		&s.ID, &s.SessionToken, &s.UserID, &s.Expires, &s.CreatedAt,
		&u.ID, &u.Email, &u.Name, &u.Password, &u.Role, &u.CreatedAt, &u.UpdatedAt,
	)
	return s, u, err
}

const updateSessionExpires = `UPDATE sessions SET expires = ? WHERE session_token = ?`

func (q *Queries) UpdateSessionExpires(ctx context.Context, sessionToken string, expires int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateSessionExpires, expires, sessionToken)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteSession = `DELETE FROM sessions WHERE session_token = ?`

func (q *Queries) DeleteSession(ctx context.Context, sessionToken string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteSession, sessionToken)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteExpiredSessions = `DELETE FROM sessions WHERE expires <= ?`

func (q *Queries) DeleteExpiredSessions(ctx context.Context, now int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteExpiredSessions, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
