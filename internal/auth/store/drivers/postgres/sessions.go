package postgres

import (
	"context"
	"time"

	"github.com/aussiebroadwan/shopauth/internal/auth/domain"
)

type sessionsRepo struct{ repo }

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	return r.do(ctx, func(ctx context.Context, db DBTX) error {
		_, err := db.Exec(ctx, `
			INSERT INTO sessions (id, session_token, user_id, expires, created_at)
			VALUES ($1, $2, $3, $4, $5)`,
			s.ID, s.SessionToken, s.UserID, s.Expires, s.CreatedAt)
		return err
	})
}

func (r *sessionsRepo) GetSessionAndUser(ctx context.Context, sessionToken string, now time.Time) (s domain.Session, u domain.User, err error) {
	err = r.do(ctx, func(ctx context.Context, db DBTX) error {
		var role string
		err := db.QueryRow(ctx, `
			SELECT s.id, s.session_token, s.user_id, s.expires, s.created_at,
			       u.id, u.email, u.name, u.password, u.role, u.created_at, u.updated_at
			FROM sessions s
			JOIN users u ON u.id = s.user_id
			WHERE s.session_token = $1 AND s.expires > $2`,
			sessionToken, now,
		).Scan(
			&s.ID, &s.SessionToken, &s.UserID, &s.Expires, &s.CreatedAt,
			&u.ID, &u.Email, &u.Name, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt,
		)
		u.Role = domain.Role(role)
		return err
	})
	if err != nil {
		return domain.Session{}, domain.User{}, err
	}
	return s, u, nil
}

func (r *sessionsRepo) UpdateSession(ctx context.Context, sessionToken string, expires time.Time) error {
	return r.do(ctx, func(ctx context.Context, db DBTX) error {
		return mapAffected(db.Exec(ctx,
			`UPDATE sessions SET expires = $1 WHERE session_token = $2`, expires, sessionToken))
	})
}

func (r *sessionsRepo) DeleteSession(ctx context.Context, sessionToken string) error {
	return r.do(ctx, func(ctx context.Context, db DBTX) error {
		return mapAffected(db.Exec(ctx, `DELETE FROM sessions WHERE session_token = $1`, sessionToken))
	})
}

func (r *sessionsRepo) DeleteExpiredSessions(ctx context.Context, now time.Time) (n int64, err error) {
	err = r.do(ctx, func(ctx context.Context, db DBTX) error {
		tag, err := db.Exec(ctx, `DELETE FROM sessions WHERE expires <= $1`, now)
		n = tag.RowsAffected()
		return err
	})
	return n, err
}
