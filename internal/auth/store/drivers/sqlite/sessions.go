package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/shopauth/internal/auth/domain"
	"github.com/aussiebroadwan/shopauth/internal/auth/store/drivers/sqlite/queries"
)

type sessionsRepo struct{ repo }

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	return r.do(ctx, func(ctx context.Context, q *queries.Queries) error {
		return q.CreateSession(ctx, queries.Session{
			ID:           s.ID,
			SessionToken: s.SessionToken,
			UserID:       s.UserID,
			Expires:      toMillis(s.Expires),
			CreatedAt:    toMillis(s.CreatedAt),
		})
	})
}

func (r *sessionsRepo) GetSessionAndUser(ctx context.Context, sessionToken string, now time.Time) (domain.Session, domain.User, error) {
	var (
		srow queries.Session
		urow queries.User
	)
	err := r.do(ctx, func(ctx context.Context, q *queries.Queries) (err error) {
		srow, urow, err = q.GetSessionAndUser(ctx, sessionToken, toMillis(now))
		return err
	})
	if err != nil {
		return domain.Session{}, domain.User{}, err
	}
	return mapSession(srow), mapUser(urow), nil
}

func (r *sessionsRepo) UpdateSession(ctx context.Context, sessionToken string, expires time.Time) error {
	return r.do(ctx, func(ctx context.Context, q *queries.Queries) error {
		return mapAffected(q.UpdateSessionExpires(ctx, sessionToken, toMillis(expires)))
	})
}

func (r *sessionsRepo) DeleteSession(ctx context.Context, sessionToken string) error {
	return r.do(ctx, func(ctx context.Context, q *queries.Queries) error {
		return mapAffected(q.DeleteSession(ctx, sessionToken))
	})
}

func (r *sessionsRepo) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := r.do(ctx, func(ctx context.Context, q *queries.Queries) (err error) {
		n, err = q.DeleteExpiredSessions(ctx, toMillis(now))
		return err
	})
	return n, err
}
