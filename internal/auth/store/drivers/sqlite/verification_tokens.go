package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/shopauth/internal/auth/domain"
	"github.com/aussiebroadwan/shopauth/internal/auth/store/drivers/sqlite/queries"
)

type verificationTokensRepo struct{ repo }

func (r *verificationTokensRepo) CreateVerificationToken(ctx context.Context, t domain.VerificationToken) error {
	return r.do(ctx, func(ctx context.Context, q *queries.Queries) error {
		return q.CreateVerificationToken(ctx, queries.VerificationToken{
			Identifier: t.Identifier,
			Token:      t.Token,
			Expires:    toMillis(t.Expires),
		})
	})
}

func (r *verificationTokensRepo) UseVerificationToken(ctx context.Context, identifier, token string) (domain.VerificationToken, error) {
	var row queries.VerificationToken
	err := r.do(ctx, func(ctx context.Context, q *queries.Queries) (err error) {
		row, err = q.UseVerificationToken(ctx, identifier, token)
		return err
	})
	if err != nil {
		return domain.VerificationToken{}, err
	}
	return domain.VerificationToken{
		Identifier: row.Identifier,
		Token:      row.Token,
		Expires:    fromMillis(row.Expires),
	}, nil
}

func (r *verificationTokensRepo) DeleteExpiredVerificationTokens(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := r.do(ctx, func(ctx context.Context, q *queries.Queries) (err error) {
		n, err = q.DeleteExpiredVerificationTokens(ctx, toMillis(now))
		return err
	})
	return n, err
}
