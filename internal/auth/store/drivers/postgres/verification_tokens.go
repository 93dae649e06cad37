package postgres

import (
	"context"
	"time"

	"github.com/aussiebroadwan/shopauth/internal/auth/domain"
)

type verificationTokensRepo struct{ repo }

func (r *verificationTokensRepo) CreateVerificationToken(ctx context.Context, t domain.VerificationToken) error {
	return r.do(ctx, func(ctx context.Context, db DBTX) error {
		_, err := db.Exec(ctx,
			`INSERT INTO verification_tokens (identifier, token, expires) VALUES ($1, $2, $3)`,
			t.Identifier, t.Token, t.Expires)
		return err
	})
}

func (r *verificationTokensRepo) UseVerificationToken(ctx context.Context, identifier, token string) (t domain.VerificationToken, err error) {
	err = r.do(ctx, func(ctx context.Context, db DBTX) error {
		return db.QueryRow(ctx, `
			DELETE FROM verification_tokens
			WHERE identifier = $1 AND token = $2
			RETURNING identifier, token, expires`,
			identifier, token,
		).Scan(&t.Identifier, &t.Token, &t.Expires)
	})
	if err != nil {
		return domain.VerificationToken{}, err
	}
	return t, nil
}

func (r *verificationTokensRepo) DeleteExpiredVerificationTokens(ctx context.Context, now time.Time) (n int64, err error) {
	err = r.do(ctx, func(ctx context.Context, db DBTX) error {
		tag, err := db.Exec(ctx, `DELETE FROM verification_tokens WHERE expires <= $1`, now)
		n = tag.RowsAffected()
		return err
	})
	return n, err
}
