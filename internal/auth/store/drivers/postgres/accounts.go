package postgres

import (
	"context"
	"time"

	"github.com/aussiebroadwan/shopauth/internal/auth/domain"
	"github.com/jackc/pgx/v5"
)

type accountsRepo struct{ repo }

func (r *accountsRepo) LinkAccount(ctx context.Context, a domain.Account) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	return r.do(ctx, func(ctx context.Context, db DBTX) error {
		_, err := db.Exec(ctx, `
			INSERT INTO accounts (id, user_id, type, provider, provider_account_id, refresh_token,
				access_token, expires_at, token_type, scope, id_token, session_state, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			a.ID, a.UserID, a.Type, a.Provider, a.ProviderAccountID, a.RefreshToken,
			a.AccessToken, a.ExpiresAt, a.TokenType, a.Scope, a.IDToken, a.SessionState, a.CreatedAt)
		return err
	})
}

func (r *accountsRepo) UnlinkAccount(ctx context.Context, provider, providerAccountID string) error {
	return r.do(ctx, func(ctx context.Context, db DBTX) error {
		return mapAffected(db.Exec(ctx,
			`DELETE FROM accounts WHERE provider = $1 AND provider_account_id = $2`,
			provider, providerAccountID))
	})
}

func (r *accountsRepo) ListAccountsByUser(ctx context.Context, userID string) (accounts []domain.Account, err error) {
	err = r.do(ctx, func(ctx context.Context, db DBTX) error {
		rows, err := db.Query(ctx, `
			SELECT id, user_id, type, provider, provider_account_id, refresh_token,
				access_token, expires_at, token_type, scope, id_token, session_state, created_at
			FROM accounts WHERE user_id = $1 ORDER BY created_at`, userID)
		if err != nil {
			return err
		}
		accounts, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Account, error) {
			var a domain.Account
			err := row.Scan(&a.ID, &a.UserID, &a.Type, &a.Provider, &a.ProviderAccountID, &a.RefreshToken,
				&a.AccessToken, &a.ExpiresAt, &a.TokenType, &a.Scope, &a.IDToken, &a.SessionState, &a.CreatedAt)
			return a, err
		})
		return err
	})
	return accounts, err
}
