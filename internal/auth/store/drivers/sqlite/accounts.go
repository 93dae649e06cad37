package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/shopauth/internal/auth/domain"
	"github.com/aussiebroadwan/shopauth/internal/auth/store/drivers/sqlite/queries"
)

type accountsRepo struct{ repo }

func (r *accountsRepo) LinkAccount(ctx context.Context, a domain.Account) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	return r.do(ctx, func(ctx context.Context, q *queries.Queries) error {
		return q.CreateAccount(ctx, queries.Account{
			ID:                a.ID,
			UserID:            a.UserID,
			Type:              a.Type,
			Provider:          a.Provider,
			ProviderAccountID: a.ProviderAccountID,
			RefreshToken:      mapOptionalString(a.RefreshToken),
			AccessToken:       mapOptionalString(a.AccessToken),
			ExpiresAt:         mapOptionalInt64(a.ExpiresAt),
			TokenType:         mapOptionalString(a.TokenType),
			Scope:             mapOptionalString(a.Scope),
			IDToken:           mapOptionalString(a.IDToken),
			SessionState:      mapOptionalString(a.SessionState),
			CreatedAt:         toMillis(a.CreatedAt),
		})
	})
}

func (r *accountsRepo) UnlinkAccount(ctx context.Context, provider, providerAccountID string) error {
	return r.do(ctx, func(ctx context.Context, q *queries.Queries) error {
		return mapAffected(q.DeleteAccount(ctx, provider, providerAccountID))
	})
}

func (r *accountsRepo) ListAccountsByUser(ctx context.Context, userID string) ([]domain.Account, error) {
	var rows []queries.Account
	err := r.do(ctx, func(ctx context.Context, q *queries.Queries) (err error) {
		rows, err = q.ListAccountsByUser(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	accounts := make([]domain.Account, len(rows))
	for i, row := range rows {
		accounts[i] = mapAccount(row)
	}
	return accounts, nil
}
