package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/shopauth/internal/auth/store"
	"github.com/jackc/pgx/v5"
)

type txStore struct {
	tx      pgx.Tx
	ctx     context.Context
	timeout time.Duration
}

var errNestedTx = errors.New("postgres: nested transactions are not supported")

func (t *txStore) Commit() error { return t.tx.Commit(t.ctx) }

// Rollback after Commit is a no-op.
func (t *txStore) Rollback() error {
	err := t.tx.Rollback(t.ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

func (t *txStore) Close() error                   { return nil }
func (t *txStore) Ping(ctx context.Context) error { return nil }
func (t *txStore) ApplyMigrations() error         { return nil }

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) { return nil, errNestedTx }

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error { return errNestedTx }

func (t *txStore) Users() store.Users       { return &usersRepo{repo{db: t.tx, timeout: t.timeout}} }
func (t *txStore) Accounts() store.Accounts { return &accountsRepo{repo{db: t.tx, timeout: t.timeout}} }
func (t *txStore) Sessions() store.Sessions { return &sessionsRepo{repo{db: t.tx, timeout: t.timeout}} }
func (t *txStore) VerificationTokens() store.VerificationTokens {
	return &verificationTokensRepo{repo{db: t.tx, timeout: t.timeout}}
}
