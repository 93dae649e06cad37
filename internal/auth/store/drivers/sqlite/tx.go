package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/shopauth/internal/auth/store"
	"github.com/aussiebroadwan/shopauth/internal/auth/store/drivers/sqlite/queries"
)

type txStore struct {
	tx      *sql.Tx
	q       *queries.Queries
	timeout time.Duration
}

func newTx(tx *sql.Tx, timeout time.Duration) *txStore {
	return &txStore{
		tx:      tx,
		q:       queries.New(tx),
		timeout: timeout,
	}
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

// nothing to close; the caller commits or rolls back and the DB stays open
func (t *txStore) Close() error { return nil }

func (t *txStore) Ping(ctx context.Context) error { return nil }

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	// Nested tx not supported; could emulate with SAVEPOINT if needed
	return nil, sql.ErrTxDone
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return sql.ErrTxDone
}

func (t *txStore) Users() store.Users       { return &usersRepo{repo{q: t.q, timeout: t.timeout}} }
func (t *txStore) Accounts() store.Accounts { return &accountsRepo{repo{q: t.q, timeout: t.timeout}} }
func (t *txStore) Sessions() store.Sessions { return &sessionsRepo{repo{q: t.q, timeout: t.timeout}} }
func (t *txStore) VerificationTokens() store.VerificationTokens {
	return &verificationTokensRepo{repo{q: t.q, timeout: t.timeout}}
}

// migrations are applied before any transaction is started
func (t *txStore) ApplyMigrations() error { return nil }
