package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/aussiebroadwan/shopauth/internal/auth/domain"
	"github.com/aussiebroadwan/shopauth/internal/auth/store"
	"github.com/aussiebroadwan/shopauth/internal/auth/store/drivers/sqlite/queries"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type Store struct {
	db      *sql.DB
	q       *queries.Queries
	dsn     string
	timeout time.Duration
}

type Option func(*Store)

// WithQueryTimeout bounds every store call. Zero disables the bound.
func WithQueryTimeout(d time.Duration) Option {
	return func(s *Store) { s.timeout = d }
}

// NewStore opens the database at dsn (a file path or file: URI). Foreign keys
// and a busy timeout are enabled on every pooled connection, and write
// transactions take the lock up front so concurrent ones queue instead of
// failing with SQLITE_BUSY.
func NewStore(dsn string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", withPragmas(dsn))
	if err != nil {
		return nil, err
	}

	s := &Store{
		db:      db,
		q:       queries.New(db),
		dsn:     dsn,
		timeout: store.DefaultQueryTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.Ping(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func withPragmas(dsn string) string {
	var extra []string
	if !strings.Contains(dsn, "foreign_keys") {
		extra = append(extra, "_pragma=foreign_keys(1)")
	}
	if !strings.Contains(dsn, "busy_timeout") {
		extra = append(extra, "_pragma=busy_timeout(5000)")
	}
	if !strings.Contains(dsn, "_txlock") {
		extra = append(extra, "_txlock=immediate")
	}
	if len(extra) == 0 {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(extra, "&")
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := store.WithTimeout(ctx, s.timeout)
	defer cancel()
	return store.MapUnavailable(s.db.PingContext(ctx))
}

// Tx starts a read/write transaction and returns a Tx-scoped Store.
func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, store.MapUnavailable(err)
	}
	return newTx(tx, s.timeout), nil
}

// WithTx executes fn within a transaction, automatically handling commit/rollback.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}

	// safe to call even after commit
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) Users() store.Users       { return &usersRepo{repo{q: s.q, timeout: s.timeout}} }
func (s *Store) Accounts() store.Accounts { return &accountsRepo{repo{q: s.q, timeout: s.timeout}} }
func (s *Store) Sessions() store.Sessions { return &sessionsRepo{repo{q: s.q, timeout: s.timeout}} }
func (s *Store) VerificationTokens() store.VerificationTokens {
	return &verificationTokensRepo{repo{q: s.q, timeout: s.timeout}}
}

// repo carries what every sub-repository needs.
type repo struct {
	q       *queries.Queries
	timeout time.Duration
}

// do runs fn under the per-call timeout and maps driver errors to store
// sentinels.
func (r repo) do(ctx context.Context, fn func(ctx context.Context, q *queries.Queries) error) error {
	ctx, cancel := store.WithTimeout(ctx, r.timeout)
	defer cancel()
	return mapError(fn(ctx, r.q))
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	var se *msqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return store.ErrAlreadyExists
		}
	}
	return store.MapUnavailable(err)
}

func mapAffected(n int64, err error) error {
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func toMillis(t time.Time) int64 { return t.UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

func mapNullStringPtr(ns sql.NullString) *string {
	if ns.Valid {
		val := ns.String
		return &val
	}
	return nil
}

func mapOptionalString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: *s, Valid: true}
}

func mapNullInt64Ptr(n sql.NullInt64) *int64 {
	if n.Valid {
		val := n.Int64
		return &val
	}
	return nil
}

func mapOptionalInt64(n *int64) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{Valid: false}
	}
	return sql.NullInt64{Int64: *n, Valid: true}
}

func mapUser(row queries.User) domain.User {
	return domain.User{
		ID:           row.ID,
		Email:        row.Email,
		Name:         row.Name,
		PasswordHash: mapNullStringPtr(row.Password),
		Role:         domain.Role(row.Role),
		CreatedAt:    fromMillis(row.CreatedAt),
		UpdatedAt:    fromMillis(row.UpdatedAt),
	}
}

func mapAccount(row queries.Account) domain.Account {
	return domain.Account{
		ID:                row.ID,
		UserID:            row.UserID,
		Type:              row.Type,
		Provider:          row.Provider,
		ProviderAccountID: row.ProviderAccountID,
		RefreshToken:      mapNullStringPtr(row.RefreshToken),
		AccessToken:       mapNullStringPtr(row.AccessToken),
		ExpiresAt:         mapNullInt64Ptr(row.ExpiresAt),
		TokenType:         mapNullStringPtr(row.TokenType),
		Scope:             mapNullStringPtr(row.Scope),
		IDToken:           mapNullStringPtr(row.IDToken),
		SessionState:      mapNullStringPtr(row.SessionState),
		CreatedAt:         fromMillis(row.CreatedAt),
	}
}

func mapSession(row queries.Session) domain.Session {
	return domain.Session{
		ID:           row.ID,
		SessionToken: row.SessionToken,
		UserID:       row.UserID,
		Expires:      fromMillis(row.Expires),
		CreatedAt:    fromMillis(row.CreatedAt),
	}
}
