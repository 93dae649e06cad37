package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/shopauth/internal/auth/domain"
	"github.com/aussiebroadwan/shopauth/internal/auth/store"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

type Config struct {
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	QueryTimeout    time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxConns:        10,
		MinConns:        1,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
		QueryTimeout:    store.DefaultQueryTimeout,
	}
}

// NewStore connects a pool to databaseURL and checks it answers.
func NewStore(ctx context.Context, databaseURL string, cfg Config) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}

	s := &Store{pool: pool, timeout: cfg.QueryTimeout}
	if err := s.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := store.WithTimeout(ctx, s.timeout)
	defer cancel()
	return store.MapUnavailable(s.pool.Ping(ctx))
}

func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, store.MapUnavailable(err)
	}
	return &txStore{tx: tx, ctx: ctx, timeout: s.timeout}, nil
}

func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) Users() store.Users       { return &usersRepo{repo{db: s.pool, timeout: s.timeout}} }
func (s *Store) Accounts() store.Accounts { return &accountsRepo{repo{db: s.pool, timeout: s.timeout}} }
func (s *Store) Sessions() store.Sessions { return &sessionsRepo{repo{db: s.pool, timeout: s.timeout}} }
func (s *Store) VerificationTokens() store.VerificationTokens {
	return &verificationTokensRepo{repo{db: s.pool, timeout: s.timeout}}
}

type repo struct {
	db      DBTX
	timeout time.Duration
}

func (r repo) do(ctx context.Context, fn func(ctx context.Context, db DBTX) error) error {
	ctx, cancel := store.WithTimeout(ctx, r.timeout)
	defer cancel()
	return mapError(fn(ctx, r.db))
}

const uniqueViolation = "23505"

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return store.ErrAlreadyExists
	}
	return store.MapUnavailable(err)
}

func mapAffected(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

const userColumns = `id, email, name, password, role, created_at, updated_at`

func scanUser(row pgx.Row) (domain.User, error) {
	var (
		u    domain.User
		role string
	)
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt)
	u.Role = domain.Role(role)
	return u, err
}
