package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/shopauth/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
	// ErrUnavailable wraps infrastructure failures such as a query running
	// past its deadline.
	ErrUnavailable = errors.New("store: unavailable")
)

// DefaultQueryTimeout bounds every store call unless the driver is told
// otherwise.
const DefaultQueryTimeout = 5 * time.Second

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. Sub-repositories are methods so a Tx-scoped store can hand
// out the same repos bound to the transaction, and so a Tx cannot start
// another Tx.
type Store interface {
	Users() Users
	Accounts() Accounts
	Sessions() Sessions
	VerificationTokens() VerificationTokens

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail matches case-insensitively.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// GetUserByAccount resolves the user linked to a provider identity.
	GetUserByAccount(ctx context.Context, provider, providerAccountID string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by the caller). A taken
	// email yields ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateUser applies the non-nil fields of upd and bumps updated_at.
	UpdateUser(ctx context.Context, id string, upd UserUpdate) (domain.User, error)

	// DeleteUser cascades to accounts and sessions.
	DeleteUser(ctx context.Context, id string) error

	CountByRole(ctx context.Context, role domain.Role) (int, error)
}

type Accounts interface {
	// LinkAccount stores a provider link. A duplicate (provider,
	// providerAccountId) yields ErrAlreadyExists.
	LinkAccount(ctx context.Context, a domain.Account) error

	UnlinkAccount(ctx context.Context, provider, providerAccountID string) error

	ListAccountsByUser(ctx context.Context, userID string) ([]domain.Account, error)
}

type Sessions interface {
	CreateSession(ctx context.Context, s domain.Session) error

	// GetSessionAndUser returns the session and its user only while the
	// session expires after now. Expired rows read as ErrNotFound.
	GetSessionAndUser(ctx context.Context, sessionToken string, now time.Time) (domain.Session, domain.User, error)

	UpdateSession(ctx context.Context, sessionToken string, expires time.Time) error

	DeleteSession(ctx context.Context, sessionToken string) error

	// DeleteExpiredSessions is housekeeping; it returns the number removed.
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

type VerificationTokens interface {
	CreateVerificationToken(ctx context.Context, t domain.VerificationToken) error

	// UseVerificationToken atomically deletes and returns the token. Of any
	// number of concurrent callers at most one gets it; the rest see
	// ErrNotFound.
	UseVerificationToken(ctx context.Context, identifier, token string) (domain.VerificationToken, error)

	DeleteExpiredVerificationTokens(ctx context.Context, now time.Time) (int64, error)
}
