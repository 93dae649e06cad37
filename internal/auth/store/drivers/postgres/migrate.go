package postgres

import (
	"errors"

	"github.com/aussiebroadwan/shopauth/internal/auth/store/drivers/postgres/migrations"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/stdlib"
)

// ApplyMigrations applies the embedded migrations through a database/sql view
// of the pool.
func (s *Store) ApplyMigrations() error {
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		return err
	}

	source, err := iofs.New(migrations.Migrations, ".")
	if err != nil {
		return err
	}

	instance, err := migrate.NewWithInstance("iofs", source, "pgx5", driver)
	if err != nil {
		return err
	}
	// Releases the connection the driver holds; the pool stays open.
	defer func() { _, _ = instance.Close() }()

	err = instance.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
