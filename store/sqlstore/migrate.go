package sqlstore

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// runMigrations applies every pending up migration.
//
// SQLite migrates on db itself, because a second connection to an
// in-memory database would see an empty one. The migrator is not closed
// there since that would close db. PostgreSQL migrates on a private
// connection pool that is closed afterwards.
func runMigrations(db *sql.DB, driver, dsn string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	var (
		target database.Driver
		owned  *sql.DB
	)
	switch driver {
	case DriverSQLite:
		target, err = sqlitemigrate.WithInstance(db, &sqlitemigrate.Config{})
	case DriverPgx:
		owned, err = sql.Open(DriverPgx, dsn)
		if err != nil {
			src.Close()
			return fmt.Errorf("open migration connection: %w", err)
		}
		target, err = pgxmigrate.WithInstance(owned, &pgxmigrate.Config{})
	default:
		err = fmt.Errorf("unsupported driver %q", driver)
	}
	if err != nil {
		src.Close()
		if owned != nil {
			owned.Close()
		}
		return fmt.Errorf("migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, driver, target)
	if err != nil {
		src.Close()
		if owned != nil {
			owned.Close()
		}
		return fmt.Errorf("create migrator: %w", err)
	}
	if owned != nil {
		defer m.Close()
	} else {
		defer src.Close()
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
