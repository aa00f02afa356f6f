// Package migrations owns the database schema. The SQL files are embedded
// into the binary and applied with golang-migrate at startup.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// Dialects, also the directory names under migrations/.
const (
	SQLite   = "sqlite"
	Postgres = "postgres"
)

//go:embed sqlite/*.sql postgres/*.sql
var migrationsFS embed.FS

// Up applies every pending migration for dialect to db. It is a no-op when
// the schema is already current.
//
// SQLite runs on db directly and the migrator is left open, since closing
// its driver would close db. PostgreSQL gets one connection checked out of
// the pool for the run, and it is handed back before Up returns.
func Up(ctx context.Context, db *sql.DB, dialect string) error {
	source, err := iofs.New(migrationsFS, dialect)
	if err != nil {
		return fmt.Errorf("migrations: source for %q: %w", dialect, err)
	}

	switch dialect {
	case SQLite:
		driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
		if err != nil {
			return fmt.Errorf("migrations: driver: %w", err)
		}
		m, err := migrate.NewWithInstance("iofs", source, dialect, driver)
		if err != nil {
			return fmt.Errorf("migrations: create migrator: %w", err)
		}
		return up(m)

	case Postgres:
		conn, err := db.Conn(ctx)
		if err != nil {
			return fmt.Errorf("migrations: acquire conn: %w", err)
		}
		driver, err := postgres.WithConnection(ctx, conn, &postgres.Config{})
		if err != nil {
			conn.Close()
			return fmt.Errorf("migrations: driver: %w", err)
		}
		m, err := migrate.NewWithInstance("iofs", source, dialect, driver)
		if err != nil {
			driver.Close()
			return fmt.Errorf("migrations: create migrator: %w", err)
		}
		// Closes the source and the conn; db stays open.
		defer m.Close()
		return up(m)

	default:
		return fmt.Errorf("migrations: unknown dialect %q", dialect)
	}
}

func up(m *migrate.Migrate) error {
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrations: up: %w", err)
	}
	return nil
}
