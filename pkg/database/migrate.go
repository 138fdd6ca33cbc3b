package database

import (
	"database/sql"
	"errors"
	"fmt"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Migration dialects, matching the subdirectories of the migrations directory.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite3"
)

// RunMigrations applies every pending "up" migration found at sourceURL and reports whether
// anything was applied. It takes ownership of db and closes it, so callers pass a dedicated
// connection rather than the one serving requests.
func RunMigrations(db *sql.DB, dialect string, sourceURL string) (applied bool, err error) {
	var driver database.Driver
	switch dialect {
	case DialectPostgres:
		driver, err = postgres.WithInstance(db, &postgres.Config{})
	case DialectSQLite:
		driver, err = sqlite3.WithInstance(db, &sqlite3.Config{})
	default:
		db.Close()
		return false, fmt.Errorf("unsupported migration dialect %q", dialect)
	}
	if err != nil {
		db.Close()
		return false, fmt.Errorf("could not create %s driver instance for migrations: %w", dialect, err)
	}

	m, err := migrate.NewWithDatabaseInstance(sourceURL, dialect, driver)
	if err != nil {
		driver.Close()
		return false, fmt.Errorf("could not create migrate instance: %w", err)
	}
	defer func() {
		sourceErr, dbErr := m.Close()
		if err == nil {
			err = errors.Join(sourceErr, dbErr)
		}
	}()

	upErr := m.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return false, fmt.Errorf("failed to apply migrations: %w", upErr)
	}
	return upErr == nil, nil
}
