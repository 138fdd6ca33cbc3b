// Package sqlite is the single-file storage backend. It implements the same repository ports as the
// PostgreSQL backend on database/sql with the mattn/go-sqlite3 driver.
//
// SQLite has no row locks. The database is opened with _txlock=immediate, so every unit of work
// takes the database write lock at BEGIN and the ...ForUpdate methods are plain selects.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/splitledger/internal/apperrors"
	"github.com/mattn/go-sqlite3"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

// wrapWriteError maps unique and primary key violations to ErrDuplicate.
func wrapWriteError(err error, what string) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) &&
		(sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique || sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey) {
		return fmt.Errorf("%w: %s", apperrors.ErrDuplicate, what)
	}
	return apperrors.NewAppError(500, "failed to write "+what, err)
}

// placeholders returns "?, ?, ..." for n arguments.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// utc normalizes timestamps before they are stored. Timestamps are compared as text, which only
// orders correctly when every value carries the same offset.
func utc(t time.Time) time.Time {
	return t.UTC()
}

func utcNull(t sql.NullTime) sql.NullTime {
	if t.Valid {
		t.Time = t.Time.UTC()
	}
	return t
}
