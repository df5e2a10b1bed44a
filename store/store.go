package store

import (
	"context"
	"database/sql"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/tsenart/nap"
)

// DB is the connection pool plus the statement builder matching its dialect.
type DB struct {
	*nap.DB
	Driver string
	sq.StatementBuilderType
}

// Execer is satisfied by both the pool and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func New(conn *nap.DB, driver string) *DB {
	b := sq.StatementBuilder
	if driver == "postgres" {
		b = b.PlaceholderFormat(sq.Dollar)
	}

	return &DB{DB: conn, Driver: driver, StatementBuilderType: b}
}

func IsErrNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// IsErrDuplicate reports a unique constraint violation on any supported driver.
func IsErrDuplicate(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}

	return false
}
