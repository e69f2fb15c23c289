package db

import (
	"context"
	"database/sql"
)

// DBTX is what every repository is built on. Passing the *sql.Tx from
// WithinTx makes a repository part of that transaction; passing the *sql.DB
// gives autocommit reads.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ DBTX = (*sql.DB)(nil)
	_ DBTX = (*sql.Tx)(nil)
)
