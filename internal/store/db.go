package store

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database/sql used by the stores. Both *sql.DB and
// *sql.Tx satisfy it, so a store method runs identically inside and outside
// a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
