package adapters

import "context"

// DBAdapter runs interpolated SQL statements.
type DBAdapter interface {
	Query(ctx context.Context, query string) (DBRows, error)
	Exec(ctx context.Context, query string) (DBResult, error)
}

// DBRows iterates over the rows of a query result.
type DBRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// DBResult describes the outcome of a statement that returns no rows.
type DBResult interface {
	RowsAffected() (int64, error)
}
