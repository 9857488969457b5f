package repository

import (
	"context"
	"time"

	"table-sync/internal/model"
)

// ChangeFilter selects rows whose timestamp columns are at or after Since.
// A row matches when any of the columns qualifies.
type ChangeFilter struct {
	Columns []string
	Since   time.Time
}

// RowStore defines the row-level operations the sync engine needs from a store
type RowStore interface {
	// Name identifies the store in logs and metrics ("source", "destination")
	Name() string

	// FetchPage returns up to limit rows of table ordered by orderBy ascending, skipping offset rows
	FetchPage(ctx context.Context, table, orderBy string, limit, offset int) ([]model.Row, error)

	// FetchChangedPage is FetchPage restricted to rows matching filter
	FetchChangedPage(ctx context.Context, table, orderBy string, filter ChangeFilter, limit, offset int) ([]model.Row, error)

	// DeleteWhereNot deletes every row whose keyColumn differs from sentinel.
	// A nil sentinel matches every row with a non-null key, whatever the key type.
	DeleteWhereNot(ctx context.Context, table, keyColumn string, sentinel interface{}) (int64, error)

	// InsertBatch inserts rows as a single statement
	InsertBatch(ctx context.Context, table string, rows []model.Row) error

	// UpsertBatch inserts rows, updating existing ones that share keyColumn
	UpsertBatch(ctx context.Context, table, keyColumn string, rows []model.Row) error

	// Count returns the number of rows in table
	Count(ctx context.Context, table string) (int64, error)

	// Transaction runs fn against a store bound to a single transaction
	Transaction(ctx context.Context, fn func(store RowStore) error) error

	// Ping checks the store is reachable
	Ping(ctx context.Context) error
}
