package service

import (
	"context"
	"fmt"
	"log/slog"

	"table-sync/internal/catalog"
	"table-sync/internal/middleware"
	"table-sync/internal/model"
	"table-sync/internal/repository"
)

const DefaultBatchSize = 1000

// WriterOptions controls the destination write policy
type WriterOptions struct {
	BatchSize int
	// StrictDelete makes a failed clear fatal for the table. When false the
	// failure is logged and rows are inserted on top of whatever survived.
	StrictDelete bool
	// Transactional wraps each table's writes in one destination transaction
	Transactional bool
}

// BulkWriter applies row sets to the destination store in fixed-size batches
type BulkWriter struct {
	store   repository.RowStore
	catalog *catalog.Catalog
	opts    WriterOptions
	log     *slog.Logger
}

// NewBulkWriter creates a writer over store
func NewBulkWriter(store repository.RowStore, cat *catalog.Catalog, opts WriterOptions, log *slog.Logger) *BulkWriter {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if log == nil {
		log = slog.Default()
	}
	return &BulkWriter{
		store:   store,
		catalog: cat,
		opts:    opts,
		log:     log,
	}
}

// Clear deletes every destination row of table
func (w *BulkWriter) Clear(ctx context.Context, table string) error {
	return w.clear(ctx, w.store, table, false)
}

// clear runs against store, which may be a caller's transaction. With
// savepoint set the delete runs in a nested transaction so a tolerated
// failure does not poison the enclosing one.
func (w *BulkWriter) clear(ctx context.Context, store repository.RowStore, table string, savepoint bool) error {
	pk := w.catalog.PrimaryKey(table)

	var sentinel interface{}
	if s, ok := w.catalog.DeleteSentinel(table); ok {
		sentinel = s
	}

	var deleted int64
	var err error
	if savepoint {
		err = store.Transaction(ctx, func(sp repository.RowStore) error {
			n, err := sp.DeleteWhereNot(ctx, table, pk, sentinel)
			deleted = n
			return err
		})
	} else {
		deleted, err = store.DeleteWhereNot(ctx, table, pk, sentinel)
	}
	if err != nil {
		middleware.RecordDeleteFailure(table)
		if w.opts.StrictDelete {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
		w.log.Warn("clearing destination table failed, inserting anyway", "table", table, "error", err)
		return nil
	}

	w.log.Debug("cleared destination table", "table", table, "deleted", deleted)
	return nil
}

// Insert writes rows in source order and returns how many were committed
func (w *BulkWriter) Insert(ctx context.Context, table string, rows []model.Row) (int, error) {
	if !w.opts.Transactional {
		return w.insertBatches(ctx, w.store, table, rows)
	}

	var inserted int
	err := w.store.Transaction(ctx, func(tx repository.RowStore) error {
		var err error
		inserted, err = w.insertBatches(ctx, tx, table, rows)
		return err
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// Replace clears table and inserts rows in its place
func (w *BulkWriter) Replace(ctx context.Context, table string, rows []model.Row) (int, error) {
	if !w.opts.Transactional {
		if err := w.clear(ctx, w.store, table, false); err != nil {
			return 0, err
		}
		return w.insertBatches(ctx, w.store, table, rows)
	}

	var inserted int
	err := w.store.Transaction(ctx, func(tx repository.RowStore) error {
		if err := w.clear(ctx, tx, table, true); err != nil {
			return err
		}
		var err error
		inserted, err = w.insertBatches(ctx, tx, table, rows)
		return err
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// Upsert inserts rows or updates the ones whose primary key already exists
func (w *BulkWriter) Upsert(ctx context.Context, table string, rows []model.Row) (int, error) {
	pk := w.catalog.PrimaryKey(table)

	written := 0
	for start := 0; start < len(rows); start += w.opts.BatchSize {
		end := min(start+w.opts.BatchSize, len(rows))

		if err := w.store.UpsertBatch(ctx, table, pk, rows[start:end]); err != nil {
			return written, fmt.Errorf("upserting %s rows %d-%d: %w", table, start, end-1, err)
		}
		written = end
	}

	return written, nil
}

func (w *BulkWriter) insertBatches(ctx context.Context, store repository.RowStore, table string, rows []model.Row) (int, error) {
	inserted := 0
	for start := 0; start < len(rows); start += w.opts.BatchSize {
		end := min(start+w.opts.BatchSize, len(rows))

		if err := store.InsertBatch(ctx, table, rows[start:end]); err != nil {
			return inserted, fmt.Errorf("inserting %s rows %d-%d: %w", table, start, end-1, err)
		}
		inserted = end
		w.log.Debug("inserted batch", "table", table, "inserted", inserted, "total", len(rows))
	}

	return inserted, nil
}
