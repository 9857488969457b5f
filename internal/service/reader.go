package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"table-sync/internal/catalog"
	"table-sync/internal/middleware"
	"table-sync/internal/model"
	"table-sync/internal/repository"
)

const DefaultPageSize = 1000

// PaginatedReader pulls whole tables out of the source store one page at a time
type PaginatedReader struct {
	store    repository.RowStore
	catalog  *catalog.Catalog
	pageSize int
	log      *slog.Logger
}

// NewPaginatedReader creates a reader over store
func NewPaginatedReader(store repository.RowStore, cat *catalog.Catalog, pageSize int, log *slog.Logger) *PaginatedReader {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if log == nil {
		log = slog.Default()
	}
	return &PaginatedReader{
		store:    store,
		catalog:  cat,
		pageSize: pageSize,
		log:      log,
	}
}

// ReadAll returns every row of table ordered by its primary key
func (r *PaginatedReader) ReadAll(ctx context.Context, table string) ([]model.Row, error) {
	return r.read(ctx, table, nil)
}

// ReadChanged returns the rows of table created or updated at or after since
func (r *PaginatedReader) ReadChanged(ctx context.Context, table string, since time.Time) ([]model.Row, error) {
	cols := r.catalog.Timestamps(table)
	return r.read(ctx, table, &repository.ChangeFilter{
		Columns: []string{cols.CreatedAt, cols.UpdatedAt},
		Since:   since,
	})
}

// read keeps requesting pages until one comes back short. The offset always
// advances by exactly pageSize, so ordered pages never overlap.
func (r *PaginatedReader) read(ctx context.Context, table string, filter *repository.ChangeFilter) ([]model.Row, error) {
	pk := r.catalog.PrimaryKey(table)

	var all []model.Row
	for offset := 0; ; offset += r.pageSize {
		var (
			page []model.Row
			err  error
		)
		if filter == nil {
			page, err = r.store.FetchPage(ctx, table, pk, r.pageSize, offset)
		} else {
			page, err = r.store.FetchChangedPage(ctx, table, pk, *filter, r.pageSize, offset)
		}
		if err != nil {
			return nil, fmt.Errorf("fetching %s at offset %d: %w", table, offset, err)
		}

		all = append(all, page...)
		middleware.RecordRowsRead(table, len(page))
		r.log.Debug("fetched page", "table", table, "offset", offset, "page_rows", len(page), "total_rows", len(all))

		if len(page) < r.pageSize {
			break
		}
	}

	return all, nil
}
