package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"table-sync/internal/model"
)

type rowRepository struct {
	name string
	db   *gorm.DB
}

// NewRowRepository creates a RowStore backed by a gorm connection
func NewRowRepository(name string, db *gorm.DB) RowStore {
	return &rowRepository{name: name, db: db}
}

func (r *rowRepository) Name() string {
	return r.name
}

// FetchPage retrieves one ordered window of a table
func (r *rowRepository) FetchPage(ctx context.Context, table, orderBy string, limit, offset int) ([]model.Row, error) {
	if err := checkIdentifiers(table, orderBy); err != nil {
		return nil, err
	}

	var rows []model.Row
	result := r.db.WithContext(ctx).
		Table(table).
		Order(clause.OrderByColumn{Column: clause.Column{Name: orderBy}}).
		Limit(limit).
		Offset(offset).
		Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}
	return rows, nil
}

// FetchChangedPage retrieves one ordered window of rows created or updated since filter.Since
func (r *rowRepository) FetchChangedPage(ctx context.Context, table, orderBy string, filter ChangeFilter, limit, offset int) ([]model.Row, error) {
	if err := checkIdentifiers(table, orderBy); err != nil {
		return nil, err
	}
	if len(filter.Columns) == 0 {
		return nil, ErrNoFilterColumns
	}

	conditions := make([]string, 0, len(filter.Columns))
	vars := make([]interface{}, 0, 2*len(filter.Columns))
	for _, col := range filter.Columns {
		conditions = append(conditions, "? >= ?")
		vars = append(vars, clause.Column{Name: col}, filter.Since)
	}

	var rows []model.Row
	result := r.db.WithContext(ctx).
		Table(table).
		Where(strings.Join(conditions, " OR "), vars...).
		Order(clause.OrderByColumn{Column: clause.Column{Name: orderBy}}).
		Limit(limit).
		Offset(offset).
		Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}
	return rows, nil
}

// DeleteWhereNot clears a table through a row-level filter instead of TRUNCATE
func (r *rowRepository) DeleteWhereNot(ctx context.Context, table, keyColumn string, sentinel interface{}) (int64, error) {
	if err := checkIdentifiers(table, keyColumn); err != nil {
		return 0, err
	}

	var result *gorm.DB
	if sentinel == nil {
		result = r.db.WithContext(ctx).Exec("DELETE FROM ? WHERE ? IS NOT NULL",
			clause.Table{Name: table},
			clause.Column{Name: keyColumn},
		)
	} else {
		result = r.db.WithContext(ctx).Exec("DELETE FROM ? WHERE ? <> ?",
			clause.Table{Name: table},
			clause.Column{Name: keyColumn},
			sentinel,
		)
	}
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// InsertBatch inserts all rows in one statement
func (r *rowRepository) InsertBatch(ctx context.Context, table string, rows []model.Row) error {
	if table == "" {
		return ErrEmptyTableName
	}
	if len(rows) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Table(table).Create(rows).Error
}

// UpsertBatch inserts rows and overwrites the non-key columns of conflicting ones
func (r *rowRepository) UpsertBatch(ctx context.Context, table, keyColumn string, rows []model.Row) error {
	if err := checkIdentifiers(table, keyColumn); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	onConflict := clause.OnConflict{
		Columns: []clause.Column{{Name: keyColumn}},
	}
	if cols := nonKeyColumns(rows, keyColumn); len(cols) > 0 {
		onConflict.DoUpdates = clause.AssignmentColumns(cols)
	} else {
		onConflict.DoNothing = true
	}

	return r.db.WithContext(ctx).Table(table).Clauses(onConflict).Create(rows).Error
}

// Count returns the total rows in a table
func (r *rowRepository) Count(ctx context.Context, table string) (int64, error) {
	if table == "" {
		return 0, ErrEmptyTableName
	}

	var total int64
	if err := r.db.WithContext(ctx).Table(table).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// Transaction binds a copy of the repository to a gorm transaction
func (r *rowRepository) Transaction(ctx context.Context, fn func(store RowStore) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&rowRepository{name: r.name, db: tx})
	})
}

// Ping verifies the underlying connection
func (r *rowRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func checkIdentifiers(table, column string) error {
	if table == "" {
		return ErrEmptyTableName
	}
	if column == "" {
		return ErrEmptyKeyColumn
	}
	return nil
}

// nonKeyColumns returns the sorted union of columns across rows, minus the key
func nonKeyColumns(rows []model.Row, keyColumn string) []string {
	seen := make(map[string]struct{})
	for _, row := range rows {
		for col := range row {
			if col != keyColumn {
				seen[col] = struct{}{}
			}
		}
	}

	cols := make([]string, 0, len(seen))
	for col := range seen {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}
