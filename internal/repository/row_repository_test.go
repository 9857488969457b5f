package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"table-sync/internal/model"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:?_foreign_keys=on"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Exec(`CREATE TABLE items (
		id TEXT PRIMARY KEY,
		name TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`).Error)

	return db
}

func itemRows(n int) []model.Row {
	rows := make([]model.Row, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, model.Row{
			"id":   fmt.Sprintf("item-%03d", i),
			"name": fmt.Sprintf("Item %d", i),
		})
	}
	return rows
}

func TestRowRepositoryInsertAndFetchPages(t *testing.T) {
	ctx := context.Background()
	repo := NewRowRepository("destination", openTestDB(t))

	require.NoError(t, repo.InsertBatch(ctx, "items", itemRows(5)))

	first, err := repo.FetchPage(ctx, "items", "id", 3, 0)
	require.NoError(t, err)
	require.Len(t, first, 3)
	assert.Equal(t, "item-000", first[0]["id"])
	assert.Equal(t, "item-002", first[2]["id"])

	second, err := repo.FetchPage(ctx, "items", "id", 3, 3)
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, "item-003", second[0]["id"])

	count, err := repo.Count(ctx, "items")
	require.NoError(t, err)
	assert.EqualValues(t, 5, count)
}

func TestRowRepositoryDeleteWhereNot(t *testing.T) {
	ctx := context.Background()
	repo := NewRowRepository("destination", openTestDB(t))
	require.NoError(t, repo.InsertBatch(ctx, "items", itemRows(4)))

	deleted, err := repo.DeleteWhereNot(ctx, "items", "id", "00000000-0000-0000-0000-000000000000")
	require.NoError(t, err)
	assert.EqualValues(t, 4, deleted)

	count, err := repo.Count(ctx, "items")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRowRepositoryDeleteWhereNotWithoutSentinel(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	require.NoError(t, db.Exec("CREATE TABLE counters (id INTEGER PRIMARY KEY, label TEXT)").Error)

	repo := NewRowRepository("destination", db)
	require.NoError(t, repo.InsertBatch(ctx, "counters", []model.Row{
		{"id": 1, "label": "a"},
		{"id": 2, "label": "b"},
		{"id": 0, "label": "zero"},
	}))

	deleted, err := repo.DeleteWhereNot(ctx, "counters", "id", nil)
	require.NoError(t, err)
	assert.EqualValues(t, 3, deleted)

	count, err := repo.Count(ctx, "counters")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRowRepositoryUpsertBatchDoesNotDuplicate(t *testing.T) {
	ctx := context.Background()
	repo := NewRowRepository("destination", openTestDB(t))
	require.NoError(t, repo.InsertBatch(ctx, "items", itemRows(2)))

	changed := []model.Row{
		{"id": "item-001", "name": "renamed"},
		{"id": "item-009", "name": "new"},
	}
	require.NoError(t, repo.UpsertBatch(ctx, "items", "id", changed))
	require.NoError(t, repo.UpsertBatch(ctx, "items", "id", changed))

	count, err := repo.Count(ctx, "items")
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	rows, err := repo.FetchPage(ctx, "items", "id", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, "renamed", rows[1]["name"])
}

func TestRowRepositoryFetchChangedPage(t *testing.T) {
	ctx := context.Background()
	repo := NewRowRepository("source", openTestDB(t))

	since := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	before := since.Add(-time.Hour)
	after := since.Add(time.Hour)

	require.NoError(t, repo.InsertBatch(ctx, "items", []model.Row{
		{"id": "a-old", "name": "untouched", "created_at": before, "updated_at": before},
		{"id": "b-new", "name": "created", "created_at": after, "updated_at": after},
		{"id": "c-upd", "name": "updated", "created_at": before, "updated_at": after},
		{"id": "d-edge", "name": "boundary", "created_at": since, "updated_at": since},
	}))

	rows, err := repo.FetchChangedPage(ctx, "items", "id", ChangeFilter{
		Columns: []string{"created_at", "updated_at"},
		Since:   since,
	}, 10, 0)
	require.NoError(t, err)

	ids := make([]interface{}, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row["id"])
	}
	assert.Equal(t, []interface{}{"b-new", "c-upd", "d-edge"}, ids)
}

func TestRowRepositoryTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := NewRowRepository("destination", openTestDB(t))
	require.NoError(t, repo.InsertBatch(ctx, "items", itemRows(2)))

	boom := errors.New("boom")
	err := repo.Transaction(ctx, func(tx RowStore) error {
		if _, err := tx.DeleteWhereNot(ctx, "items", "id", ""); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	count, err := repo.Count(ctx, "items")
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestRowRepositoryRejectsMissingIdentifiers(t *testing.T) {
	ctx := context.Background()
	repo := NewRowRepository("source", openTestDB(t))

	_, err := repo.FetchPage(ctx, "", "id", 10, 0)
	assert.ErrorIs(t, err, ErrEmptyTableName)

	_, err = repo.DeleteWhereNot(ctx, "items", "", "x")
	assert.ErrorIs(t, err, ErrEmptyKeyColumn)

	_, err = repo.FetchChangedPage(ctx, "items", "id", ChangeFilter{}, 10, 0)
	assert.ErrorIs(t, err, ErrNoFilterColumns)
}

func TestRowRepositoryMissingTable(t *testing.T) {
	ctx := context.Background()
	repo := NewRowRepository("source", openTestDB(t))

	_, err := repo.Count(ctx, "nope")
	assert.Error(t, err)
}

func TestNonKeyColumns(t *testing.T) {
	cols := nonKeyColumns([]model.Row{
		{"id": 1, "b": 2},
		{"id": 2, "a": 1, "c": 3},
	}, "id")

	assert.Equal(t, []string{"a", "b", "c"}, cols)
}
