package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"table-sync/internal/config"
	"table-sync/internal/model"
)

func sqliteConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := &config.Config{
		Source:      model.StoreConfig{Driver: model.StoreTypeSQLite, Database: filepath.Join(dir, "source.db")},
		Destination: model.StoreConfig{Driver: model.StoreTypeSQLite, Database: filepath.Join(dir, "destination.db")},
		Catalog:     config.CatalogConfig{Tables: []string{"accounts"}},
		Sync:        config.SyncConfig{PageSize: 2, BatchSize: 2, StatusSampleSize: 10, StrictDelete: true},
		Logging:     config.LoggingConfig{Level: "error"},
	}
	return cfg
}

func TestNewEngineSyncsBetweenSQLiteFiles(t *testing.T) {
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	engine, err := NewEngine(ctx, sqliteConfig(t), log)
	require.NoError(t, err)
	defer engine.Close()

	ddl := `CREATE TABLE accounts (id TEXT PRIMARY KEY, email TEXT)`
	require.NoError(t, engine.Pool.Source.Exec(ddl).Error)
	require.NoError(t, engine.Pool.Destination.Exec(ddl).Error)
	require.NoError(t, engine.Source.InsertBatch(ctx, "accounts", []model.Row{
		{"id": "a1", "email": "a@example.com"},
		{"id": "a2", "email": "b@example.com"},
		{"id": "a3", "email": "c@example.com"},
	}))

	report, err := engine.Sync.SyncAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, report.TotalRecordsSynced)

	status := engine.Status.Status(ctx)
	assert.True(t, status.SampleCounts["accounts"].Synced)

	health := engine.Health.CheckAll(ctx)
	assert.True(t, health.Healthy)
}

func TestNewEngineRejectsEmptyCatalog(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.Catalog.Tables = nil

	_, err := NewEngine(context.Background(), cfg, slog.Default())

	assert.Error(t, err)
}
