package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"table-sync/internal/database"
	"table-sync/internal/model"
	"table-sync/internal/repository"
)

func setupStores(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	stores := map[string]string{
		"source":      filepath.Join(dir, "source.db"),
		"destination": filepath.Join(dir, "destination.db"),
	}
	for name, path := range stores {
		db, err := database.OpenStore(ctx, &model.StoreConfig{Driver: model.StoreTypeSQLite, Database: path}, "error")
		require.NoError(t, err)
		require.NoError(t, db.Exec(`CREATE TABLE widgets (id TEXT PRIMARY KEY, label TEXT, created_at DATETIME, updated_at DATETIME)`).Error)

		if name == "source" {
			repo := repository.NewRowRepository(name, db)
			require.NoError(t, repo.InsertBatch(ctx, "widgets", []model.Row{
				{"id": "w1", "label": "one"},
				{"id": "w2", "label": "two"},
			}))
		}
		sqlDB, err := db.DB()
		require.NoError(t, err)
		require.NoError(t, sqlDB.Close())
	}

	cfg := `
source:
  driver: sqlite
  database: ` + stores["source"] + `
destination:
  driver: sqlite
  database: ` + stores["destination"] + `
catalog:
  tables: [widgets]
security:
  jwt_secret: test-secret
logging:
  level: error
`
	configPath = filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(cfg), 0o600))
	t.Cleanup(func() { configPath = "" })
}

func run(t *testing.T, cmd *cobra.Command, args ...string) (map[string]interface{}, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())

	var body map[string]interface{}
	if out.Len() > 0 {
		require.NoError(t, json.Unmarshal(out.Bytes(), &body))
	}
	return body, err
}

func TestFullCommand(t *testing.T) {
	setupStores(t)

	body, err := run(t, newFullCmd())
	require.NoError(t, err)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 2, body["total_records_synced"])

	body, err = run(t, newStatusCmd())
	require.NoError(t, err)
	widgets := body["sample_counts"].(map[string]interface{})["widgets"].(map[string]interface{})
	assert.Equal(t, true, widgets["synced"])
}

func TestTableCommandUnknownTable(t *testing.T) {
	setupStores(t)

	_, err := run(t, newTableCmd(), "gadgets")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "gadgets")
}

func TestIncrementalCommandRejectsBadSince(t *testing.T) {
	setupStores(t)

	_, err := run(t, newIncrementalCmd(), "--since", "last tuesday")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ISO 8601")
}

func TestIncrementalCommandAcceptsDate(t *testing.T) {
	setupStores(t)

	body, err := run(t, newIncrementalCmd(), "--since", "2024-03-01")

	require.NoError(t, err)
	assert.Equal(t, true, body["success"])
	assert.Contains(t, body["message"], "2024-03-01T00:00:00Z")
}

func TestTokenCommand(t *testing.T) {
	setupStores(t)

	var out bytes.Buffer
	cmd := newTokenCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--scope", "sync:write"})
	require.NoError(t, cmd.Execute())
	assert.NotEmpty(t, out.String())

	cmd = newTokenCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--scope", "admin"})
	assert.Error(t, cmd.Execute())
}
