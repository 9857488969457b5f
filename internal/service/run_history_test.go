package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"table-sync/internal/model"
)

func TestRunHistoryAggregatesTables(t *testing.T) {
	history := NewRunHistory(2)
	start := time.Now()

	history.RecordReport(model.NewSyncReport("run-1", model.SyncModeFull, []model.SyncStats{
		model.SucceededStats("parents", 2, start),
		model.FailedStats("children", 0, errors.New("boom"), start),
	}, start))
	history.RecordReport(model.NewSyncReport("run-2", model.SyncModeTable, []model.SyncStats{
		model.SucceededStats("children", 3, start),
	}, start))
	history.RecordReport(model.NewSyncReport("run-3", model.SyncModeIncremental, nil, start))

	children, err := history.GetTableHistory("children")
	require.NoError(t, err)
	assert.EqualValues(t, 2, children.TotalSyncs)
	assert.EqualValues(t, 1, children.FailedSyncs)
	assert.EqualValues(t, 3, children.RecordsSynced)
	assert.Equal(t, "boom", children.LastError)

	_, err = history.GetTableHistory("notes")
	assert.ErrorIs(t, err, ErrTableHistoryNotFound)

	recent := history.Recent(0)
	require.Len(t, recent, 2)
	assert.Equal(t, "run-3", recent[0].RunID)
	assert.Equal(t, "run-2", recent[1].RunID)

	global := history.GetGlobalHistory()
	assert.EqualValues(t, 3, global.TotalRuns)
	assert.EqualValues(t, 5, global.TotalRecordsSynced)
	assert.EqualValues(t, 1, global.RunsByMode[model.SyncModeFull])

	tables := history.GetAllTables()
	require.Len(t, tables, 2)
	assert.Equal(t, "children", tables[0].Table)
}

func TestSyncServiceRecordsHistory(t *testing.T) {
	ctx := context.Background()
	source := openStore(t, "source")
	seedSource(t, source)

	svc := NewSyncService(testCatalog(t), source, openStore(t, "destination"), SyncOptions{StrictDelete: true}, quietLogger())
	_, err := svc.SyncAll(ctx)
	require.NoError(t, err)
	_, err = svc.SyncTable(ctx, "notes")
	require.NoError(t, err)

	notes, err := svc.History().GetTableHistory("notes")
	require.NoError(t, err)
	assert.EqualValues(t, 2, notes.SuccessfulSyncs)
	assert.EqualValues(t, 2, notes.RecordsSynced)

	recent := svc.History().Recent(1)
	require.Len(t, recent, 1)
	assert.Equal(t, model.SyncModeTable, recent[0].Mode)
}
