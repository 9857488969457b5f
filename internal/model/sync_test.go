package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewSyncReportAggregatesOnlySuccessfulCounts(t *testing.T) {
	start := time.Now()
	stats := []SyncStats{
		SucceededStats("parents", 2, start),
		FailedStats("children", 1000, errors.New("insert failed"), start),
		SucceededStats("grandchildren", 5, start),
	}

	report := NewSyncReport("run-1", SyncModeFull, stats, start)

	assert.Equal(t, 2, report.SuccessCount)
	assert.Equal(t, 1, report.FailureCount)
	assert.Equal(t, 7, report.TotalRecordsSynced)
	assert.Len(t, report.Tables, 3)
	assert.Equal(t, "insert failed", report.Failed()[0].Error)
}

func TestNewSyncReportEmpty(t *testing.T) {
	report := NewSyncReport("run-2", SyncModeIncremental, nil, time.Now())

	assert.NotNil(t, report.Tables)
	assert.Empty(t, report.Failed())
	assert.Zero(t, report.TotalRecordsSynced)
}
