package model

import (
	"time"
)

// Row is an opaque record read from the source store and written to the
// destination store as-is.
type Row = map[string]interface{}

type SyncMode string

const (
	SyncModeFull        SyncMode = "full"
	SyncModeTable       SyncMode = "table"
	SyncModeIncremental SyncMode = "incremental"
)

// SyncStats is the outcome of syncing a single table within a run
type SyncStats struct {
	Table         string `json:"table"`
	RecordsSynced int    `json:"records_synced"`
	Success       bool   `json:"success"`
	Error         string `json:"error,omitempty"`
	DurationMs    int64  `json:"duration_ms"`
}

// SucceededStats records a table that finished with count rows written
func SucceededStats(table string, count int, startedAt time.Time) SyncStats {
	return SyncStats{
		Table:         table,
		RecordsSynced: count,
		Success:       true,
		DurationMs:    time.Since(startedAt).Milliseconds(),
	}
}

// FailedStats records a table whose sync was aborted by err. written counts
// rows that were committed before the failure.
func FailedStats(table string, written int, err error, startedAt time.Time) SyncStats {
	return SyncStats{
		Table:         table,
		RecordsSynced: written,
		Success:       false,
		Error:         err.Error(),
		DurationMs:    time.Since(startedAt).Milliseconds(),
	}
}

// SyncReport aggregates the per-table outcomes of one run
type SyncReport struct {
	RunID              string      `json:"run_id"`
	Mode               SyncMode    `json:"mode"`
	Tables             []SyncStats `json:"tables"`
	SuccessCount       int         `json:"success_count"`
	FailureCount       int         `json:"failure_count"`
	TotalRecordsSynced int         `json:"total_records_synced"`
	TotalDurationMs    int64       `json:"total_duration_ms"`
	StartedAt          time.Time   `json:"started_at"`
}

// NewSyncReport folds stats into a report. Totals only count successful tables.
func NewSyncReport(runID string, mode SyncMode, stats []SyncStats, startedAt time.Time) *SyncReport {
	report := &SyncReport{
		RunID:     runID,
		Mode:      mode,
		Tables:    stats,
		StartedAt: startedAt,
	}
	if report.Tables == nil {
		report.Tables = []SyncStats{}
	}

	for _, s := range stats {
		if s.Success {
			report.SuccessCount++
			report.TotalRecordsSynced += s.RecordsSynced
		} else {
			report.FailureCount++
		}
	}
	report.TotalDurationMs = time.Since(startedAt).Milliseconds()

	return report
}

// Failed returns the stats of every table that did not sync
func (r *SyncReport) Failed() []SyncStats {
	var failed []SyncStats
	for _, s := range r.Tables {
		if !s.Success {
			failed = append(failed, s)
		}
	}
	return failed
}

// TableCount compares the row count of one table across both stores
type TableCount struct {
	SourceCount      int64  `json:"source_count"`
	DestinationCount int64  `json:"destination_count"`
	Synced           bool   `json:"synced"`
	Error            string `json:"error,omitempty"`
}

// StatusReport is the result of a count comparison over a sample of the catalog
type StatusReport struct {
	TotalTables  int                   `json:"total_tables"`
	SampleCounts map[string]TableCount `json:"sample_counts"`
	SyncOrder    []string              `json:"sync_order"`
}
