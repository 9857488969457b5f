package service

import (
	"errors"
	"sort"
	"sync"
	"time"

	"table-sync/internal/model"
)

const DefaultHistorySize = 20

var ErrTableHistoryNotFound = errors.New("no sync history for table")

// RunHistory keeps in-process aggregates of past sync runs
type RunHistory struct {
	tables      map[string]*TableHistory
	tablesMutex sync.RWMutex

	recent      []RunSummary
	global      *GlobalHistory
	globalMutex sync.RWMutex

	maxRecent int
}

// TableHistory aggregates every sync attempt of one table
type TableHistory struct {
	Table           string    `json:"table"`
	TotalSyncs      int64     `json:"total_syncs"`
	SuccessfulSyncs int64     `json:"successful_syncs"`
	FailedSyncs     int64     `json:"failed_syncs"`
	RecordsSynced   int64     `json:"records_synced"`
	TotalDurationMs int64     `json:"total_duration_ms"`
	MinDurationMs   int64     `json:"min_duration_ms"`
	MaxDurationMs   int64     `json:"max_duration_ms"`
	AvgDurationMs   int64     `json:"avg_duration_ms"`
	LastSyncTime    time.Time `json:"last_sync_time"`
	LastError       string    `json:"last_error,omitempty"`
	LastErrorTime   time.Time `json:"last_error_time,omitempty"`
}

// GlobalHistory holds process-wide run counters
type GlobalHistory struct {
	TotalRuns          int64                    `json:"total_runs"`
	RunsByMode         map[model.SyncMode]int64 `json:"runs_by_mode"`
	TotalRecordsSynced int64                    `json:"total_records_synced"`
	TablesFailed       int64                    `json:"tables_failed"`
	StartTime          time.Time                `json:"start_time"`
}

// RunSummary is the condensed form of a finished run
type RunSummary struct {
	RunID              string         `json:"run_id"`
	Mode               model.SyncMode `json:"mode"`
	StartedAt          time.Time      `json:"started_at"`
	SuccessCount       int            `json:"success_count"`
	FailureCount       int            `json:"failure_count"`
	TotalRecordsSynced int            `json:"total_records_synced"`
	TotalDurationMs    int64          `json:"total_duration_ms"`
}

// NewRunHistory creates a history retaining the last maxRecent run summaries
func NewRunHistory(maxRecent int) *RunHistory {
	if maxRecent <= 0 {
		maxRecent = DefaultHistorySize
	}
	return &RunHistory{
		tables:    make(map[string]*TableHistory),
		maxRecent: maxRecent,
		global: &GlobalHistory{
			RunsByMode: make(map[model.SyncMode]int64),
			StartTime:  time.Now(),
		},
	}
}

// RecordReport folds a finished run into the history
func (h *RunHistory) RecordReport(report *model.SyncReport) {
	if report == nil {
		return
	}

	for _, stats := range report.Tables {
		h.recordTable(stats, report.StartedAt)
	}

	h.globalMutex.Lock()
	defer h.globalMutex.Unlock()

	h.global.TotalRuns++
	h.global.RunsByMode[report.Mode]++
	h.global.TotalRecordsSynced += int64(report.TotalRecordsSynced)
	h.global.TablesFailed += int64(report.FailureCount)

	h.recent = append(h.recent, RunSummary{
		RunID:              report.RunID,
		Mode:               report.Mode,
		StartedAt:          report.StartedAt,
		SuccessCount:       report.SuccessCount,
		FailureCount:       report.FailureCount,
		TotalRecordsSynced: report.TotalRecordsSynced,
		TotalDurationMs:    report.TotalDurationMs,
	})
	if len(h.recent) > h.maxRecent {
		h.recent = h.recent[len(h.recent)-h.maxRecent:]
	}
}

func (h *RunHistory) recordTable(stats model.SyncStats, at time.Time) {
	h.tablesMutex.Lock()
	defer h.tablesMutex.Unlock()

	th, exists := h.tables[stats.Table]
	if !exists {
		th = &TableHistory{
			Table:         stats.Table,
			MinDurationMs: stats.DurationMs,
			MaxDurationMs: stats.DurationMs,
		}
		h.tables[stats.Table] = th
	}

	th.TotalSyncs++
	th.TotalDurationMs += stats.DurationMs
	th.LastSyncTime = at

	if stats.Success {
		th.SuccessfulSyncs++
		th.RecordsSynced += int64(stats.RecordsSynced)
	} else {
		th.FailedSyncs++
		th.LastError = stats.Error
		th.LastErrorTime = at
	}

	if stats.DurationMs < th.MinDurationMs {
		th.MinDurationMs = stats.DurationMs
	}
	if stats.DurationMs > th.MaxDurationMs {
		th.MaxDurationMs = stats.DurationMs
	}
	th.AvgDurationMs = th.TotalDurationMs / th.TotalSyncs
}

// GetTableHistory returns a copy of the aggregates for one table
func (h *RunHistory) GetTableHistory(table string) (*TableHistory, error) {
	h.tablesMutex.RLock()
	defer h.tablesMutex.RUnlock()

	th, exists := h.tables[table]
	if !exists {
		return nil, ErrTableHistoryNotFound
	}

	out := *th
	return &out, nil
}

// GetAllTables returns copies of every table aggregate, sorted by table name
func (h *RunHistory) GetAllTables() []TableHistory {
	h.tablesMutex.RLock()
	defer h.tablesMutex.RUnlock()

	out := make([]TableHistory, 0, len(h.tables))
	for _, th := range h.tables {
		out = append(out, *th)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Table < out[j].Table })
	return out
}

// Recent returns up to n run summaries, newest first
func (h *RunHistory) Recent(n int) []RunSummary {
	h.globalMutex.RLock()
	defer h.globalMutex.RUnlock()

	if n <= 0 || n > len(h.recent) {
		n = len(h.recent)
	}

	out := make([]RunSummary, 0, n)
	for i := len(h.recent) - 1; i >= len(h.recent)-n; i-- {
		out = append(out, h.recent[i])
	}
	return out
}

// GetGlobalHistory returns a copy of the process-wide counters
func (h *RunHistory) GetGlobalHistory() *GlobalHistory {
	h.globalMutex.RLock()
	defer h.globalMutex.RUnlock()

	out := *h.global
	out.RunsByMode = make(map[model.SyncMode]int64, len(h.global.RunsByMode))
	for k, v := range h.global.RunsByMode {
		out.RunsByMode[k] = v
	}
	return &out
}

// Summary returns the payload served by the history endpoint
func (h *RunHistory) Summary() map[string]interface{} {
	global := h.GetGlobalHistory()

	return map[string]interface{}{
		"uptime_seconds":       time.Since(global.StartTime).Seconds(),
		"total_runs":           global.TotalRuns,
		"runs_by_mode":         global.RunsByMode,
		"total_records_synced": global.TotalRecordsSynced,
		"tables_failed":        global.TablesFailed,
		"recent_runs":          h.Recent(0),
		"tables":               h.GetAllTables(),
	}
}
