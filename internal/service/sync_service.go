package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"table-sync/internal/catalog"
	"table-sync/internal/middleware"
	"table-sync/internal/model"
	"table-sync/internal/repository"
)

type SyncService interface {
	SyncAll(ctx context.Context) (*model.SyncReport, error)
	SyncTable(ctx context.Context, table string) (*model.SyncStats, error)
	SyncIncremental(ctx context.Context, since time.Time) (*model.SyncReport, error)
	Catalog() *catalog.Catalog
	History() *RunHistory
}

type SyncOptions struct {
	PageSize            int
	BatchSize           int
	StrictDelete        bool
	TransactionalTables bool
}

type syncService struct {
	catalog       *catalog.Catalog
	reader        *PaginatedReader
	writer        *BulkWriter
	destination   repository.RowStore
	transactional bool
	history       *RunHistory
	log           *slog.Logger

	// held for the whole run; a second caller gets ErrSyncInProgress
	runMu sync.Mutex
}

// NewSyncService creates a new instance of SyncService copying from source into destination
func NewSyncService(cat *catalog.Catalog, source, destination repository.RowStore, opts SyncOptions, log *slog.Logger) SyncService {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "sync")

	return &syncService{
		catalog: cat,
		reader:  NewPaginatedReader(source, cat, opts.PageSize, log),
		writer: NewBulkWriter(destination, cat, WriterOptions{
			BatchSize:     opts.BatchSize,
			StrictDelete:  opts.StrictDelete,
			Transactional: opts.TransactionalTables,
		}, log),
		destination:   destination,
		transactional: opts.TransactionalTables,
		history:       NewRunHistory(DefaultHistorySize),
		log:           log,
	}
}

func (s *syncService) Catalog() *catalog.Catalog {
	return s.catalog
}

func (s *syncService) History() *RunHistory {
	return s.history
}

// SyncAll reads every catalog table from the source, then clears the
// destination children-first and copies parents-first. Tables whose read
// failed or came back empty are never touched in the destination.
func (s *syncService) SyncAll(ctx context.Context) (*model.SyncReport, error) {
	unlock, err := s.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	runID := uuid.NewString()
	startedAt := time.Now()
	log := s.log.With("run_id", runID, "mode", model.SyncModeFull)
	log.Info("starting full sync", "tables", s.catalog.Len())

	tables := make([]*fullSyncTable, 0, s.catalog.Len())
	for _, name := range s.catalog.Tables() {
		t := &fullSyncTable{name: name}
		t.timed(func() error {
			t.rows, t.err = s.reader.ReadAll(ctx, name)
			return t.err
		})
		if t.err != nil {
			log.Warn("read failed, destination left untouched", "table", name, "error", t.err)
		}
		tables = append(tables, t)
	}

	if s.transactional {
		s.writeAllInTransaction(ctx, log, tables)
	} else {
		s.writeAll(ctx, tables)
	}

	stats := make([]model.SyncStats, 0, len(tables))
	for _, t := range tables {
		stats = append(stats, s.finish(log, model.SyncModeFull, t.stats()))
	}

	report := model.NewSyncReport(runID, model.SyncModeFull, stats, startedAt)
	s.history.RecordReport(report)
	log.Info("full sync finished",
		"succeeded", report.SuccessCount,
		"failed", report.FailureCount,
		"records", report.TotalRecordsSynced,
		"duration_ms", report.TotalDurationMs,
	)
	return report, nil
}

// writeAll commits every statement as it goes; a failed insert keeps the
// batches written before it
func (s *syncService) writeAll(ctx context.Context, tables []*fullSyncTable) {
	for i := len(tables) - 1; i >= 0; i-- {
		t := tables[i]
		if !t.pending() {
			continue
		}
		t.timed(func() error {
			t.err = s.writer.clear(ctx, s.destination, t.name, false)
			return t.err
		})
	}

	for _, t := range tables {
		if !t.pending() {
			continue
		}
		t.timed(func() error {
			t.written, t.err = s.writer.insertBatches(ctx, s.destination, t.name, t.rows)
			return t.err
		})
	}
}

// writeAllInTransaction runs the clear and insert phases in one destination
// transaction. When a table fails the transaction is rolled back and replayed
// without it, so the failed table keeps its previous rows and the others
// still commit.
func (s *syncService) writeAllInTransaction(ctx context.Context, log *slog.Logger, tables []*fullSyncTable) {
	for {
		var pending []*fullSyncTable
		for _, t := range tables {
			if t.pending() {
				t.written = 0
				pending = append(pending, t)
			}
		}
		if len(pending) == 0 {
			return
		}

		var failed *fullSyncTable
		var failErr error
		err := s.destination.Transaction(ctx, func(tx repository.RowStore) error {
			for i := len(pending) - 1; i >= 0; i-- {
				t := pending[i]
				if err := t.timed(func() error { return s.writer.clear(ctx, tx, t.name, true) }); err != nil {
					failed, failErr = t, err
					return err
				}
			}
			for _, t := range pending {
				err := t.timed(func() error {
					var err error
					t.written, err = s.writer.insertBatches(ctx, tx, t.name, t.rows)
					return err
				})
				if err != nil {
					failed, failErr = t, err
					return err
				}
			}
			return nil
		})
		if err == nil {
			return
		}

		if failed == nil {
			for _, t := range pending {
				t.written, t.err = 0, fmt.Errorf("destination transaction: %w", err)
			}
			return
		}

		log.Warn("rolled back full sync writes, retrying without failed table", "table", failed.name, "error", failErr)
		failed.written, failed.err = 0, failErr
	}
}

// fullSyncTable carries one table through the read and write phases of a full sync
type fullSyncTable struct {
	name    string
	rows    []model.Row
	written int
	err     error
	elapsed time.Duration
}

func (t *fullSyncTable) pending() bool {
	return t.err == nil && len(t.rows) > 0
}

func (t *fullSyncTable) timed(fn func() error) error {
	start := time.Now()
	err := fn()
	t.elapsed += time.Since(start)
	return err
}

func (t *fullSyncTable) stats() model.SyncStats {
	var stats model.SyncStats
	if t.err != nil {
		stats = model.FailedStats(t.name, t.written, t.err, time.Now())
	} else {
		stats = model.SucceededStats(t.name, t.written, time.Now())
	}
	stats.DurationMs = t.elapsed.Milliseconds()
	return stats
}

// SyncTable replaces a single catalog table in the destination
func (s *syncService) SyncTable(ctx context.Context, table string) (*model.SyncStats, error) {
	if !s.catalog.Contains(table) {
		return nil, ErrTableNotFound
	}

	unlock, err := s.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	runID := uuid.NewString()
	startedAt := time.Now()
	log := s.log.With("run_id", runID, "mode", model.SyncModeTable)
	log.Info("starting table sync", "table", table)

	stats := s.finish(log, model.SyncModeTable, s.replaceTable(ctx, table))
	s.history.RecordReport(model.NewSyncReport(runID, model.SyncModeTable, []model.SyncStats{stats}, startedAt))
	return &stats, nil
}

func (s *syncService) replaceTable(ctx context.Context, table string) model.SyncStats {
	startedAt := time.Now()

	rows, err := s.reader.ReadAll(ctx, table)
	if err != nil {
		return model.FailedStats(table, 0, err, startedAt)
	}
	if len(rows) == 0 {
		return model.SucceededStats(table, 0, startedAt)
	}

	inserted, err := s.writer.Replace(ctx, table, rows)
	if err != nil {
		return model.FailedStats(table, inserted, err, startedAt)
	}
	return model.SucceededStats(table, inserted, startedAt)
}

// SyncIncremental upserts rows created or updated at or after since, table by table
func (s *syncService) SyncIncremental(ctx context.Context, since time.Time) (*model.SyncReport, error) {
	if since.IsZero() {
		return nil, ErrSinceRequired
	}

	unlock, err := s.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	runID := uuid.NewString()
	startedAt := time.Now()
	log := s.log.With("run_id", runID, "mode", model.SyncModeIncremental)
	log.Info("starting incremental sync", "since", since.Format(time.RFC3339))

	stats := make([]model.SyncStats, 0, s.catalog.Len())
	for _, table := range s.catalog.Tables() {
		tableStart := time.Now()

		rows, err := s.reader.ReadChanged(ctx, table, since)
		if err != nil {
			stats = append(stats, s.finish(log, model.SyncModeIncremental, model.FailedStats(table, 0, err, tableStart)))
			continue
		}
		if len(rows) == 0 {
			stats = append(stats, s.finish(log, model.SyncModeIncremental, model.SucceededStats(table, 0, tableStart)))
			continue
		}

		written, err := s.writer.Upsert(ctx, table, rows)
		if err != nil {
			stats = append(stats, s.finish(log, model.SyncModeIncremental, model.FailedStats(table, written, err, tableStart)))
			continue
		}
		stats = append(stats, s.finish(log, model.SyncModeIncremental, model.SucceededStats(table, written, tableStart)))
	}

	report := model.NewSyncReport(runID, model.SyncModeIncremental, stats, startedAt)
	s.history.RecordReport(report)
	log.Info("incremental sync finished",
		"succeeded", report.SuccessCount,
		"failed", report.FailureCount,
		"records", report.TotalRecordsSynced,
	)
	return report, nil
}

func (s *syncService) lock() (func(), error) {
	if !s.runMu.TryLock() {
		return nil, ErrSyncInProgress
	}
	middleware.SetSyncInProgress(true)

	return func() {
		middleware.SetSyncInProgress(false)
		s.runMu.Unlock()
	}, nil
}

// finish logs and records metrics for a table outcome, then hands it back
func (s *syncService) finish(log *slog.Logger, mode model.SyncMode, stats model.SyncStats) model.SyncStats {
	duration := time.Duration(stats.DurationMs) * time.Millisecond
	middleware.RecordTableSync(stats.Table, string(mode), stats.Success, stats.RecordsSynced, duration)

	if stats.Success {
		log.Info("table synced", "table", stats.Table, "records", stats.RecordsSynced, "duration_ms", stats.DurationMs)
	} else {
		log.Error("table sync failed", "table", stats.Table, "written", stats.RecordsSynced, "error", stats.Error)
	}
	return stats
}
