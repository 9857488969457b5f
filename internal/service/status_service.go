package service

import (
	"context"
	"log/slog"

	"table-sync/internal/catalog"
	"table-sync/internal/model"
	"table-sync/internal/repository"
)

const DefaultStatusSampleSize = 10

type StatusService interface {
	Status(ctx context.Context) *model.StatusReport
}

type statusService struct {
	catalog     *catalog.Catalog
	source      repository.RowStore
	destination repository.RowStore
	sampleSize  int
	log         *slog.Logger
}

// NewStatusService creates a reporter comparing row counts of the first sampleSize catalog tables
func NewStatusService(cat *catalog.Catalog, source, destination repository.RowStore, sampleSize int, log *slog.Logger) StatusService {
	if sampleSize <= 0 {
		sampleSize = DefaultStatusSampleSize
	}
	if log == nil {
		log = slog.Default()
	}
	return &statusService{
		catalog:     cat,
		source:      source,
		destination: destination,
		sampleSize:  sampleSize,
		log:         log.With("component", "status"),
	}
}

// Status never writes. A count failure is reported on that table only.
func (s *statusService) Status(ctx context.Context) *model.StatusReport {
	sample := s.catalog.Head(s.sampleSize)
	counts := make(map[string]model.TableCount, len(sample))

	for _, table := range sample {
		counts[table] = s.countTable(ctx, table)
	}

	return &model.StatusReport{
		TotalTables:  s.catalog.Len(),
		SampleCounts: counts,
		SyncOrder:    s.catalog.Tables(),
	}
}

func (s *statusService) countTable(ctx context.Context, table string) model.TableCount {
	src, err := s.source.Count(ctx, table)
	if err != nil {
		s.log.Warn("counting source table failed", "table", table, "error", err)
		return model.TableCount{Error: err.Error()}
	}

	dst, err := s.destination.Count(ctx, table)
	if err != nil {
		s.log.Warn("counting destination table failed", "table", table, "error", err)
		return model.TableCount{SourceCount: src, Error: err.Error()}
	}

	return model.TableCount{
		SourceCount:      src,
		DestinationCount: dst,
		Synced:           src == dst,
	}
}
