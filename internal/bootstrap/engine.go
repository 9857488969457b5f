package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"table-sync/internal/catalog"
	"table-sync/internal/config"
	"table-sync/internal/database"
	"table-sync/internal/repository"
	"table-sync/internal/service"
)

// Engine bundles the connected stores and the services built on them
type Engine struct {
	Catalog     *catalog.Catalog
	Pool        *database.ConnectionPool
	Source      repository.RowStore
	Destination repository.RowStore
	Sync        service.SyncService
	Status      service.StatusService
	Health      *database.HealthChecker
}

// NewEngine connects both stores and builds the sync services from cfg
func NewEngine(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Engine, error) {
	cat, err := cfg.BuildCatalog()
	if err != nil {
		return nil, fmt.Errorf("building catalog: %w", err)
	}

	pool, err := database.NewConnectionPool(ctx, &cfg.Source, &cfg.Destination, cfg.Logging.Level)
	if err != nil {
		return nil, err
	}

	source := repository.NewRowRepository("source", pool.Source)
	destination := repository.NewRowRepository("destination", pool.Destination)

	syncService := service.NewSyncService(cat, source, destination, service.SyncOptions{
		PageSize:            cfg.Sync.PageSize,
		BatchSize:           cfg.Sync.BatchSize,
		StrictDelete:        cfg.Sync.StrictDelete,
		TransactionalTables: cfg.Sync.TransactionalTables,
	}, log)
	statusService := service.NewStatusService(cat, source, destination, cfg.Sync.StatusSampleSize, log)

	log.Info("sync engine ready",
		"tables", cat.Len(),
		"source", cfg.Source.Driver,
		"destination", cfg.Destination.Driver,
		"strict_delete", cfg.Sync.StrictDelete,
	)

	return &Engine{
		Catalog:     cat,
		Pool:        pool,
		Source:      source,
		Destination: destination,
		Sync:        syncService,
		Status:      statusService,
		Health:      database.NewHealthChecker(source, destination),
	}, nil
}

// Close releases both store connections
func (e *Engine) Close() error {
	return e.Pool.Close()
}
