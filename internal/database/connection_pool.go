package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"table-sync/internal/model"
)

// ConnectionPool holds the two stores a sync run moves rows between
type ConnectionPool struct {
	Source      *gorm.DB
	Destination *gorm.DB
}

// NewConnectionPool opens and pings both stores
func NewConnectionPool(ctx context.Context, source, destination *model.StoreConfig, logLevel string) (*ConnectionPool, error) {
	src, err := OpenStore(ctx, source, logLevel)
	if err != nil {
		return nil, fmt.Errorf("source store: %w", err)
	}

	dst, err := OpenStore(ctx, destination, logLevel)
	if err != nil {
		closeGorm(src)
		return nil, fmt.Errorf("destination store: %w", err)
	}

	return &ConnectionPool{Source: src, Destination: dst}, nil
}

// OpenStore opens one store connection pool through the registered driver
func OpenStore(ctx context.Context, config *model.StoreConfig, logLevel string) (*gorm.DB, error) {
	driver, err := GetDriverRegistry().GetDriver(config.Driver)
	if err != nil {
		return nil, err
	}

	dsn := config.DSN
	if dsn == "" {
		dsn = driver.BuildDSN(config)
	}
	if err := driver.ValidateDSN(dsn); err != nil {
		return nil, fmt.Errorf("invalid connection string: %w", err)
	}

	sqlDB, err := driver.Open(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	configureConnectionPool(sqlDB, config, driver)

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db, err := gorm.Open(driver.Dialector(sqlDB), &gorm.Config{
		Logger: gormLogger(logLevel),
	})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	return db, nil
}

// configureConnectionPool configures the connection pool settings
func configureConnectionPool(db *sql.DB, config *model.StoreConfig, driver Driver) {
	maxOpenConns := config.MaxOpenConns
	if maxOpenConns <= 0 {
		maxOpenConns = driver.DefaultMaxOpenConns()
	}
	db.SetMaxOpenConns(maxOpenConns)

	maxIdleConns := config.MaxIdleConns
	if maxIdleConns <= 0 {
		maxIdleConns = maxOpenConns / 2
		if maxIdleConns < 1 {
			maxIdleConns = 1
		}
	}
	db.SetMaxIdleConns(maxIdleConns)

	// zero lifetime keeps sqlite in-memory databases alive
	if config.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(config.ConnMaxLifetime)
	} else if driver.GetDatabaseTypeName() != string(model.StoreTypeSQLite) {
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	if config.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(config.ConnMaxIdleTime)
	}
}

// gormLogger maps the service log level onto gorm's quieter scale
func gormLogger(level string) logger.Interface {
	switch level {
	case "debug":
		return logger.Default.LogMode(logger.Info)
	case "info":
		return logger.Default.LogMode(logger.Warn)
	case "warn":
		return logger.Default.LogMode(logger.Error)
	case "error":
		return logger.Default.LogMode(logger.Silent)
	default:
		return logger.Default.LogMode(logger.Warn)
	}
}

// Close closes both stores
func (cp *ConnectionPool) Close() error {
	var lastErr error
	if err := closeGorm(cp.Source); err != nil {
		lastErr = err
	}
	if err := closeGorm(cp.Destination); err != nil {
		lastErr = err
	}
	return lastErr
}

// GetStats returns database/sql pool statistics per store
func (cp *ConnectionPool) GetStats() map[string]ConnectionStats {
	stats := make(map[string]ConnectionStats)
	for name, db := range map[string]*gorm.DB{"source": cp.Source, "destination": cp.Destination} {
		if db == nil {
			continue
		}
		sqlDB, err := db.DB()
		if err != nil {
			continue
		}
		dbStats := sqlDB.Stats()
		stats[name] = ConnectionStats{
			OpenConnections: dbStats.OpenConnections,
			InUse:           dbStats.InUse,
			Idle:            dbStats.Idle,
			WaitCount:       dbStats.WaitCount,
			WaitDuration:    dbStats.WaitDuration,
		}
	}
	return stats
}

// ConnectionStats contains connection pool statistics
type ConnectionStats struct {
	OpenConnections int           `json:"openConnections"`
	InUse           int           `json:"inUse"`
	Idle            int           `json:"idle"`
	WaitCount       int64         `json:"waitCount"`
	WaitDuration    time.Duration `json:"waitDuration"`
}

func closeGorm(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
