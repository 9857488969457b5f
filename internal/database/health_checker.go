package database

import (
	"context"
	"time"

	"table-sync/internal/repository"
)

// HealthChecker performs health checks on the source and destination stores
type HealthChecker struct {
	stores []repository.RowStore
}

// NewHealthChecker creates a new HealthChecker instance
func NewHealthChecker(stores ...repository.RowStore) *HealthChecker {
	return &HealthChecker{stores: stores}
}

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Store     string        `json:"store"`
	Status    string        `json:"status"`
	Message   string        `json:"message,omitempty"`
	Latency   time.Duration `json:"latency"`
	CheckedAt time.Time     `json:"checkedAt"`
}

// DatabaseHealthSummary represents a summary of store health
type DatabaseHealthSummary struct {
	Healthy   bool                `json:"healthy"`
	Results   []HealthCheckResult `json:"results"`
	CheckedAt time.Time           `json:"checkedAt"`
}

// CheckStoreHealth pings a single store
func (hc *HealthChecker) CheckStoreHealth(ctx context.Context, store repository.RowStore) HealthCheckResult {
	startTime := time.Now()

	result := HealthCheckResult{
		Store:     store.Name(),
		CheckedAt: startTime,
	}

	err := store.Ping(ctx)
	result.Latency = time.Since(startTime)

	if err != nil {
		result.Status = "unhealthy"
		result.Message = err.Error()
	} else {
		result.Status = "healthy"
		result.Message = "Connection successful"
	}

	return result
}

// CheckAll pings every registered store
func (hc *HealthChecker) CheckAll(ctx context.Context) *DatabaseHealthSummary {
	summary := &DatabaseHealthSummary{
		Healthy:   true,
		Results:   make([]HealthCheckResult, 0, len(hc.stores)),
		CheckedAt: time.Now(),
	}

	for _, store := range hc.stores {
		result := hc.CheckStoreHealth(ctx, store)
		if result.Status != "healthy" {
			summary.Healthy = false
		}
		summary.Results = append(summary.Results, result)
	}

	return summary
}
