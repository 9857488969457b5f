package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"table-sync/internal/database"
)

const (
	serviceName    = "table-sync"
	serviceVersion = "1.0.0"
)

type HealthResponse struct {
	Status      string                              `json:"status"`
	Timestamp   time.Time                           `json:"timestamp"`
	Service     string                              `json:"service"`
	Version     string                              `json:"version"`
	Stores      []database.HealthCheckResult        `json:"stores"`
	Connections map[string]database.ConnectionStats `json:"connections,omitempty"`
}

// PoolStats reports database/sql pool statistics per store
type PoolStats interface {
	GetStats() map[string]database.ConnectionStats
}

type HealthController struct {
	checker *database.HealthChecker
	pool    PoolStats
}

// NewHealthController creates a health controller. pool may be nil.
func NewHealthController(checker *database.HealthChecker, pool PoolStats) *HealthController {
	return &HealthController{
		checker: checker,
		pool:    pool,
	}
}

func (hc *HealthController) HealthCheck(c *gin.Context) {
	summary := hc.checker.CheckAll(c.Request.Context())

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: summary.CheckedAt,
		Service:   serviceName,
		Version:   serviceVersion,
		Stores:    summary.Results,
	}
	if hc.pool != nil {
		response.Connections = hc.pool.GetStats()
	}

	statusCode := http.StatusOK
	if !summary.Healthy {
		response.Status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, response)
}
