package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"table-sync/internal/middleware"
	"table-sync/internal/security"
)

// AvailableEndpoints is listed in the body of every 404
var AvailableEndpoints = []string{
	"POST /full",
	"POST /table/:name",
	"GET /status",
	"POST /incremental",
	"GET /history",
	"GET /health",
	"GET /metrics",
}

type RouterOptions struct {
	AllowedOrigins []string
	// Auth guards the sync routes when set
	Auth *security.AuthMiddleware
	// RateLimiter throttles every route when set
	RateLimiter *middleware.RateLimiter
}

// NewRouter wires the sync and health controllers onto a gin engine
func NewRouter(syncController *SyncController, healthController *HealthController, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(middleware.CorrelationID())
	router.Use(middleware.PrometheusMiddleware())
	if opts.RateLimiter != nil {
		router.Use(opts.RateLimiter.RateLimit())
	}

	router.GET("/health", healthController.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	var readGuard, writeGuard []gin.HandlerFunc
	if opts.Auth != nil {
		readGuard = []gin.HandlerFunc{opts.Auth.RequireAuth(), opts.Auth.RequireScope(security.ScopeRead)}
		writeGuard = []gin.HandlerFunc{opts.Auth.RequireAuth(), opts.Auth.RequireScope(security.ScopeWrite)}
	}

	router.POST("/full", append(writeGuard, syncController.FullSync)...)
	router.POST("/table/:name", append(writeGuard, syncController.TableSync)...)
	router.POST("/incremental", append(writeGuard, syncController.IncrementalSync)...)
	router.GET("/status", append(readGuard, syncController.Status)...)
	router.GET("/history", append(readGuard, syncController.History)...)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"success":             false,
			"error":               "Endpoint not found",
			"available_endpoints": AvailableEndpoints,
		})
	})

	return router
}
