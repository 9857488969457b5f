package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics holds all Prometheus metrics
type PrometheusMetrics struct {
	// HTTP request metrics
	HttpRequestsTotal   *prometheus.CounterVec
	HttpRequestDuration *prometheus.HistogramVec

	// Sync metrics
	TableSyncsTotal     *prometheus.CounterVec
	RecordsSyncedTotal  *prometheus.CounterVec
	TableSyncDuration   *prometheus.HistogramVec
	RowsReadTotal       *prometheus.CounterVec
	DeleteFailuresTotal *prometheus.CounterVec
	SyncInProgress      prometheus.Gauge
}

var (
	metrics     *PrometheusMetrics
	metricsOnce sync.Once
)

// InitMetrics registers all Prometheus metrics with the default registry
func InitMetrics() {
	metricsOnce.Do(func() {
		metrics = &PrometheusMetrics{
			HttpRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "tablesync_http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "endpoint", "status"},
			),
			HttpRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "tablesync_http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 15, 60, 300, 900},
				},
				[]string{"method", "endpoint"},
			),

			TableSyncsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "tablesync_table_syncs_total",
					Help: "Total number of per-table sync attempts",
				},
				[]string{"table", "mode", "status"},
			),
			RecordsSyncedTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "tablesync_records_synced_total",
					Help: "Total number of rows written to the destination",
				},
				[]string{"table", "mode"},
			),
			TableSyncDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "tablesync_table_sync_duration_seconds",
					Help:    "Time spent syncing a single table",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"table", "mode"},
			),
			RowsReadTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "tablesync_rows_read_total",
					Help: "Total number of rows read from the source",
				},
				[]string{"table"},
			),
			DeleteFailuresTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "tablesync_delete_failures_total",
					Help: "Destination clear operations that failed",
				},
				[]string{"table"},
			),
			SyncInProgress: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "tablesync_sync_in_progress",
					Help: "1 while a sync run holds the run lock",
				},
			),
		}
	})
}

// GetMetrics returns the initialized metrics
func GetMetrics() *PrometheusMetrics {
	return metrics
}

// PrometheusMiddleware is a Gin middleware that records HTTP metrics
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics == nil {
			c.Next()
			return
		}

		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		endpoint := c.FullPath()

		if endpoint == "" {
			endpoint = "unmatched"
		}

		metrics.HttpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
		metrics.HttpRequestDuration.WithLabelValues(method, endpoint).Observe(duration)
	}
}

// RecordTableSync records the outcome of one table within a run
func RecordTableSync(table, mode string, success bool, records int, duration time.Duration) {
	if metrics == nil {
		return
	}

	status := "success"
	if !success {
		status = "failure"
	}

	metrics.TableSyncsTotal.WithLabelValues(table, mode, status).Inc()
	metrics.TableSyncDuration.WithLabelValues(table, mode).Observe(duration.Seconds())
	if success && records > 0 {
		metrics.RecordsSyncedTotal.WithLabelValues(table, mode).Add(float64(records))
	}
}

// RecordRowsRead records rows fetched from the source
func RecordRowsRead(table string, rows int) {
	if metrics == nil || rows == 0 {
		return
	}

	metrics.RowsReadTotal.WithLabelValues(table).Add(float64(rows))
}

// RecordDeleteFailure records a destination clear that returned an error
func RecordDeleteFailure(table string) {
	if metrics == nil {
		return
	}

	metrics.DeleteFailuresTotal.WithLabelValues(table).Inc()
}

// SetSyncInProgress flips the run-lock gauge
func SetSyncInProgress(running bool) {
	if metrics == nil {
		return
	}

	if running {
		metrics.SyncInProgress.Set(1)
	} else {
		metrics.SyncInProgress.Set(0)
	}
}
