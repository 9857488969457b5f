package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"table-sync/internal/middleware"
	"table-sync/internal/model"
	"table-sync/internal/service"
	"table-sync/internal/utils"
	"table-sync/pkg/response"
)

type SyncController struct {
	sync      service.SyncService
	status    service.StatusService
	validator *validator.Validate
	log       *slog.Logger
}

type IncrementalRequest struct {
	Since string `json:"since" validate:"required"`
}

type FullSyncResponse struct {
	Success            bool              `json:"success"`
	Message            string            `json:"message"`
	RunID              string            `json:"run_id"`
	TotalRecordsSynced int               `json:"total_records_synced"`
	TotalDurationMs    int64             `json:"total_duration_ms"`
	Tables             []model.SyncStats `json:"tables"`
}

type TableSyncResponse struct {
	Success bool             `json:"success"`
	Table   *model.SyncStats `json:"table"`
}

type StatusResponse struct {
	Success bool `json:"success"`
	*model.StatusReport
}

type IncrementalSyncResponse struct {
	Success            bool              `json:"success"`
	Message            string            `json:"message"`
	RunID              string            `json:"run_id"`
	TotalRecordsSynced int               `json:"total_records_synced"`
	Tables             []model.SyncStats `json:"tables"`
}

func NewSyncController(syncService service.SyncService, statusService service.StatusService, log *slog.Logger) *SyncController {
	if log == nil {
		log = slog.Default()
	}
	return &SyncController{
		sync:      syncService,
		status:    statusService,
		validator: validator.New(),
		log:       log,
	}
}

// FullSync handles POST /full. Table failures are reported in the body with a 200.
func (sc *SyncController) FullSync(c *gin.Context) {
	report, err := sc.sync.SyncAll(c.Request.Context())
	if err != nil {
		sc.sendServiceError(c, err, "")
		return
	}

	c.JSON(http.StatusOK, FullSyncResponse{
		Success:            true,
		Message:            fmt.Sprintf("Full sync completed: %d/%d tables succeeded", report.SuccessCount, len(report.Tables)),
		RunID:              report.RunID,
		TotalRecordsSynced: report.TotalRecordsSynced,
		TotalDurationMs:    report.TotalDurationMs,
		Tables:             report.Tables,
	})
}

// TableSync handles POST /table/:name
func (sc *SyncController) TableSync(c *gin.Context) {
	table := c.Param("name")

	stats, err := sc.sync.SyncTable(c.Request.Context(), table)
	if err != nil {
		sc.sendServiceError(c, err, table)
		return
	}

	statusCode := http.StatusOK
	if !stats.Success {
		statusCode = http.StatusInternalServerError
	}
	c.JSON(statusCode, TableSyncResponse{
		Success: stats.Success,
		Table:   stats,
	})
}

// Status handles GET /status
func (sc *SyncController) Status(c *gin.Context) {
	c.JSON(http.StatusOK, StatusResponse{
		Success:      true,
		StatusReport: sc.status.Status(c.Request.Context()),
	})
}

// IncrementalSync handles POST /incremental with body {"since": "<ISO 8601>"}
func (sc *SyncController) IncrementalSync(c *gin.Context) {
	var req IncrementalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sc.sendError(c, bindError(err))
		return
	}

	if err := sc.validator.Struct(&req); err != nil {
		appErr := utils.NewErrorBuilder(utils.ErrCodeInvalidParameters).
			WithMessage("since parameter is required").
			WithDetails(err.Error()).
			Build()
		sc.sendError(c, appErr)
		return
	}

	since, err := utils.ParseTimestamp(req.Since)
	if err != nil {
		appErr := utils.NewErrorBuilder(utils.ErrCodeInvalidTimestamp).
			WithCause(err).
			WithDetails(err.Error()).
			Build()
		sc.sendError(c, appErr)
		return
	}

	report, err := sc.sync.SyncIncremental(c.Request.Context(), since)
	if err != nil {
		sc.sendServiceError(c, err, "")
		return
	}

	c.JSON(http.StatusOK, IncrementalSyncResponse{
		Success:            true,
		Message:            fmt.Sprintf("Incremental sync since %s completed: %d/%d tables succeeded", since.Format(time.RFC3339), report.SuccessCount, len(report.Tables)),
		RunID:              report.RunID,
		TotalRecordsSynced: report.TotalRecordsSynced,
		Tables:             report.Tables,
	})
}

// History handles GET /history
func (sc *SyncController) History(c *gin.Context) {
	c.JSON(http.StatusOK, response.SuccessResponse(sc.sync.History().Summary(), middleware.GetCorrelationID(c)))
}

// bindError tells a body that is not JSON apart from one missing since
func bindError(err error) *utils.AppError {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return utils.NewErrorBuilder(utils.ErrCodeInvalidJSON).
			WithCause(err).
			WithDetails(err.Error()).
			Build()
	}
	return utils.NewErrorBuilder(utils.ErrCodeInvalidParameters).
		WithMessage("since parameter is required").
		WithDetails(err.Error()).
		Build()
}

func (sc *SyncController) sendServiceError(c *gin.Context, err error, table string) {
	var appErr *utils.AppError
	switch {
	case errors.Is(err, service.ErrTableNotFound):
		appErr = utils.NewTableNotFoundError(table)
	case errors.Is(err, service.ErrSyncInProgress):
		appErr = utils.NewSyncInProgressError()
	case errors.Is(err, service.ErrSinceRequired):
		appErr = utils.NewErrorBuilder(utils.ErrCodeInvalidParameters).WithMessage("since parameter is required").Build()
	default:
		sc.log.Error("sync request failed", "path", c.FullPath(), "error", err)
		appErr = utils.NewSyncFailedError(err)
	}
	sc.sendError(c, appErr)
}

func (sc *SyncController) sendError(c *gin.Context, appErr *utils.AppError) {
	c.JSON(utils.GetErrorStatus(appErr), response.ErrorResponseFromAppError(appErr, middleware.GetCorrelationID(c)))
}
