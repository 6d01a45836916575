package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"siteworks_backend/internal/models"
	"siteworks_backend/internal/services"
	"siteworks_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// PayrollHandler holds the payroll service.
type PayrollHandler struct {
	payrollService services.PayrollService
}

// NewPayrollHandler creates a new PayrollHandler.
func NewPayrollHandler(ps services.PayrollService) *PayrollHandler {
	return &PayrollHandler{payrollService: ps}
}

// parsePeriodQuery reads year and month from the query string. Range checks
// live in the service; here only the numeric shape is enforced.
func parsePeriodQuery(c *gin.Context) (int, int, bool) {
	year, errYear := strconv.Atoi(c.Query("year"))
	month, errMonth := strconv.Atoi(c.Query("month"))
	if errYear != nil || errMonth != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Query parameters year and month must be integers.", ""))
		return 0, 0, false
	}
	return year, month, true
}

// PreviewPayroll handles computing a draft payroll for one worker and month.
func (h *PayrollHandler) PreviewPayroll(c *gin.Context) {
	workerID, ok := parseUUIDParam(c, "workerId")
	if !ok {
		return
	}
	year, month, ok := parsePeriodQuery(c)
	if !ok {
		return
	}

	preview, err := h.payrollService.Preview(workerID, year, month)
	if err != nil {
		utils.LogError(err, "PreviewPayroll: Error from payrollService.Preview for worker "+workerID)
		if errors.Is(err, services.ErrWorkerNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Worker not found.", err.Error()))
		} else if errors.Is(err, services.ErrPayrollPeriodValidation) || errors.Is(err, models.ErrUnknownEmploymentType) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to compute payroll preview.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, preview)
}

// GetMonthSummaries handles listing per-worker payroll rollups for a month.
func (h *PayrollHandler) GetMonthSummaries(c *gin.Context) {
	year, month, ok := parsePeriodQuery(c)
	if !ok {
		return
	}

	var employmentType *models.EmploymentType
	if raw := c.Query("employment_type"); raw != "" {
		et := models.EmploymentType(raw)
		employmentType = &et
	}

	summaries, err := h.payrollService.ListMonthSummaries(year, month, employmentType)
	if err != nil {
		utils.LogError(err, "GetMonthSummaries: Error from payrollService.ListMonthSummaries")
		if errors.Is(err, services.ErrPayrollPeriodValidation) || errors.Is(err, services.ErrPayrollBatchValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to build payroll summaries.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": summaries})
}

// PublishPayrollRequest is the payload for freezing a month's payroll batch.
type PublishPayrollRequest struct {
	Year      int      `json:"year" binding:"required"`
	Month     int      `json:"month" binding:"required"`
	WorkerIDs []string `json:"worker_ids" binding:"required"`
}

// PublishPayroll handles freezing previews into immutable snapshots.
func (h *PayrollHandler) PublishPayroll(c *gin.Context) {
	var req PublishPayrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "PublishPayroll: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	result, err := h.payrollService.Publish(req.Year, req.Month, req.WorkerIDs)
	if err != nil {
		utils.LogError(err, "PublishPayroll: Error from payrollService.Publish")
		if errors.Is(err, services.ErrPayrollPeriodValidation) || errors.Is(err, services.ErrPayrollBatchValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to publish payroll batch.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *PayrollHandler) respondSnapshotTransition(c *gin.Context, snapshot *models.PayrollSnapshot, err error, context string) {
	if err != nil {
		utils.LogError(err, context)
		if errors.Is(err, services.ErrSnapshotNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Payroll snapshot not found.", err.Error()))
		} else if errors.Is(err, services.ErrSnapshotStatusFlow) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Snapshot is not in a state that allows this transition.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update snapshot status.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// ApproveSnapshot handles moving an issued snapshot to approved.
func (h *PayrollHandler) ApproveSnapshot(c *gin.Context) {
	snapshotID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	snapshot, err := h.payrollService.ApproveSnapshot(snapshotID)
	h.respondSnapshotTransition(c, snapshot, err, "ApproveSnapshot: Error from payrollService.ApproveSnapshot for ID "+snapshotID)
}

// MarkSnapshotPaid handles moving an approved snapshot to paid.
func (h *PayrollHandler) MarkSnapshotPaid(c *gin.Context) {
	snapshotID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	snapshot, err := h.payrollService.MarkSnapshotPaid(snapshotID)
	h.respondSnapshotTransition(c, snapshot, err, "MarkSnapshotPaid: Error from payrollService.MarkSnapshotPaid for ID "+snapshotID)
}
