package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"siteworks_backend/internal/services"
	"siteworks_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// WorkRecordHandler holds the work record service.
type WorkRecordHandler struct {
	workRecordService services.WorkRecordService
}

// NewWorkRecordHandler creates a new WorkRecordHandler.
func NewWorkRecordHandler(wrs services.WorkRecordService) *WorkRecordHandler {
	return &WorkRecordHandler{workRecordService: wrs}
}

// SubmitWorkRecord handles creating or replacing one day's labor entry.
func (h *WorkRecordHandler) SubmitWorkRecord(c *gin.Context) {
	var req services.SubmitWorkRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "SubmitWorkRecord: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	record, err := h.workRecordService.SubmitWorkRecord(req)
	if err != nil {
		utils.LogError(err, "SubmitWorkRecord: Error from workRecordService.SubmitWorkRecord")
		if errors.Is(err, services.ErrWorkerNotFound) || errors.Is(err, services.ErrSiteNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Referenced worker or site not found.", err.Error()))
		} else if errors.Is(err, services.ErrWorkRecordValidation) || errors.Is(err, services.ErrWorkDateFormat) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to save work record.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, record)
}

// GetWorkRecords handles fetching work records with filters and pagination.
func (h *WorkRecordHandler) GetWorkRecords(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "31"))

	workerID := utils.NewNullString(c.Query("worker_id"))
	siteID := utils.NewNullString(c.Query("site_id"))
	from := utils.NewNullString(c.Query("from"))
	to := utils.NewNullString(c.Query("to"))

	records, totalCount, err := h.workRecordService.GetWorkRecords(workerID, siteID, from, to, page, pageSize)
	if err != nil {
		utils.LogError(err, "GetWorkRecords: Error from workRecordService.GetWorkRecords")
		if errors.Is(err, services.ErrWorkRecordValidation) || errors.Is(err, services.ErrWorkDateFormat) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch work records.", "Internal error"))
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":      records,
		"total":     totalCount,
		"page":      page,
		"page_size": pageSize,
	})
}
