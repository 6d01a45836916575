package handlers

import (
	"errors"
	"net/http"

	"siteworks_backend/internal/services"
	"siteworks_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AssignmentHandler holds the assignment service.
type AssignmentHandler struct {
	assignmentService services.AssignmentService
}

// NewAssignmentHandler creates a new AssignmentHandler.
func NewAssignmentHandler(as services.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignmentService: as}
}

func respondAssignmentError(c *gin.Context, err error, context string) {
	utils.LogError(err, context)
	switch {
	case errors.Is(err, services.ErrWorkerNotFound) || errors.Is(err, services.ErrSiteNotFound) || errors.Is(err, services.ErrAssignmentNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Referenced worker, site or assignment not found.", err.Error()))
	case errors.Is(err, services.ErrOrgAccessDenied):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, "You do not have access to this site's organization.", ""))
	case errors.Is(err, services.ErrAssignmentConflict):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "A concurrent reassignment of this worker won; retry if still needed.", err.Error()))
	case errors.Is(err, services.ErrAssignmentDataValidation):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
	default:
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Assignment operation failed.", "Internal error"))
	}
}

// AssignWorker handles moving a worker onto a site.
func (h *AssignmentHandler) AssignWorker(c *gin.Context) {
	auth, ok := requireAuthContext(c)
	if !ok {
		return
	}

	var req services.AssignWorkerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "AssignWorker: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	assignment, err := h.assignmentService.AssignWorker(req, auth)
	if err != nil {
		respondAssignmentError(c, err, "AssignWorker: Error from assignmentService.AssignWorker")
		return
	}
	c.JSON(http.StatusCreated, assignment)
}

// UnassignWorker handles closing a worker's active assignment.
func (h *AssignmentHandler) UnassignWorker(c *gin.Context) {
	workerID, ok := parseUUIDParam(c, "workerId")
	if !ok {
		return
	}

	if err := h.assignmentService.UnassignWorker(workerID); err != nil {
		respondAssignmentError(c, err, "UnassignWorker: Error from assignmentService.UnassignWorker for worker "+workerID)
		return
	}
	c.Status(http.StatusNoContent)
}

// ReactivateAssignment handles flipping a historical assignment back to active.
func (h *AssignmentHandler) ReactivateAssignment(c *gin.Context) {
	assignmentID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	assignment, err := h.assignmentService.ReactivateAssignment(assignmentID)
	if err != nil {
		respondAssignmentError(c, err, "ReactivateAssignment: Error from assignmentService.ReactivateAssignment for ID "+assignmentID)
		return
	}
	c.JSON(http.StatusOK, assignment)
}

// GetCurrentSite handles fetching the worker's active site, if any.
func (h *AssignmentHandler) GetCurrentSite(c *gin.Context) {
	workerID, ok := parseUUIDParam(c, "workerId")
	if !ok {
		return
	}
	auth, ok := requireAuthContext(c)
	if !ok {
		return
	}

	siteInfo, err := h.assignmentService.GetCurrentSite(workerID, auth)
	if err != nil {
		respondAssignmentError(c, err, "GetCurrentSite: Error from assignmentService.GetCurrentSite for worker "+workerID)
		return
	}
	if siteInfo == nil {
		c.JSON(http.StatusOK, gin.H{"data": nil})
		return
	}
	c.JSON(http.StatusOK, siteInfo)
}

// GetAssignmentHistory handles listing a worker's assignments, most recent first.
func (h *AssignmentHandler) GetAssignmentHistory(c *gin.Context) {
	workerID, ok := parseUUIDParam(c, "workerId")
	if !ok {
		return
	}

	assignments, err := h.assignmentService.GetAssignmentHistory(workerID)
	if err != nil {
		respondAssignmentError(c, err, "GetAssignmentHistory: Error from assignmentService.GetAssignmentHistory for worker "+workerID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": assignments})
}

// GetSiteWorkers handles listing workers currently assigned to a site.
func (h *AssignmentHandler) GetSiteWorkers(c *gin.Context) {
	siteID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	auth, ok := requireAuthContext(c)
	if !ok {
		return
	}

	siteWorkers, err := h.assignmentService.GetSiteWorkers(siteID, auth)
	if err != nil {
		respondAssignmentError(c, err, "GetSiteWorkers: Error from assignmentService.GetSiteWorkers for site "+siteID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": siteWorkers})
}
