package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"siteworks_backend/internal/middleware"
	"siteworks_backend/internal/models"
	"siteworks_backend/internal/services"
	"siteworks_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SiteHandler holds the site service.
type SiteHandler struct {
	siteService services.SiteService
}

// NewSiteHandler creates a new SiteHandler.
func NewSiteHandler(ss services.SiteService) *SiteHandler {
	return &SiteHandler{siteService: ss}
}

// parseUUIDParam validates a path parameter as a UUID and responds with a
// validation error when it is malformed.
func parseUUIDParam(c *gin.Context, name string) (string, bool) {
	raw := c.Param(name)
	if _, err := uuid.Parse(raw); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid "+name+" format, expected UUID.", err.Error()))
		return "", false
	}
	return raw, true
}

// requireAuthContext extracts the acting identity or responds with 401.
func requireAuthContext(c *gin.Context) (models.AuthContext, bool) {
	auth, ok := middleware.GetAuthContext(c)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Not authenticated.", ""))
		return models.AuthContext{}, false
	}
	return auth, true
}

// CreateSite handles the creation of a new site.
func (h *SiteHandler) CreateSite(c *gin.Context) {
	var req services.CreateSiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CreateSite: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	site, err := h.siteService.CreateSite(req)
	if err != nil {
		utils.LogError(err, "CreateSite: Error from siteService.CreateSite")
		if errors.Is(err, services.ErrSiteDataValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to create site.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, site)
}

// GetSites handles fetching sites with pagination and status filter.
func (h *SiteHandler) GetSites(c *gin.Context) {
	auth, ok := requireAuthContext(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	statusFilter := utils.NewNullString(c.Query("status"))

	sites, totalCount, err := h.siteService.GetSites(page, pageSize, statusFilter, auth)
	if err != nil {
		utils.LogError(err, "GetSites: Error from siteService.GetSites")
		if errors.Is(err, services.ErrSiteDataValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch sites.", "Internal error"))
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":      sites,
		"total":     totalCount,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetSiteByID handles fetching a single site by ID.
func (h *SiteHandler) GetSiteByID(c *gin.Context) {
	siteID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	auth, ok := requireAuthContext(c)
	if !ok {
		return
	}

	site, err := h.siteService.GetSiteByID(siteID, auth)
	if err != nil {
		utils.LogError(err, "GetSiteByID: Error from siteService.GetSiteByID for ID "+siteID)
		if errors.Is(err, services.ErrSiteNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Site not found.", err.Error()))
		} else if errors.Is(err, services.ErrOrgAccessDenied) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, "You do not have access to this site.", ""))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch site.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, site)
}

// UpdateSite handles updating a site.
func (h *SiteHandler) UpdateSite(c *gin.Context) {
	siteID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	auth, ok := requireAuthContext(c)
	if !ok {
		return
	}

	var req services.UpdateSiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "UpdateSite: Failed to bind JSON for ID "+siteID)
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	site, err := h.siteService.UpdateSite(siteID, req, auth)
	if err != nil {
		utils.LogError(err, "UpdateSite: Error from siteService.UpdateSite for ID "+siteID)
		if errors.Is(err, services.ErrSiteNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Site not found to update.", err.Error()))
		} else if errors.Is(err, services.ErrOrgAccessDenied) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, "You do not have access to this site.", ""))
		} else if errors.Is(err, services.ErrSiteDataValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update site.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, site)
}
