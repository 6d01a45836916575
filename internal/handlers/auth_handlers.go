package handlers

import (
	"errors"
	"net/http"

	"siteworks_backend/internal/middleware"
	"siteworks_backend/internal/models"
	"siteworks_backend/internal/services"
	"siteworks_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the auth service.
type AuthHandler struct {
	authService services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(as services.AuthService) *AuthHandler {
	return &AuthHandler{authService: as}
}

// RegisterWorker handles creation of a new worker profile.
func (h *AuthHandler) RegisterWorker(c *gin.Context) {
	var req services.RegisterWorkerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "RegisterWorker: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	worker, err := h.authService.RegisterWorker(req)
	if err != nil {
		utils.LogError(err, "RegisterWorker: Error from authService.RegisterWorker")
		if errors.Is(err, services.ErrEmailExists) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Email is already registered.", err.Error()))
		} else if errors.Is(err, services.ErrAuthValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to register worker.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, worker)
}

// Login handles credential verification and token issuance.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	response, err := h.authService.Login(req)
	if err != nil {
		utils.LogError(err, "Login: Error from authService.Login")
		if errors.Is(err, services.ErrInvalidCredentials) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid email or password.", ""))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to log in.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, response)
}

// GetCurrentUser returns the caller's own profile.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	auth, ok := middleware.GetAuthContext(c)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Not authenticated.", ""))
		return
	}

	worker, err := h.authService.GetProfile(auth.UserID)
	if err != nil {
		utils.LogError(err, "GetCurrentUser: Error from authService.GetProfile")
		if errors.Is(err, services.ErrWorkerNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Worker profile not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch profile.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, worker)
}
