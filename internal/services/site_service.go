package services

import (
	"errors"
	"fmt"
	"strings"

	"siteworks_backend/internal/models"
	"siteworks_backend/internal/repositories"
)

// --- Custom Service Errors for Sites ---
var (
	ErrSiteDataValidation = errors.New("site data validation error")
)

// --- Site DTOs ---
type CreateSiteRequest struct {
	Name               string  `json:"name" binding:"required"`
	Address            *string `json:"address"`
	OrganizationID     *string `json:"organization_id"`
	Status             *string `json:"status"` // Defaults to "active" when empty.
	ManagerName        *string `json:"manager_name"`
	ManagerPhone       *string `json:"manager_phone"`
	SafetyManagerName  *string `json:"safety_manager_name"`
	SafetyManagerPhone *string `json:"safety_manager_phone"`
}

type UpdateSiteRequest struct {
	Name               *string `json:"name"`
	Address            *string `json:"address"`
	Status             *string `json:"status"`
	ManagerName        *string `json:"manager_name"`
	ManagerPhone       *string `json:"manager_phone"`
	SafetyManagerName  *string `json:"safety_manager_name"`
	SafetyManagerPhone *string `json:"safety_manager_phone"`
}

// --- SiteService Interface ---
type SiteService interface {
	CreateSite(req CreateSiteRequest) (*models.Site, error)
	GetSiteByID(siteID string, auth models.AuthContext) (*models.Site, error)
	GetSites(page, pageSize int, status *string, auth models.AuthContext) ([]models.Site, int, error)
	UpdateSite(siteID string, req UpdateSiteRequest, auth models.AuthContext) (*models.Site, error)
}

// --- siteService Implementation ---
type siteService struct {
	siteRepo repositories.SiteRepository
	db       repositories.DB
}

// NewSiteService creates a new instance of SiteService.
func NewSiteService(sr repositories.SiteRepository, db repositories.DB) SiteService {
	return &siteService{siteRepo: sr, db: db}
}

func parseSiteStatus(raw *string) (models.SiteStatus, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return models.SiteStatusActive, nil
	}
	status := models.SiteStatus(strings.ToLower(strings.TrimSpace(*raw)))
	if !status.IsValid() {
		return "", fmt.Errorf("%w: unknown site status %q", ErrSiteDataValidation, *raw)
	}
	return status, nil
}

func (s *siteService) CreateSite(req CreateSiteRequest) (*models.Site, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", ErrSiteDataValidation)
	}

	status, err := parseSiteStatus(req.Status)
	if err != nil {
		return nil, err
	}

	site := &models.Site{
		Name:               strings.TrimSpace(req.Name),
		Address:            req.Address,
		OrganizationID:     req.OrganizationID,
		Status:             status,
		ManagerName:        req.ManagerName,
		ManagerPhone:       req.ManagerPhone,
		SafetyManagerName:  req.SafetyManagerName,
		SafetyManagerPhone: req.SafetyManagerPhone,
	}

	created, err := s.siteRepo.CreateSite(s.db, site)
	if err != nil {
		return nil, fmt.Errorf("failed to create site: %w", err)
	}
	return created, nil
}

func (s *siteService) GetSiteByID(siteID string, auth models.AuthContext) (*models.Site, error) {
	if strings.TrimSpace(siteID) == "" {
		return nil, fmt.Errorf("%w: site_id is required", ErrSiteDataValidation)
	}

	site, err := s.siteRepo.GetSiteByID(siteID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: site ID %s", ErrSiteNotFound, siteID)
		}
		return nil, fmt.Errorf("failed to get site: %w", err)
	}

	if err := assertOrgAccess(auth, site.OrganizationID); err != nil {
		return nil, err
	}
	return site, nil
}

func (s *siteService) GetSites(page, pageSize int, status *string, auth models.AuthContext) ([]models.Site, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	var statusFilter *models.SiteStatus
	if status != nil && strings.TrimSpace(*status) != "" {
		parsed, err := parseSiteStatus(status)
		if err != nil {
			return nil, 0, err
		}
		statusFilter = &parsed
	}

	// Restricted callers are narrowed to their own organization plus global
	// sites inside the query; admins see everything.
	var orgFilter *string
	if auth.IsRestricted() {
		if auth.OrganizationID == nil {
			return []models.Site{}, 0, nil
		}
		orgFilter = auth.OrganizationID
	}

	sites, totalCount, err := s.siteRepo.GetSites(page, pageSize, statusFilter, orgFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get sites: %w", err)
	}
	return sites, totalCount, nil
}

func (s *siteService) UpdateSite(siteID string, req UpdateSiteRequest, auth models.AuthContext) (*models.Site, error) {
	site, err := s.GetSiteByID(siteID, auth)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, fmt.Errorf("%w: name cannot be empty if provided", ErrSiteDataValidation)
		}
		site.Name = strings.TrimSpace(*req.Name)
	}
	if req.Address != nil {
		site.Address = req.Address
	}
	if req.Status != nil {
		status, err := parseSiteStatus(req.Status)
		if err != nil {
			return nil, err
		}
		site.Status = status
	}
	if req.ManagerName != nil {
		site.ManagerName = req.ManagerName
	}
	if req.ManagerPhone != nil {
		site.ManagerPhone = req.ManagerPhone
	}
	if req.SafetyManagerName != nil {
		site.SafetyManagerName = req.SafetyManagerName
	}
	if req.SafetyManagerPhone != nil {
		site.SafetyManagerPhone = req.SafetyManagerPhone
	}

	updated, err := s.siteRepo.UpdateSite(s.db, site)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: site ID %s", ErrSiteNotFound, siteID)
		}
		return nil, fmt.Errorf("failed to update site: %w", err)
	}
	return updated, nil
}
