package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"siteworks_backend/internal/models"
	"siteworks_backend/internal/repositories"
)

// --- Custom Service Errors for Site Assignments ---
var (
	ErrWorkerNotFound           = errors.New("worker not found")
	ErrSiteNotFound             = errors.New("site not found")
	ErrAssignmentNotFound       = errors.New("site assignment not found")
	ErrAssignmentConflict       = errors.New("another assignment for this worker became active concurrently")
	ErrAssignmentDataValidation = errors.New("assignment data validation error")
)

// --- Assignment DTOs ---
type AssignWorkerRequest struct {
	WorkerID string `json:"worker_id" binding:"required"`
	SiteID   string `json:"site_id" binding:"required"`
	SiteRole string `json:"site_role"` // Defaults to "worker" when empty.
}

// --- AssignmentService Interface ---
type AssignmentService interface {
	AssignWorker(req AssignWorkerRequest, auth models.AuthContext) (*models.SiteAssignment, error)
	UnassignWorker(workerID string) error
	ReactivateAssignment(assignmentID string) (*models.SiteAssignment, error)
	GetCurrentSite(workerID string, auth models.AuthContext) (*models.SiteInfo, error)
	GetAssignmentHistory(workerID string) ([]models.SiteAssignment, error)
	GetSiteWorkers(siteID string, auth models.AuthContext) ([]models.SiteWorker, error)
}

// --- assignmentService Implementation ---
type assignmentService struct {
	assignmentRepo repositories.AssignmentRepository
	workerRepo     repositories.WorkerRepository
	siteRepo       repositories.SiteRepository
	db             repositories.DB
}

// NewAssignmentService creates a new instance of AssignmentService.
func NewAssignmentService(ar repositories.AssignmentRepository, wr repositories.WorkerRepository, sr repositories.SiteRepository, db repositories.DB) AssignmentService {
	return &assignmentService{
		assignmentRepo: ar,
		workerRepo:     wr,
		siteRepo:       sr,
		db:             db,
	}
}

// today returns the current date truncated to midnight UTC; assignment dates
// carry no time-of-day component.
func today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// AssignWorker moves a worker onto a site. The worker's current active
// assignment (if any) is closed and the new one opened inside a single
// transaction, so at most one assignment per worker is ever active. A unique
// violation from the store means a concurrent reassignment won the race; the
// transaction rolls back and the call fails with ErrAssignmentConflict,
// leaving the prior state intact.
func (s *assignmentService) AssignWorker(req AssignWorkerRequest, auth models.AuthContext) (*models.SiteAssignment, error) {
	if strings.TrimSpace(req.WorkerID) == "" || strings.TrimSpace(req.SiteID) == "" {
		return nil, fmt.Errorf("%w: worker_id and site_id are required", ErrAssignmentDataValidation)
	}

	if _, err := s.workerRepo.GetWorkerByID(req.WorkerID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: worker ID %s", ErrWorkerNotFound, req.WorkerID)
		}
		return nil, fmt.Errorf("failed to validate worker for assignment: %w", err)
	}

	site, err := s.siteRepo.GetSiteByID(req.SiteID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: site ID %s", ErrSiteNotFound, req.SiteID)
		}
		return nil, fmt.Errorf("failed to validate site for assignment: %w", err)
	}

	if err := assertOrgAccess(auth, site.OrganizationID); err != nil {
		return nil, err
	}

	siteRole := strings.TrimSpace(req.SiteRole)
	if siteRole == "" {
		siteRole = string(models.RoleWorker)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin assignment transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.assignmentRepo.DeactivateActiveAssignments(tx, req.WorkerID, today()); err != nil {
		return nil, fmt.Errorf("failed to deactivate current assignment: %w", err)
	}

	assignment := &models.SiteAssignment{
		WorkerID:     req.WorkerID,
		SiteID:       req.SiteID,
		AssignedDate: today(),
		SiteRole:     siteRole,
		IsActive:     true,
	}

	created, err := s.assignmentRepo.CreateAssignment(tx, assignment)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: worker ID %s", ErrAssignmentConflict, req.WorkerID)
		}
		return nil, fmt.Errorf("failed to create site assignment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit assignment transaction: %w", err)
	}
	return created, nil
}

// UnassignWorker closes the worker's active assignment. A worker with no
// active assignment is a no-op, not an error.
func (s *assignmentService) UnassignWorker(workerID string) error {
	if strings.TrimSpace(workerID) == "" {
		return fmt.Errorf("%w: worker_id is required", ErrAssignmentDataValidation)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin unassignment transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.assignmentRepo.DeactivateActiveAssignments(tx, workerID, today()); err != nil {
		return fmt.Errorf("failed to deactivate assignment: %w", err)
	}
	return tx.Commit()
}

// ReactivateAssignment flips a historical assignment back to active,
// deactivating whatever is currently active for the same worker first.
// Both writes share one transaction for the same reason as AssignWorker.
func (s *assignmentService) ReactivateAssignment(assignmentID string) (*models.SiteAssignment, error) {
	if strings.TrimSpace(assignmentID) == "" {
		return nil, fmt.Errorf("%w: assignment_id is required", ErrAssignmentDataValidation)
	}

	assignment, err := s.assignmentRepo.GetAssignmentByID(assignmentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: assignment ID %s", ErrAssignmentNotFound, assignmentID)
		}
		return nil, fmt.Errorf("failed to find assignment for reactivation: %w", err)
	}
	if assignment.IsActive {
		return assignment, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin reactivation transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.assignmentRepo.DeactivateActiveAssignments(tx, assignment.WorkerID, today()); err != nil {
		return nil, fmt.Errorf("failed to deactivate current assignment: %w", err)
	}

	reactivated, err := s.assignmentRepo.ActivateAssignment(tx, assignmentID)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: worker ID %s", ErrAssignmentConflict, assignment.WorkerID)
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: assignment ID %s", ErrAssignmentNotFound, assignmentID)
		}
		return nil, fmt.Errorf("failed to reactivate assignment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit reactivation transaction: %w", err)
	}
	return reactivated, nil
}

// GetCurrentSite returns the worker's active site joined with its contact
// metadata, or nil when the worker has no active assignment.
func (s *assignmentService) GetCurrentSite(workerID string, auth models.AuthContext) (*models.SiteInfo, error) {
	if strings.TrimSpace(workerID) == "" {
		return nil, fmt.Errorf("%w: worker_id is required", ErrAssignmentDataValidation)
	}

	assignment, err := s.assignmentRepo.GetActiveAssignmentByWorkerID(workerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active assignment: %w", err)
	}

	site, err := s.siteRepo.GetSiteByID(assignment.SiteID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: site ID %s", ErrSiteNotFound, assignment.SiteID)
		}
		return nil, fmt.Errorf("failed to get site for active assignment: %w", err)
	}

	if err := assertOrgAccess(auth, site.OrganizationID); err != nil {
		return nil, err
	}

	return &models.SiteInfo{Site: *site, Assignment: *assignment}, nil
}

// GetAssignmentHistory lists a worker's assignments most-recent-first.
func (s *assignmentService) GetAssignmentHistory(workerID string) ([]models.SiteAssignment, error) {
	if strings.TrimSpace(workerID) == "" {
		return nil, fmt.Errorf("%w: worker_id is required", ErrAssignmentDataValidation)
	}

	assignments, err := s.assignmentRepo.GetAssignmentsByWorkerID(workerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment history: %w", err)
	}
	return assignments, nil
}

// GetSiteWorkers lists the workers currently assigned to a site, gated by
// the same organization check as AssignWorker.
func (s *assignmentService) GetSiteWorkers(siteID string, auth models.AuthContext) ([]models.SiteWorker, error) {
	if strings.TrimSpace(siteID) == "" {
		return nil, fmt.Errorf("%w: site_id is required", ErrAssignmentDataValidation)
	}

	site, err := s.siteRepo.GetSiteByID(siteID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: site ID %s", ErrSiteNotFound, siteID)
		}
		return nil, fmt.Errorf("failed to find site: %w", err)
	}

	if err := assertOrgAccess(auth, site.OrganizationID); err != nil {
		return nil, err
	}

	siteWorkers, err := s.assignmentRepo.GetActiveSiteWorkers(siteID)
	if err != nil {
		return nil, fmt.Errorf("failed to get site workers: %w", err)
	}
	return siteWorkers, nil
}
