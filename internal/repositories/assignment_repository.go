package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"siteworks_backend/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq" // For pq.Error
	"github.com/shopspring/decimal"
)

// AssignmentRepository defines the interface for site assignment database
// operations. Write methods take an SQLExecutor so the deactivate-then-insert
// pair can run inside a single transaction.
type AssignmentRepository interface {
	CreateAssignment(executor SQLExecutor, assignment *models.SiteAssignment) (*models.SiteAssignment, error)
	GetAssignmentByID(id string) (*models.SiteAssignment, error)
	GetActiveAssignmentByWorkerID(workerID string) (*models.SiteAssignment, error)
	DeactivateActiveAssignments(executor SQLExecutor, workerID string, unassignedDate time.Time) (int64, error)
	ActivateAssignment(executor SQLExecutor, id string) (*models.SiteAssignment, error)
	GetAssignmentsByWorkerID(workerID string) ([]models.SiteAssignment, error)
	GetActiveSiteWorkers(siteID string) ([]models.SiteWorker, error)
}

type assignmentRepository struct {
	db *sql.DB
}

// NewAssignmentRepository creates a new instance of AssignmentRepository.
func NewAssignmentRepository(db *sql.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

const assignmentColumns = `id, worker_id, site_id, assigned_date, unassigned_date, site_role,
	            is_active, created_at, updated_at`

func (r *assignmentRepository) CreateAssignment(executor SQLExecutor, assignment *models.SiteAssignment) (*models.SiteAssignment, error) {
	query := `INSERT INTO site_assignments (id, worker_id, site_id, assigned_date, unassigned_date,
	            site_role, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id, created_at, updated_at`

	currentTime := time.Now()
	assignment.CreatedAt = currentTime
	assignment.UpdatedAt = currentTime
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}

	err := executor.QueryRow(query,
		assignment.ID, assignment.WorkerID, assignment.SiteID, assignment.AssignedDate,
		assignment.UnassignedDate, assignment.SiteRole, assignment.IsActive,
		assignment.CreatedAt, assignment.UpdatedAt,
	).Scan(&assignment.ID, &assignment.CreatedAt, &assignment.UpdatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			// The partial unique index on (worker_id) WHERE is_active fires here
			// when another active assignment was committed concurrently.
			if pqErr.Code.Name() == "unique_violation" {
				return nil, fmt.Errorf("%w (constraint: %s)", ErrDuplicateKey, pqErr.Constraint)
			}
			if pqErr.Code.Name() == "foreign_key_violation" {
				return nil, fmt.Errorf("%w: worker or site for assignment not found (constraint: %s)", ErrNotFound, pqErr.Constraint)
			}
		}
		return nil, fmt.Errorf("%w: creating site assignment: %v", ErrDatabaseError, err)
	}
	return assignment, nil
}

func scanAssignmentRow(row scanner) (*models.SiteAssignment, error) {
	var assignment models.SiteAssignment
	var unassignedDate sql.NullTime

	err := row.Scan(
		&assignment.ID, &assignment.WorkerID, &assignment.SiteID, &assignment.AssignedDate,
		&unassignedDate, &assignment.SiteRole, &assignment.IsActive,
		&assignment.CreatedAt, &assignment.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning site assignment: %v", ErrDatabaseError, err)
	}

	if unassignedDate.Valid {
		assignment.UnassignedDate = &unassignedDate.Time
	}
	return &assignment, nil
}

func (r *assignmentRepository) GetAssignmentByID(id string) (*models.SiteAssignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM site_assignments WHERE id = $1`
	return scanAssignmentRow(r.db.QueryRow(query, id))
}

func (r *assignmentRepository) GetActiveAssignmentByWorkerID(workerID string) (*models.SiteAssignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM site_assignments
	          WHERE worker_id = $1 AND is_active = TRUE`
	return scanAssignmentRow(r.db.QueryRow(query, workerID))
}

func (r *assignmentRepository) DeactivateActiveAssignments(executor SQLExecutor, workerID string, unassignedDate time.Time) (int64, error) {
	query := `UPDATE site_assignments
	          SET is_active = FALSE, unassigned_date = $1, updated_at = $2
	          WHERE worker_id = $3 AND is_active = TRUE`

	result, err := executor.Exec(query, unassignedDate, time.Now(), workerID)
	if err != nil {
		return 0, fmt.Errorf("%w: deactivating assignments for worker %s: %v", ErrDatabaseError, workerID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	return rowsAffected, nil
}

func (r *assignmentRepository) ActivateAssignment(executor SQLExecutor, id string) (*models.SiteAssignment, error) {
	query := `UPDATE site_assignments
	          SET is_active = TRUE, unassigned_date = NULL, updated_at = $1
	          WHERE id = $2
	          RETURNING ` + assignmentColumns

	var assignment models.SiteAssignment
	var unassignedDate sql.NullTime

	err := executor.QueryRow(query, time.Now(), id).Scan(
		&assignment.ID, &assignment.WorkerID, &assignment.SiteID, &assignment.AssignedDate,
		&unassignedDate, &assignment.SiteRole, &assignment.IsActive,
		&assignment.CreatedAt, &assignment.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			// The partial unique index rejects a second active assignment.
			return nil, fmt.Errorf("%w (constraint: %s)", ErrDuplicateKey, pqErr.Constraint)
		}
		return nil, fmt.Errorf("%w: activating assignment ID %s: %v", ErrDatabaseError, id, err)
	}
	if unassignedDate.Valid {
		assignment.UnassignedDate = &unassignedDate.Time
	}
	return &assignment, nil
}

func (r *assignmentRepository) GetAssignmentsByWorkerID(workerID string) ([]models.SiteAssignment, error) {
	assignments := []models.SiteAssignment{}

	query := `SELECT sa.id, sa.worker_id, sa.site_id, sa.assigned_date, sa.unassigned_date,
	            sa.site_role, sa.is_active, sa.created_at, sa.updated_at,
	            s.id, s.name, s.address, s.organization_id, s.status,
	            s.manager_name, s.manager_phone, s.safety_manager_name, s.safety_manager_phone,
	            s.created_at, s.updated_at
	          FROM site_assignments sa
	          JOIN sites s ON sa.site_id = s.id
	          WHERE sa.worker_id = $1
	          ORDER BY sa.assigned_date DESC, sa.created_at DESC`

	rows, err := r.db.Query(query, workerID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying assignment history: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var assignment models.SiteAssignment
		var site models.Site
		var unassignedDate sql.NullTime
		var address, organizationID, managerName, managerPhone sql.NullString
		var safetyManagerName, safetyManagerPhone sql.NullString

		err := rows.Scan(
			&assignment.ID, &assignment.WorkerID, &assignment.SiteID, &assignment.AssignedDate,
			&unassignedDate, &assignment.SiteRole, &assignment.IsActive,
			&assignment.CreatedAt, &assignment.UpdatedAt,
			&site.ID, &site.Name, &address, &organizationID, &site.Status,
			&managerName, &managerPhone, &safetyManagerName, &safetyManagerPhone,
			&site.CreatedAt, &site.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning assignment history row: %v", ErrDatabaseError, err)
		}

		if unassignedDate.Valid {
			assignment.UnassignedDate = &unassignedDate.Time
		}
		if address.Valid {
			site.Address = &address.String
		}
		if organizationID.Valid {
			site.OrganizationID = &organizationID.String
		}
		if managerName.Valid {
			site.ManagerName = &managerName.String
		}
		if managerPhone.Valid {
			site.ManagerPhone = &managerPhone.String
		}
		if safetyManagerName.Valid {
			site.SafetyManagerName = &safetyManagerName.String
		}
		if safetyManagerPhone.Valid {
			site.SafetyManagerPhone = &safetyManagerPhone.String
		}
		assignment.Site = &site
		assignments = append(assignments, assignment)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating assignment history rows: %v", ErrDatabaseError, err)
	}
	return assignments, nil
}

func (r *assignmentRepository) GetActiveSiteWorkers(siteID string) ([]models.SiteWorker, error) {
	siteWorkers := []models.SiteWorker{}

	query := `SELECT sa.id, sa.worker_id, sa.site_id, sa.assigned_date, sa.unassigned_date,
	            sa.site_role, sa.is_active, sa.created_at, sa.updated_at,
	            p.id, p.email, p.full_name, p.phone_number, p.role, p.employment_type,
	            p.daily_wage, p.organization_id, p.is_active, p.created_at, p.updated_at
	          FROM site_assignments sa
	          JOIN profiles p ON sa.worker_id = p.id
	          WHERE sa.site_id = $1 AND sa.is_active = TRUE
	          ORDER BY p.full_name ASC`

	rows, err := r.db.Query(query, siteID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying site workers: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var assignment models.SiteAssignment
		var worker models.Worker
		var unassignedDate sql.NullTime
		var phoneNumber, organizationID sql.NullString
		var dailyWage decimal.NullDecimal

		err := rows.Scan(
			&assignment.ID, &assignment.WorkerID, &assignment.SiteID, &assignment.AssignedDate,
			&unassignedDate, &assignment.SiteRole, &assignment.IsActive,
			&assignment.CreatedAt, &assignment.UpdatedAt,
			&worker.ID, &worker.Email, &worker.FullName, &phoneNumber, &worker.Role,
			&worker.EmploymentType, &dailyWage, &organizationID, &worker.IsActive,
			&worker.CreatedAt, &worker.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning site worker row: %v", ErrDatabaseError, err)
		}

		if unassignedDate.Valid {
			assignment.UnassignedDate = &unassignedDate.Time
		}
		if phoneNumber.Valid {
			worker.PhoneNumber = &phoneNumber.String
		}
		if organizationID.Valid {
			worker.OrganizationID = &organizationID.String
		}
		if dailyWage.Valid {
			worker.DailyWage = &dailyWage.Decimal
		}
		siteWorkers = append(siteWorkers, models.SiteWorker{Worker: worker, Assignment: assignment})
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating site worker rows: %v", ErrDatabaseError, err)
	}
	return siteWorkers, nil
}
