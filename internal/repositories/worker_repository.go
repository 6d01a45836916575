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

// WorkerRepository defines the interface for worker profile database operations.
type WorkerRepository interface {
	CreateWorker(executor SQLExecutor, worker *models.Worker) (*models.Worker, error)
	GetWorkerByID(id string) (*models.Worker, error)
	GetWorkerByEmail(email string) (*models.Worker, error)
	GetWorkersByIDs(ids []string) ([]models.Worker, error)
}

type workerRepository struct {
	db *sql.DB
}

// NewWorkerRepository creates a new instance of WorkerRepository.
func NewWorkerRepository(db *sql.DB) WorkerRepository {
	return &workerRepository{db: db}
}

const workerColumns = `id, email, password_hash, full_name, phone_number, role,
	            employment_type, daily_wage, organization_id, is_active, created_at, updated_at`

func (r *workerRepository) CreateWorker(executor SQLExecutor, worker *models.Worker) (*models.Worker, error) {
	query := `INSERT INTO profiles (id, email, password_hash, full_name, phone_number, role,
	            employment_type, daily_wage, organization_id, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	          RETURNING id, created_at, updated_at`

	currentTime := time.Now()
	worker.CreatedAt = currentTime
	worker.UpdatedAt = currentTime
	if worker.ID == "" {
		worker.ID = uuid.NewString()
	}

	err := executor.QueryRow(query,
		worker.ID, worker.Email, worker.PasswordHash, worker.FullName, worker.PhoneNumber,
		worker.Role, worker.EmploymentType, decimalPtrToNull(worker.DailyWage),
		worker.OrganizationID, worker.IsActive, worker.CreatedAt, worker.UpdatedAt,
	).Scan(&worker.ID, &worker.CreatedAt, &worker.UpdatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return nil, fmt.Errorf("%w (constraint: %s)", ErrDuplicateKey, pqErr.Constraint)
		}
		return nil, fmt.Errorf("%w: creating worker profile: %v", ErrDatabaseError, err)
	}
	return worker, nil
}

func scanWorkerRow(row scanner) (*models.Worker, error) {
	var worker models.Worker
	var phoneNumber, organizationID sql.NullString
	var dailyWage decimal.NullDecimal

	err := row.Scan(
		&worker.ID, &worker.Email, &worker.PasswordHash, &worker.FullName, &phoneNumber,
		&worker.Role, &worker.EmploymentType, &dailyWage, &organizationID,
		&worker.IsActive, &worker.CreatedAt, &worker.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning worker profile: %v", ErrDatabaseError, err)
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
	return &worker, nil
}

func (r *workerRepository) GetWorkerByID(id string) (*models.Worker, error) {
	query := `SELECT ` + workerColumns + ` FROM profiles WHERE id = $1`
	return scanWorkerRow(r.db.QueryRow(query, id))
}

func (r *workerRepository) GetWorkerByEmail(email string) (*models.Worker, error) {
	query := `SELECT ` + workerColumns + ` FROM profiles WHERE email = $1`
	return scanWorkerRow(r.db.QueryRow(query, email))
}

func (r *workerRepository) GetWorkersByIDs(ids []string) ([]models.Worker, error) {
	workers := []models.Worker{}
	if len(ids) == 0 {
		return workers, nil
	}

	query := `SELECT ` + workerColumns + ` FROM profiles WHERE id = ANY($1) ORDER BY full_name ASC`
	rows, err := r.db.Query(query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("%w: querying worker profiles: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		worker, err := scanWorkerRow(rows)
		if err != nil {
			return nil, err
		}
		workers = append(workers, *worker)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating worker rows: %v", ErrDatabaseError, err)
	}
	return workers, nil
}

// decimalPtrToNull converts an optional decimal into its nullable driver value.
func decimalPtrToNull(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
