package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"siteworks_backend/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq" // For pq.Error
)

// PayrollRepository defines the interface for payroll snapshot database
// operations. Snapshots are insert-once rows; the unique key on
// (worker_id, year, month) is the idempotence guard for publishing.
type PayrollRepository interface {
	CreateSnapshot(executor SQLExecutor, snapshot *models.PayrollSnapshot) (*models.PayrollSnapshot, error)
	GetSnapshotByID(id string) (*models.PayrollSnapshot, error)
	GetSnapshotForWorkerPeriod(workerID string, year, month int) (*models.PayrollSnapshot, error)
	GetSnapshotsForPeriod(year, month int) ([]models.PayrollSnapshot, error)
	UpdateSnapshotStatus(executor SQLExecutor, id string, status models.SnapshotStatus) (*models.PayrollSnapshot, error)
}

type payrollRepository struct {
	db *sql.DB
}

// NewPayrollRepository creates a new instance of PayrollRepository.
func NewPayrollRepository(db *sql.DB) PayrollRepository {
	return &payrollRepository{db: db}
}

const snapshotColumns = `id, worker_id, year, month, work_days, total_labor_hours, overtime_hours,
	            total_gross_pay, total_deductions, net_pay, status, issued_at, created_at, updated_at`

func (r *payrollRepository) CreateSnapshot(executor SQLExecutor, snapshot *models.PayrollSnapshot) (*models.PayrollSnapshot, error) {
	query := `INSERT INTO payroll_snapshots (id, worker_id, year, month, work_days,
	            total_labor_hours, overtime_hours, total_gross_pay, total_deductions, net_pay,
	            status, issued_at, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	          RETURNING id, created_at, updated_at`

	currentTime := time.Now()
	snapshot.CreatedAt = currentTime
	snapshot.UpdatedAt = currentTime
	if snapshot.ID == "" {
		snapshot.ID = uuid.NewString()
	}

	err := executor.QueryRow(query,
		snapshot.ID, snapshot.WorkerID, snapshot.Year, snapshot.Month, snapshot.WorkDays,
		snapshot.TotalLaborHours, snapshot.OvertimeHours, snapshot.TotalGrossPay,
		snapshot.TotalDeductions, snapshot.NetPay, snapshot.Status, snapshot.IssuedAt,
		snapshot.CreatedAt, snapshot.UpdatedAt,
	).Scan(&snapshot.ID, &snapshot.CreatedAt, &snapshot.UpdatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			// A violation of the (worker_id, year, month) key means a concurrent
			// publisher won; callers treat this as "already published".
			if pqErr.Code.Name() == "unique_violation" {
				return nil, fmt.Errorf("%w (constraint: %s)", ErrDuplicateKey, pqErr.Constraint)
			}
			if pqErr.Code.Name() == "foreign_key_violation" {
				return nil, fmt.Errorf("%w: worker for snapshot not found (constraint: %s)", ErrNotFound, pqErr.Constraint)
			}
		}
		return nil, fmt.Errorf("%w: creating payroll snapshot: %v", ErrDatabaseError, err)
	}
	return snapshot, nil
}

func scanSnapshotRow(row scanner) (*models.PayrollSnapshot, error) {
	var snapshot models.PayrollSnapshot

	err := row.Scan(
		&snapshot.ID, &snapshot.WorkerID, &snapshot.Year, &snapshot.Month, &snapshot.WorkDays,
		&snapshot.TotalLaborHours, &snapshot.OvertimeHours, &snapshot.TotalGrossPay,
		&snapshot.TotalDeductions, &snapshot.NetPay, &snapshot.Status, &snapshot.IssuedAt,
		&snapshot.CreatedAt, &snapshot.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning payroll snapshot: %v", ErrDatabaseError, err)
	}
	return &snapshot, nil
}

func (r *payrollRepository) GetSnapshotByID(id string) (*models.PayrollSnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM payroll_snapshots WHERE id = $1`
	return scanSnapshotRow(r.db.QueryRow(query, id))
}

func (r *payrollRepository) GetSnapshotForWorkerPeriod(workerID string, year, month int) (*models.PayrollSnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM payroll_snapshots
	          WHERE worker_id = $1 AND year = $2 AND month = $3`
	return scanSnapshotRow(r.db.QueryRow(query, workerID, year, month))
}

func (r *payrollRepository) GetSnapshotsForPeriod(year, month int) ([]models.PayrollSnapshot, error) {
	snapshots := []models.PayrollSnapshot{}

	query := `SELECT ` + snapshotColumns + ` FROM payroll_snapshots
	          WHERE year = $1 AND month = $2
	          ORDER BY worker_id`

	rows, err := r.db.Query(query, year, month)
	if err != nil {
		return nil, fmt.Errorf("%w: querying payroll snapshots: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		snapshot, err := scanSnapshotRow(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, *snapshot)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating payroll snapshot rows: %v", ErrDatabaseError, err)
	}
	return snapshots, nil
}

func (r *payrollRepository) UpdateSnapshotStatus(executor SQLExecutor, id string, status models.SnapshotStatus) (*models.PayrollSnapshot, error) {
	query := `UPDATE payroll_snapshots SET status = $1, updated_at = $2
	          WHERE id = $3
	          RETURNING ` + snapshotColumns

	snapshot, err := scanSnapshotRow(executor.QueryRow(query, status, time.Now(), id))
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}
