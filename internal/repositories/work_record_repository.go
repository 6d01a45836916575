package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"siteworks_backend/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq" // For pq.Error
	"github.com/shopspring/decimal"
)

// WorkRecordRepository defines the interface for daily work-log database operations.
type WorkRecordRepository interface {
	UpsertWorkRecord(executor SQLExecutor, record *models.WorkRecord) (*models.WorkRecord, error)
	GetWorkRecordsForPeriod(workerID string, from, to time.Time) ([]models.WorkRecord, error)
	GetWorkerIDsWithRecords(from, to time.Time) ([]string, error)
	GetWorkRecords(workerID, siteID *string, from, to *time.Time, page, pageSize int) ([]models.WorkRecord, int, error)
}

type workRecordRepository struct {
	db *sql.DB
}

// NewWorkRecordRepository creates a new instance of WorkRecordRepository.
func NewWorkRecordRepository(db *sql.DB) WorkRecordRepository {
	return &workRecordRepository{db: db}
}

const workRecordColumns = `id, worker_id, site_id, work_date, labor_hours, hourly_rate,
	            notes, created_at, updated_at`

func (r *workRecordRepository) UpsertWorkRecord(executor SQLExecutor, record *models.WorkRecord) (*models.WorkRecord, error) {
	// One row per (worker, site, work date); a re-submitted day overwrites
	// hours, rate and notes instead of creating a duplicate entry.
	query := `INSERT INTO work_records (id, worker_id, site_id, work_date, labor_hours,
	            hourly_rate, notes, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          ON CONFLICT (worker_id, site_id, work_date) DO UPDATE SET
	            labor_hours = EXCLUDED.labor_hours,
	            hourly_rate = EXCLUDED.hourly_rate,
	            notes = EXCLUDED.notes,
	            updated_at = EXCLUDED.updated_at
	          RETURNING id, created_at, updated_at`

	currentTime := time.Now()
	record.CreatedAt = currentTime
	record.UpdatedAt = currentTime
	if record.ID == "" {
		record.ID = uuid.NewString()
	}

	err := executor.QueryRow(query,
		record.ID, record.WorkerID, record.SiteID, record.WorkDate, record.LaborHours,
		decimalPtrToNull(record.HourlyRate), record.Notes, record.CreatedAt, record.UpdatedAt,
	).Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
			return nil, fmt.Errorf("%w: worker or site for work record not found (constraint: %s)", ErrNotFound, pqErr.Constraint)
		}
		return nil, fmt.Errorf("%w: upserting work record: %v", ErrDatabaseError, err)
	}
	return record, nil
}

func scanWorkRecordRow(row scanner) (*models.WorkRecord, error) {
	var record models.WorkRecord
	var hourlyRate decimal.NullDecimal
	var notes sql.NullString

	err := row.Scan(
		&record.ID, &record.WorkerID, &record.SiteID, &record.WorkDate,
		&record.LaborHours, &hourlyRate, &notes, &record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning work record: %v", ErrDatabaseError, err)
	}

	if hourlyRate.Valid {
		record.HourlyRate = &hourlyRate.Decimal
	}
	if notes.Valid {
		record.Notes = &notes.String
	}
	return &record, nil
}

func (r *workRecordRepository) GetWorkRecordsForPeriod(workerID string, from, to time.Time) ([]models.WorkRecord, error) {
	records := []models.WorkRecord{}

	query := `SELECT ` + workRecordColumns + ` FROM work_records
	          WHERE worker_id = $1 AND work_date >= $2 AND work_date <= $3
	          ORDER BY work_date ASC`

	rows, err := r.db.Query(query, workerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: querying work records for period: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		record, err := scanWorkRecordRow(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating work record rows: %v", ErrDatabaseError, err)
	}
	return records, nil
}

func (r *workRecordRepository) GetWorkerIDsWithRecords(from, to time.Time) ([]string, error) {
	workerIDs := []string{}

	query := `SELECT DISTINCT wr.worker_id
	          FROM work_records wr
	          JOIN profiles p ON wr.worker_id = p.id
	          WHERE wr.work_date >= $1 AND wr.work_date <= $2
	          ORDER BY wr.worker_id`

	rows, err := r.db.Query(query, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: querying workers with records: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var workerID string
		if err := rows.Scan(&workerID); err != nil {
			return nil, fmt.Errorf("%w: scanning worker ID: %v", ErrDatabaseError, err)
		}
		workerIDs = append(workerIDs, workerID)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating worker ID rows: %v", ErrDatabaseError, err)
	}
	return workerIDs, nil
}

func (r *workRecordRepository) GetWorkRecords(workerID, siteID *string, from, to *time.Time, page, pageSize int) ([]models.WorkRecord, int, error) {
	records := []models.WorkRecord{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT id, worker_id, site_id, work_date, labor_hours, hourly_rate,
	    notes, created_at, updated_at,
	    COUNT(*) OVER() as total_count
	  FROM work_records`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if workerID != nil {
		conditions = append(conditions, fmt.Sprintf("worker_id = $%d", argCount))
		args = append(args, *workerID)
		argCount++
	}
	if siteID != nil {
		conditions = append(conditions, fmt.Sprintf("site_id = $%d", argCount))
		args = append(args, *siteID)
		argCount++
	}
	if from != nil {
		conditions = append(conditions, fmt.Sprintf("work_date >= $%d", argCount))
		args = append(args, *from)
		argCount++
	}
	if to != nil {
		conditions = append(conditions, fmt.Sprintf("work_date <= $%d", argCount))
		args = append(args, *to)
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY work_date DESC")

	if pageSize > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argCount))
		args = append(args, pageSize)
		argCount++
		if page > 0 {
			offset := (page - 1) * pageSize
			queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", argCount))
			args = append(args, offset)
		}
	}

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying work records: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var record models.WorkRecord
		var hourlyRate decimal.NullDecimal
		var notes sql.NullString
		// Must scan totalCount from each row when using COUNT(*) OVER()
		var currentRowTotalCount int

		err := rows.Scan(
			&record.ID, &record.WorkerID, &record.SiteID, &record.WorkDate,
			&record.LaborHours, &hourlyRate, &notes, &record.CreatedAt, &record.UpdatedAt,
			&currentRowTotalCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning work record from list: %v", ErrDatabaseError, err)
		}
		totalCount = currentRowTotalCount

		if hourlyRate.Valid {
			record.HourlyRate = &hourlyRate.Decimal
		}
		if notes.Valid {
			record.Notes = &notes.String
		}
		records = append(records, record)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating work record rows: %v", ErrDatabaseError, err)
	}
	return records, totalCount, nil
}
