package services

import (
	"errors"
	"fmt"
	"time"

	"siteworks_backend/internal/models"
	"siteworks_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

// --- Custom Service Errors for Payroll ---
var (
	ErrPayrollPeriodValidation = errors.New("invalid payroll period, year must be 2000-2100 and month 1-12")
	ErrPayrollBatchValidation  = errors.New("payroll batch validation error")
	ErrSnapshotNotFound        = errors.New("payroll snapshot not found")
	ErrAlreadyPublished        = errors.New("payroll snapshot already published for this period")
	ErrSnapshotStatusFlow      = errors.New("invalid payroll snapshot status transition")
)

// Paid hours are capped at a standard 8-hour day; anything beyond is tracked
// as overtime but not paid extra. Rates derived from a daily wage divide by
// the same 8 hours.
var standardDailyHours = decimal.NewFromInt(8)

var oneHundred = decimal.NewFromInt(100)

// --- PayrollService Interface ---
type PayrollService interface {
	Preview(workerID string, year, month int) (*models.PayrollPreview, error)
	ListMonthSummaries(year, month int, employmentType *models.EmploymentType) ([]models.WorkerPayrollSummary, error)
	Publish(year, month int, workerIDs []string) (*models.PublishResult, error)
	ApproveSnapshot(snapshotID string) (*models.PayrollSnapshot, error)
	MarkSnapshotPaid(snapshotID string) (*models.PayrollSnapshot, error)
}

// --- payrollService Implementation ---
type payrollService struct {
	payrollRepo    repositories.PayrollRepository
	workRecordRepo repositories.WorkRecordRepository
	workerRepo     repositories.WorkerRepository
	db             repositories.DB
}

// NewPayrollService creates a new instance of PayrollService.
func NewPayrollService(pr repositories.PayrollRepository, wrr repositories.WorkRecordRepository, wr repositories.WorkerRepository, db repositories.DB) PayrollService {
	return &payrollService{
		payrollRepo:    pr,
		workRecordRepo: wrr,
		workerRepo:     wr,
		db:             db,
	}
}

func validatePeriod(year, month int) error {
	if year < 2000 || year > 2100 || month < 1 || month > 12 {
		return fmt.Errorf("%w: got year=%d month=%d", ErrPayrollPeriodValidation, year, month)
	}
	return nil
}

// monthBounds returns the first and last day of the month, both inclusive.
func monthBounds(year, month int) (time.Time, time.Time) {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return first, last
}

// resolveHourlyRate picks the record's explicit rate when present, otherwise
// derives one from the worker's daily wage. Workers with neither earn a zero
// rate rather than failing the aggregation.
func resolveHourlyRate(record models.WorkRecord, worker *models.Worker) decimal.Decimal {
	if record.HourlyRate != nil && record.HourlyRate.IsPositive() {
		return *record.HourlyRate
	}
	if worker.DailyWage != nil && worker.DailyWage.IsPositive() {
		return worker.DailyWage.Div(standardDailyHours)
	}
	return decimal.Zero
}

// computePreview aggregates the given records into a draft payroll result.
// All arithmetic stays at full decimal precision; deductions apply to the
// same gross base and are summed, never compounded. Rounding is left to the
// presentation layer so it cannot feed back into the computation.
func computePreview(worker *models.Worker, year, month int, records []models.WorkRecord) (*models.PayrollPreview, error) {
	rates, err := models.DeductionRatesFor(worker.EmploymentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, worker.EmploymentType)
	}

	totalHours := decimal.Zero
	overtimeHours := decimal.Zero
	grossPay := decimal.Zero
	workDays := make(map[string]struct{})

	for _, record := range records {
		totalHours = totalHours.Add(record.LaborHours)

		paidHours := record.LaborHours
		if paidHours.GreaterThan(standardDailyHours) {
			overtimeHours = overtimeHours.Add(paidHours.Sub(standardDailyHours))
			paidHours = standardDailyHours
		}

		grossPay = grossPay.Add(paidHours.Mul(resolveHourlyRate(record, worker)))
		workDays[record.WorkDate.Format("2006-01-02")] = struct{}{}
	}

	deductions := grossPay.Mul(rates.TotalPercent()).Div(oneHundred)
	netPay := grossPay.Sub(deductions)

	return &models.PayrollPreview{
		WorkerID:        worker.ID,
		Year:            year,
		Month:           month,
		EmploymentType:  worker.EmploymentType,
		WorkDays:        len(workDays),
		TotalLaborHours: totalHours,
		OvertimeHours:   overtimeHours,
		TotalGrossPay:   grossPay,
		TotalDeductions: deductions,
		NetPay:          netPay,
		Rates:           rates,
	}, nil
}

// Preview computes the draft payroll for one worker and month. It reads and
// computes only, so it is safe to call any number of times for the same period.
func (s *payrollService) Preview(workerID string, year, month int) (*models.PayrollPreview, error) {
	if err := validatePeriod(year, month); err != nil {
		return nil, err
	}

	worker, err := s.workerRepo.GetWorkerByID(workerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: worker ID %s", ErrWorkerNotFound, workerID)
		}
		return nil, fmt.Errorf("failed to load worker for payroll preview: %w", err)
	}

	from, to := monthBounds(year, month)
	records, err := s.workRecordRepo.GetWorkRecordsForPeriod(workerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load work records for preview: %w", err)
	}

	return computePreview(worker, year, month, records)
}

// ListMonthSummaries rolls up every worker with work records in the month,
// flagging rows whose period is already snapshotted so callers can exclude
// them from a publish batch.
func (s *payrollService) ListMonthSummaries(year, month int, employmentType *models.EmploymentType) ([]models.WorkerPayrollSummary, error) {
	if err := validatePeriod(year, month); err != nil {
		return nil, err
	}
	if employmentType != nil && !employmentType.IsValid() {
		return nil, fmt.Errorf("%w: unknown employment type %q", ErrPayrollBatchValidation, *employmentType)
	}

	from, to := monthBounds(year, month)
	workerIDs, err := s.workRecordRepo.GetWorkerIDsWithRecords(from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list workers with records: %w", err)
	}

	snapshots, err := s.payrollRepo.GetSnapshotsForPeriod(year, month)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing snapshots: %w", err)
	}
	statusByWorker := make(map[string]models.SnapshotStatus, len(snapshots))
	for _, snapshot := range snapshots {
		statusByWorker[snapshot.WorkerID] = snapshot.Status
	}

	workers, err := s.workerRepo.GetWorkersByIDs(workerIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load worker profiles: %w", err)
	}

	summaries := []models.WorkerPayrollSummary{}
	for i := range workers {
		worker := &workers[i]
		if employmentType != nil && worker.EmploymentType != *employmentType {
			continue
		}

		records, err := s.workRecordRepo.GetWorkRecordsForPeriod(worker.ID, from, to)
		if err != nil {
			return nil, fmt.Errorf("failed to load work records for worker %s: %w", worker.ID, err)
		}

		preview, err := computePreview(worker, year, month, records)
		if err != nil {
			// A worker with broken employment metadata must not hide the rest
			// of the month; surface an empty-money row with zero amounts.
			preview = &models.PayrollPreview{
				WorkerID:        worker.ID,
				Year:            year,
				Month:           month,
				EmploymentType:  worker.EmploymentType,
				TotalLaborHours: decimal.Zero,
				TotalGrossPay:   decimal.Zero,
				NetPay:          decimal.Zero,
			}
		}

		summary := models.WorkerPayrollSummary{
			WorkerID:        worker.ID,
			FullName:        worker.FullName,
			EmploymentType:  worker.EmploymentType,
			DailyWage:       worker.DailyWage,
			WorkDays:        preview.WorkDays,
			TotalLaborHours: preview.TotalLaborHours,
			TotalGrossPay:   preview.TotalGrossPay,
			NetPay:          preview.NetPay,
		}
		if status, ok := statusByWorker[worker.ID]; ok {
			st := status
			summary.Status = &st
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// Publish freezes the preview of each requested worker into an immutable
// snapshot. The batch is best-effort: workers whose period is already
// snapshotted are skipped, and one worker's failure never aborts the rest.
// The check-then-insert is backed by the (worker_id, year, month) unique key,
// so a concurrent publisher losing the race is reported as skipped, not failed.
func (s *payrollService) Publish(year, month int, workerIDs []string) (*models.PublishResult, error) {
	if err := validatePeriod(year, month); err != nil {
		return nil, err
	}
	if len(workerIDs) == 0 {
		return nil, fmt.Errorf("%w: worker_ids must not be empty", ErrPayrollBatchValidation)
	}

	// Duplicate IDs in one batch would double-process a worker.
	seen := make(map[string]struct{}, len(workerIDs))
	uniqueIDs := make([]string, 0, len(workerIDs))
	for _, id := range workerIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		uniqueIDs = append(uniqueIDs, id)
	}

	result := &models.PublishResult{
		Year:     year,
		Month:    month,
		Skipped:  []string{},
		Failures: []models.PublishFailure{},
	}

	for _, workerID := range uniqueIDs {
		if _, err := s.payrollRepo.GetSnapshotForWorkerPeriod(workerID, year, month); err == nil {
			result.Skipped = append(result.Skipped, workerID)
			continue
		} else if !errors.Is(err, repositories.ErrNotFound) {
			result.Failures = append(result.Failures, models.PublishFailure{
				WorkerID: workerID,
				Reason:   "failed to check existing snapshot",
			})
			continue
		}

		preview, err := s.Preview(workerID, year, month)
		if err != nil {
			result.Failures = append(result.Failures, models.PublishFailure{
				WorkerID: workerID,
				Reason:   publishFailureReason(err),
			})
			continue
		}

		snapshot := &models.PayrollSnapshot{
			WorkerID:        workerID,
			Year:            year,
			Month:           month,
			WorkDays:        preview.WorkDays,
			TotalLaborHours: preview.TotalLaborHours,
			OvertimeHours:   preview.OvertimeHours,
			TotalGrossPay:   preview.TotalGrossPay,
			TotalDeductions: preview.TotalDeductions,
			NetPay:          preview.NetPay,
			Status:          models.SnapshotStatusIssued,
			IssuedAt:        time.Now(),
		}

		if _, err := s.payrollRepo.CreateSnapshot(s.db, snapshot); err != nil {
			if errors.Is(err, repositories.ErrDuplicateKey) {
				// Lost the race against a concurrent publish of the same period.
				result.Skipped = append(result.Skipped, workerID)
				continue
			}
			result.Failures = append(result.Failures, models.PublishFailure{
				WorkerID: workerID,
				Reason:   publishFailureReason(err),
			})
			continue
		}
		result.Inserted++
	}
	return result, nil
}

// publishFailureReason keeps store internals out of batch results; only
// deterministic domain errors carry their own message through.
func publishFailureReason(err error) string {
	switch {
	case errors.Is(err, ErrWorkerNotFound):
		return "worker not found"
	case errors.Is(err, models.ErrUnknownEmploymentType):
		return "no deduction rates defined for employment type"
	default:
		return "storage error while publishing snapshot"
	}
}

// ApproveSnapshot moves an issued snapshot to approved.
func (s *payrollService) ApproveSnapshot(snapshotID string) (*models.PayrollSnapshot, error) {
	return s.transitionSnapshot(snapshotID, models.SnapshotStatusIssued, models.SnapshotStatusApproved)
}

// MarkSnapshotPaid moves an approved snapshot to paid.
func (s *payrollService) MarkSnapshotPaid(snapshotID string) (*models.PayrollSnapshot, error) {
	return s.transitionSnapshot(snapshotID, models.SnapshotStatusApproved, models.SnapshotStatusPaid)
}

func (s *payrollService) transitionSnapshot(snapshotID string, from, to models.SnapshotStatus) (*models.PayrollSnapshot, error) {
	snapshot, err := s.payrollRepo.GetSnapshotByID(snapshotID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: snapshot ID %s", ErrSnapshotNotFound, snapshotID)
		}
		return nil, fmt.Errorf("failed to find snapshot: %w", err)
	}

	if snapshot.Status != from {
		return nil, fmt.Errorf("%w: %s -> %s not allowed from %s", ErrSnapshotStatusFlow, from, to, snapshot.Status)
	}

	updated, err := s.payrollRepo.UpdateSnapshotStatus(s.db, snapshotID, to)
	if err != nil {
		return nil, fmt.Errorf("failed to update snapshot status: %w", err)
	}
	return updated, nil
}
