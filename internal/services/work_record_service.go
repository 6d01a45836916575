package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"siteworks_backend/internal/models"
	"siteworks_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

// --- Custom Service Errors for Work Records ---
var (
	ErrWorkRecordValidation = errors.New("work record validation error")
	ErrWorkDateFormat       = errors.New("invalid work date format, please use YYYY-MM-DD")
)

// --- WorkRecord DTOs ---
type SubmitWorkRecordRequest struct {
	WorkerID   string  `json:"worker_id" binding:"required"`
	SiteID     string  `json:"site_id" binding:"required"`
	WorkDate   string  `json:"work_date" binding:"required"` // YYYY-MM-DD
	LaborHours string  `json:"labor_hours" binding:"required"`
	HourlyRate *string `json:"hourly_rate"`
	Notes      *string `json:"notes"`
}

// --- WorkRecordService Interface ---
type WorkRecordService interface {
	SubmitWorkRecord(req SubmitWorkRecordRequest) (*models.WorkRecord, error)
	GetWorkRecords(workerID, siteID *string, fromStr, toStr *string, page, pageSize int) ([]models.WorkRecord, int, error)
}

// --- workRecordService Implementation ---
type workRecordService struct {
	workRecordRepo repositories.WorkRecordRepository
	workerRepo     repositories.WorkerRepository
	siteRepo       repositories.SiteRepository
	db             repositories.DB
}

// NewWorkRecordService creates a new instance of WorkRecordService.
func NewWorkRecordService(wrr repositories.WorkRecordRepository, wr repositories.WorkerRepository, sr repositories.SiteRepository, db repositories.DB) WorkRecordService {
	return &workRecordService{
		workRecordRepo: wrr,
		workerRepo:     wr,
		siteRepo:       sr,
		db:             db,
	}
}

func parseWorkDate(raw string) (time.Time, error) {
	parsed, err := time.Parse("2006-01-02", strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, ErrWorkDateFormat
	}
	return parsed, nil
}

// SubmitWorkRecord validates and upserts one day's labor entry. Re-submitting
// the same (worker, site, date) replaces the earlier entry.
func (s *workRecordService) SubmitWorkRecord(req SubmitWorkRecordRequest) (*models.WorkRecord, error) {
	workDate, err := parseWorkDate(req.WorkDate)
	if err != nil {
		return nil, err
	}

	laborHours, err := decimal.NewFromString(strings.TrimSpace(req.LaborHours))
	if err != nil {
		return nil, fmt.Errorf("%w: labor_hours must be a number", ErrWorkRecordValidation)
	}
	if !laborHours.IsPositive() {
		return nil, fmt.Errorf("%w: labor_hours must be positive", ErrWorkRecordValidation)
	}
	if laborHours.GreaterThan(decimal.NewFromInt(24)) {
		return nil, fmt.Errorf("%w: labor_hours cannot exceed 24", ErrWorkRecordValidation)
	}

	var hourlyRate *decimal.Decimal
	if req.HourlyRate != nil && strings.TrimSpace(*req.HourlyRate) != "" {
		rate, err := decimal.NewFromString(strings.TrimSpace(*req.HourlyRate))
		if err != nil {
			return nil, fmt.Errorf("%w: hourly_rate must be a number", ErrWorkRecordValidation)
		}
		if rate.IsNegative() {
			return nil, fmt.Errorf("%w: hourly_rate cannot be negative", ErrWorkRecordValidation)
		}
		hourlyRate = &rate
	}

	if _, err := s.workerRepo.GetWorkerByID(req.WorkerID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: worker ID %s", ErrWorkerNotFound, req.WorkerID)
		}
		return nil, fmt.Errorf("failed to validate worker for work record: %w", err)
	}
	if _, err := s.siteRepo.GetSiteByID(req.SiteID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: site ID %s", ErrSiteNotFound, req.SiteID)
		}
		return nil, fmt.Errorf("failed to validate site for work record: %w", err)
	}

	record := &models.WorkRecord{
		WorkerID:   req.WorkerID,
		SiteID:     req.SiteID,
		WorkDate:   workDate,
		LaborHours: laborHours,
		HourlyRate: hourlyRate,
		Notes:      req.Notes,
	}

	saved, err := s.workRecordRepo.UpsertWorkRecord(s.db, record)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: worker or site reference missing", ErrWorkRecordValidation)
		}
		return nil, fmt.Errorf("failed to save work record: %w", err)
	}
	return saved, nil
}

func (s *workRecordService) GetWorkRecords(workerID, siteID *string, fromStr, toStr *string, page, pageSize int) ([]models.WorkRecord, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 31
	}

	var from, to *time.Time
	if fromStr != nil && strings.TrimSpace(*fromStr) != "" {
		parsed, err := parseWorkDate(*fromStr)
		if err != nil {
			return nil, 0, fmt.Errorf("from: %w", err)
		}
		from = &parsed
	}
	if toStr != nil && strings.TrimSpace(*toStr) != "" {
		parsed, err := parseWorkDate(*toStr)
		if err != nil {
			return nil, 0, fmt.Errorf("to: %w", err)
		}
		to = &parsed
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, 0, fmt.Errorf("%w: to must not be before from", ErrWorkRecordValidation)
	}

	records, totalCount, err := s.workRecordRepo.GetWorkRecords(workerID, siteID, from, to, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get work records: %w", err)
	}
	return records, totalCount, nil
}
