package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// EmploymentType classifies a worker for deduction-rate selection.
type EmploymentType string

const (
	EmploymentFreelancer      EmploymentType = "freelancer"
	EmploymentDailyWorker     EmploymentType = "daily_worker"
	EmploymentRegularEmployee EmploymentType = "regular_employee"
)

// IsValid reports whether the employment type is one of the enumerated values.
func (e EmploymentType) IsValid() bool {
	switch e {
	case EmploymentFreelancer, EmploymentDailyWorker, EmploymentRegularEmployee:
		return true
	}
	return false
}

// SnapshotStatus is the publish lifecycle state of a payroll snapshot.
// A period with no snapshot row is a draft: preview-only, recomputed on demand.
type SnapshotStatus string

const (
	SnapshotStatusIssued   SnapshotStatus = "issued"
	SnapshotStatusApproved SnapshotStatus = "approved"
	SnapshotStatusPaid     SnapshotStatus = "paid"
)

// IsValid reports whether the status is one of the enumerated values.
func (s SnapshotStatus) IsValid() bool {
	switch s {
	case SnapshotStatusIssued, SnapshotStatusApproved, SnapshotStatusPaid:
		return true
	}
	return false
}

// ErrUnknownEmploymentType is returned when no deduction-rate set exists for
// an employment type.
var ErrUnknownEmploymentType = errors.New("no deduction rates defined for employment type")

// DeductionRate is one statutory deduction component, expressed in percent.
type DeductionRate struct {
	Name string          `json:"name"`
	Rate decimal.Decimal `json:"rate"`
}

// DeductionRateSet is the resolved set of deduction components for an
// employment type. All rates apply to the same gross base and are summed,
// never compounded.
type DeductionRateSet []DeductionRate

// TotalPercent returns the sum of all component rates, in percent.
func (s DeductionRateSet) TotalPercent() decimal.Decimal {
	total := decimal.Zero
	for _, r := range s {
		total = total.Add(r.Rate)
	}
	return total
}

// Statutory deduction reference data. Freelancers and daily workers use the
// simplified two-component withholding; regular employees carry the full
// social-insurance table. Loaded once here, not duplicated per call site.
var (
	simplifiedDeductionRates = DeductionRateSet{
		{Name: "income_tax", Rate: decimal.RequireFromString("3.0")},
		{Name: "local_income_tax", Rate: decimal.RequireFromString("0.3")},
	}

	regularEmployeeDeductionRates = DeductionRateSet{
		{Name: "national_pension", Rate: decimal.RequireFromString("4.5")},
		{Name: "health_insurance", Rate: decimal.RequireFromString("3.545")},
		{Name: "long_term_care", Rate: decimal.RequireFromString("0.459")},
		{Name: "employment_insurance", Rate: decimal.RequireFromString("0.9")},
	}
)

// DeductionRatesFor resolves the deduction-rate set for an employment type.
func DeductionRatesFor(et EmploymentType) (DeductionRateSet, error) {
	switch et {
	case EmploymentFreelancer, EmploymentDailyWorker:
		return simplifiedDeductionRates, nil
	case EmploymentRegularEmployee:
		return regularEmployeeDeductionRates, nil
	}
	return nil, ErrUnknownEmploymentType
}

// PayrollSnapshot is the persisted, immutable result of publishing one
// (worker, year, month). Rows are never rewritten; only Status moves through
// issued -> approved -> paid.
type PayrollSnapshot struct {
	ID              string          `json:"id"`
	WorkerID        string          `json:"worker_id" db:"worker_id"`
	Year            int             `json:"year" db:"year"`
	Month           int             `json:"month" db:"month"`
	WorkDays        int             `json:"work_days" db:"work_days"`
	TotalLaborHours decimal.Decimal `json:"total_labor_hours" db:"total_labor_hours"`
	OvertimeHours   decimal.Decimal `json:"overtime_hours" db:"overtime_hours"`
	TotalGrossPay   decimal.Decimal `json:"total_gross_pay" db:"total_gross_pay"`
	TotalDeductions decimal.Decimal `json:"total_deductions" db:"total_deductions"`
	NetPay          decimal.Decimal `json:"net_pay" db:"net_pay"`
	Status          SnapshotStatus  `json:"status" db:"status"`
	IssuedAt        time.Time       `json:"issued_at" db:"issued_at"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// PayrollPreview is the draft computation for one (worker, year, month).
// It is never persisted; Publish freezes it into a PayrollSnapshot.
type PayrollPreview struct {
	WorkerID        string           `json:"worker_id"`
	Year            int              `json:"year"`
	Month           int              `json:"month"`
	EmploymentType  EmploymentType   `json:"employment_type"`
	WorkDays        int              `json:"work_days"`
	TotalLaborHours decimal.Decimal  `json:"total_labor_hours"`
	OvertimeHours   decimal.Decimal  `json:"overtime_hours"`
	TotalGrossPay   decimal.Decimal  `json:"total_gross_pay"`
	TotalDeductions decimal.Decimal  `json:"total_deductions"`
	NetPay          decimal.Decimal  `json:"net_pay"`
	Rates           DeductionRateSet `json:"rates"`
}

// WorkerPayrollSummary is one row of the month roll-up used to drive batch
// publishing. Status is nil while the period is still a draft.
type WorkerPayrollSummary struct {
	WorkerID        string           `json:"worker_id"`
	FullName        string           `json:"full_name"`
	EmploymentType  EmploymentType   `json:"employment_type"`
	DailyWage       *decimal.Decimal `json:"daily_wage,omitempty"`
	WorkDays        int              `json:"work_days"`
	TotalLaborHours decimal.Decimal  `json:"total_labor_hours"`
	TotalGrossPay   decimal.Decimal  `json:"total_gross_pay"`
	NetPay          decimal.Decimal  `json:"net_pay"`
	Status          *SnapshotStatus  `json:"status,omitempty"`
}

// PublishFailure records a single worker's error inside a best-effort batch.
type PublishFailure struct {
	WorkerID string `json:"worker_id"`
	Reason   string `json:"reason"`
}

// PublishResult reports the outcome of a batch publish: how many snapshots
// were inserted, which workers were skipped as already issued, and which
// failed without aborting the rest of the batch.
type PublishResult struct {
	Year     int              `json:"year"`
	Month    int              `json:"month"`
	Inserted int              `json:"inserted"`
	Skipped  []string         `json:"skipped"`
	Failures []PublishFailure `json:"failures"`
}
