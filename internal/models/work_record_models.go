package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WorkRecord is one worker's labor entry for one work date at one site.
// It is the source of truth for payroll aggregation. HourlyRate may be set
// explicitly on the record; when it is absent the rate is derived from the
// worker's daily wage at aggregation time (daily_wage / 8).
type WorkRecord struct {
	ID         string           `json:"id"`
	WorkerID   string           `json:"worker_id" db:"worker_id"`
	SiteID     string           `json:"site_id" db:"site_id"`
	WorkDate   time.Time        `json:"work_date" db:"work_date"`
	LaborHours decimal.Decimal  `json:"labor_hours" db:"labor_hours"`
	HourlyRate *decimal.Decimal `json:"hourly_rate,omitempty" db:"hourly_rate"`
	Notes      *string          `json:"notes,omitempty" db:"notes"`
	CreatedAt  time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at" db:"updated_at"`
}
