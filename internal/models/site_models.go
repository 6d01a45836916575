package models

import "time"

// SiteStatus is the lifecycle state of a construction site.
type SiteStatus string

const (
	SiteStatusActive    SiteStatus = "active"
	SiteStatusInactive  SiteStatus = "inactive"
	SiteStatusCompleted SiteStatus = "completed"
)

// IsValid reports whether the status is one of the enumerated values.
func (s SiteStatus) IsValid() bool {
	switch s {
	case SiteStatusActive, SiteStatusInactive, SiteStatusCompleted:
		return true
	}
	return false
}

// Site represents a physical work location. OrganizationID is nullable:
// a NULL organization means the site is visible to every organization.
type Site struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name" db:"name"`
	Address            *string    `json:"address,omitempty" db:"address"`
	OrganizationID     *string    `json:"organization_id,omitempty" db:"organization_id"`
	Status             SiteStatus `json:"status" db:"status"`
	ManagerName        *string    `json:"manager_name,omitempty" db:"manager_name"`
	ManagerPhone       *string    `json:"manager_phone,omitempty" db:"manager_phone"`
	SafetyManagerName  *string    `json:"safety_manager_name,omitempty" db:"safety_manager_name"`
	SafetyManagerPhone *string    `json:"safety_manager_phone,omitempty" db:"safety_manager_phone"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
}

// SiteAssignment links a worker to a site. At most one assignment per worker
// may be active at any time; the partial unique index on
// site_assignments(worker_id) WHERE is_active enforces this in the store.
type SiteAssignment struct {
	ID             string     `json:"id"`
	WorkerID       string     `json:"worker_id" db:"worker_id"`
	SiteID         string     `json:"site_id" db:"site_id"`
	AssignedDate   time.Time  `json:"assigned_date" db:"assigned_date"`
	UnassignedDate *time.Time `json:"unassigned_date,omitempty" db:"unassigned_date"`
	SiteRole       string     `json:"site_role" db:"site_role"`
	IsActive       bool       `json:"is_active" db:"is_active"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
	Site           *Site      `json:"site,omitempty"` // For joining with Site details
}

// SiteWorker pairs an active assignment with the assigned worker's profile,
// used for per-site crew listings.
type SiteWorker struct {
	Worker     Worker         `json:"worker"`
	Assignment SiteAssignment `json:"assignment"`
}

// SiteInfo is the current-site view for a worker: the active assignment
// joined with the site's contact metadata.
type SiteInfo struct {
	Site       Site           `json:"site"`
	Assignment SiteAssignment `json:"assignment"`
}
