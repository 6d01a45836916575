package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role classifies what a user is allowed to do across the system.
type Role string

const (
	RoleWorker          Role = "worker"
	RoleSiteManager     Role = "site_manager"
	RoleCustomerManager Role = "customer_manager"
	RoleAdmin           Role = "admin"
	RoleSystemAdmin     Role = "system_admin"
)

// IsValid reports whether the role is one of the enumerated values.
func (r Role) IsValid() bool {
	switch r {
	case RoleWorker, RoleSiteManager, RoleCustomerManager, RoleAdmin, RoleSystemAdmin:
		return true
	}
	return false
}

// Worker represents a user profile: login identity plus the employment
// metadata (employment type, daily wage) that drives payroll calculation.
type Worker struct {
	ID             string           `json:"id"`
	Email          string           `json:"email" db:"email"`
	PasswordHash   string           `json:"-" db:"password_hash"` // '-' means don't send in JSON response
	FullName       string           `json:"full_name" db:"full_name"`
	PhoneNumber    *string          `json:"phone_number,omitempty" db:"phone_number"`
	Role           Role             `json:"role" db:"role"`
	EmploymentType EmploymentType   `json:"employment_type" db:"employment_type"`
	DailyWage      *decimal.Decimal `json:"daily_wage,omitempty" db:"daily_wage"`
	OrganizationID *string          `json:"organization_id,omitempty" db:"organization_id"`
	IsActive       bool             `json:"is_active" db:"is_active"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at" db:"updated_at"`
}

// AuthContext is the acting identity passed into organization-scoped service
// calls. It is built by the auth middleware from JWT claims and carried
// explicitly as an argument rather than living in ambient/global state.
type AuthContext struct {
	UserID         string
	Role           Role
	OrganizationID *string
}

// IsRestricted reports whether the caller is subject to organization scoping.
// Only global admins may see sites across organizations.
func (a AuthContext) IsRestricted() bool {
	return a.Role != RoleAdmin && a.Role != RoleSystemAdmin
}

// Credentials for login request
type Credentials struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}
