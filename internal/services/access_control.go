package services

import (
	"errors"
	"fmt"

	"siteworks_backend/internal/models"
)

// ErrOrgAccessDenied is returned when an organization-restricted caller
// targets a site belonging to a different organization. Callers must map it
// to a 403 and perform no mutation.
var ErrOrgAccessDenied = errors.New("caller's organization is not allowed to access this site")

// assertOrgAccess enforces organization scoping. Global admins pass
// unconditionally; sites without an organization are visible to everyone;
// everything else requires the caller's organization to match the site's.
func assertOrgAccess(auth models.AuthContext, targetOrganizationID *string) error {
	if !auth.IsRestricted() {
		return nil
	}
	if targetOrganizationID == nil {
		return nil
	}
	if auth.OrganizationID == nil || *auth.OrganizationID != *targetOrganizationID {
		return fmt.Errorf("%w: organization %s", ErrOrgAccessDenied, *targetOrganizationID)
	}
	return nil
}
