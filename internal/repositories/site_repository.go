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
)

// SiteRepository defines the interface for site database operations.
type SiteRepository interface {
	CreateSite(executor SQLExecutor, site *models.Site) (*models.Site, error)
	GetSiteByID(id string) (*models.Site, error)
	GetSites(page, pageSize int, status *models.SiteStatus, organizationID *string) ([]models.Site, int, error)
	UpdateSite(executor SQLExecutor, site *models.Site) (*models.Site, error)
}

type siteRepository struct {
	db *sql.DB
}

// NewSiteRepository creates a new instance of SiteRepository.
func NewSiteRepository(db *sql.DB) SiteRepository {
	return &siteRepository{db: db}
}

func (r *siteRepository) CreateSite(executor SQLExecutor, site *models.Site) (*models.Site, error) {
	query := `INSERT INTO sites (id, name, address, organization_id, status, manager_name,
	            manager_phone, safety_manager_name, safety_manager_phone, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	          RETURNING id, created_at, updated_at`

	currentTime := time.Now()
	site.CreatedAt = currentTime
	site.UpdatedAt = currentTime
	if site.ID == "" {
		site.ID = uuid.NewString()
	}

	err := executor.QueryRow(query,
		site.ID, site.Name, site.Address, site.OrganizationID, site.Status,
		site.ManagerName, site.ManagerPhone, site.SafetyManagerName, site.SafetyManagerPhone,
		site.CreatedAt, site.UpdatedAt,
	).Scan(&site.ID, &site.CreatedAt, &site.UpdatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return nil, fmt.Errorf("%w (constraint: %s)", ErrDuplicateKey, pqErr.Constraint)
		}
		return nil, fmt.Errorf("%w: creating site: %v", ErrDatabaseError, err)
	}
	return site, nil
}

func scanSiteRow(row scanner) (*models.Site, error) {
	var site models.Site
	var address, organizationID, managerName, managerPhone sql.NullString
	var safetyManagerName, safetyManagerPhone sql.NullString

	err := row.Scan(
		&site.ID, &site.Name, &address, &organizationID, &site.Status,
		&managerName, &managerPhone, &safetyManagerName, &safetyManagerPhone,
		&site.CreatedAt, &site.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning site: %v", ErrDatabaseError, err)
	}

	if address.Valid {
		site.Address = &address.String
	}
	if organizationID.Valid {
		site.OrganizationID = &organizationID.String
	}
	if managerName.Valid {
		site.ManagerName = &managerName.String
	}
	if managerPhone.Valid {
		site.ManagerPhone = &managerPhone.String
	}
	if safetyManagerName.Valid {
		site.SafetyManagerName = &safetyManagerName.String
	}
	if safetyManagerPhone.Valid {
		site.SafetyManagerPhone = &safetyManagerPhone.String
	}
	return &site, nil
}

func (r *siteRepository) GetSiteByID(id string) (*models.Site, error) {
	query := `SELECT id, name, address, organization_id, status, manager_name, manager_phone,
	            safety_manager_name, safety_manager_phone, created_at, updated_at
	          FROM sites WHERE id = $1`
	return scanSiteRow(r.db.QueryRow(query, id))
}

func (r *siteRepository) GetSites(page, pageSize int, status *models.SiteStatus, organizationID *string) ([]models.Site, int, error) {
	sites := []models.Site{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT id, name, address, organization_id, status, manager_name, manager_phone,
	    safety_manager_name, safety_manager_phone, created_at, updated_at,
	    COUNT(*) OVER() as total_count
	  FROM sites`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argCount))
		args = append(args, *status)
		argCount++
	}
	if organizationID != nil {
		// Restricted callers see their own organization's sites plus global ones.
		conditions = append(conditions, fmt.Sprintf("(organization_id = $%d OR organization_id IS NULL)", argCount))
		args = append(args, *organizationID)
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY name ASC")

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
		return nil, 0, fmt.Errorf("%w: querying sites: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var site models.Site
		var address, organizationID, managerName, managerPhone sql.NullString
		var safetyManagerName, safetyManagerPhone sql.NullString
		// Must scan totalCount from each row when using COUNT(*) OVER()
		var currentRowTotalCount int

		err := rows.Scan(
			&site.ID, &site.Name, &address, &organizationID, &site.Status,
			&managerName, &managerPhone, &safetyManagerName, &safetyManagerPhone,
			&site.CreatedAt, &site.UpdatedAt,
			&currentRowTotalCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning site from list: %v", ErrDatabaseError, err)
		}
		totalCount = currentRowTotalCount

		if address.Valid {
			site.Address = &address.String
		}
		if organizationID.Valid {
			site.OrganizationID = &organizationID.String
		}
		if managerName.Valid {
			site.ManagerName = &managerName.String
		}
		if managerPhone.Valid {
			site.ManagerPhone = &managerPhone.String
		}
		if safetyManagerName.Valid {
			site.SafetyManagerName = &safetyManagerName.String
		}
		if safetyManagerPhone.Valid {
			site.SafetyManagerPhone = &safetyManagerPhone.String
		}
		sites = append(sites, site)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating site rows: %v", ErrDatabaseError, err)
	}
	return sites, totalCount, nil
}

func (r *siteRepository) UpdateSite(executor SQLExecutor, site *models.Site) (*models.Site, error) {
	query := `UPDATE sites SET
	            name = $1, address = $2, status = $3, manager_name = $4, manager_phone = $5,
	            safety_manager_name = $6, safety_manager_phone = $7, updated_at = $8
	          WHERE id = $9
	          RETURNING updated_at`

	site.UpdatedAt = time.Now()

	err := executor.QueryRow(query,
		site.Name, site.Address, site.Status, site.ManagerName, site.ManagerPhone,
		site.SafetyManagerName, site.SafetyManagerPhone, site.UpdatedAt, site.ID,
	).Scan(&site.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: updating site ID %s: %v", ErrDatabaseError, site.ID, err)
	}
	return site, nil
}
