package services

import (
	"database/sql"
	"sort"
	"sync"
	"time"

	"siteworks_backend/internal/models"
	"siteworks_backend/internal/repositories"

	"github.com/google/uuid"
)

// In-memory store doubles for the repository interfaces. They reproduce the
// constraint behavior of the real schema, in particular the partial unique
// index allowing at most one active assignment per worker and the
// (worker, year, month) unique key on snapshots.

type fakeTx struct{}

func (fakeTx) Exec(query string, args ...interface{}) (sql.Result, error) { return nil, nil }
func (fakeTx) QueryRow(query string, args ...interface{}) *sql.Row        { return nil }
func (fakeTx) Query(query string, args ...interface{}) (*sql.Rows, error) { return nil, nil }
func (fakeTx) Commit() error                                              { return nil }
func (fakeTx) Rollback() error                                            { return nil }

type fakeDB struct{}

func (fakeDB) Exec(query string, args ...interface{}) (sql.Result, error) { return nil, nil }
func (fakeDB) QueryRow(query string, args ...interface{}) *sql.Row        { return nil }
func (fakeDB) Query(query string, args ...interface{}) (*sql.Rows, error) { return nil, nil }
func (fakeDB) Begin() (repositories.Tx, error)                            { return fakeTx{}, nil }

type fakeWorkerRepo struct {
	mu      sync.Mutex
	workers map[string]models.Worker
}

func newFakeWorkerRepo() *fakeWorkerRepo {
	return &fakeWorkerRepo{workers: make(map[string]models.Worker)}
}

func (r *fakeWorkerRepo) add(worker models.Worker) models.Worker {
	r.mu.Lock()
	defer r.mu.Unlock()
	if worker.ID == "" {
		worker.ID = uuid.NewString()
	}
	r.workers[worker.ID] = worker
	return worker
}

func (r *fakeWorkerRepo) CreateWorker(_ repositories.SQLExecutor, worker *models.Worker) (*models.Worker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.workers {
		if existing.Email == worker.Email {
			return nil, repositories.ErrDuplicateKey
		}
	}
	created := *worker
	created.ID = uuid.NewString()
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	r.workers[created.ID] = created
	return &created, nil
}

func (r *fakeWorkerRepo) GetWorkerByID(id string) (*models.Worker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	worker, ok := r.workers[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copy := worker
	return &copy, nil
}

func (r *fakeWorkerRepo) GetWorkerByEmail(email string) (*models.Worker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, worker := range r.workers {
		if worker.Email == email {
			copy := worker
			return &copy, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeWorkerRepo) GetWorkersByIDs(ids []string) ([]models.Worker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Worker
	for _, id := range ids {
		if worker, ok := r.workers[id]; ok {
			out = append(out, worker)
		}
	}
	return out, nil
}

type fakeSiteRepo struct {
	mu    sync.Mutex
	sites map[string]models.Site
}

func newFakeSiteRepo() *fakeSiteRepo {
	return &fakeSiteRepo{sites: make(map[string]models.Site)}
}

func (r *fakeSiteRepo) add(site models.Site) models.Site {
	r.mu.Lock()
	defer r.mu.Unlock()
	if site.ID == "" {
		site.ID = uuid.NewString()
	}
	if site.Status == "" {
		site.Status = models.SiteStatusActive
	}
	r.sites[site.ID] = site
	return site
}

func (r *fakeSiteRepo) CreateSite(_ repositories.SQLExecutor, site *models.Site) (*models.Site, error) {
	created := *site
	created.ID = uuid.NewString()
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	r.mu.Lock()
	r.sites[created.ID] = created
	r.mu.Unlock()
	return &created, nil
}

func (r *fakeSiteRepo) GetSiteByID(id string) (*models.Site, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	site, ok := r.sites[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copy := site
	return &copy, nil
}

func (r *fakeSiteRepo) GetSites(page, pageSize int, status *models.SiteStatus, organizationID *string) ([]models.Site, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Site
	for _, site := range r.sites {
		if status != nil && site.Status != *status {
			continue
		}
		if organizationID != nil && site.OrganizationID != nil && *site.OrganizationID != *organizationID {
			continue
		}
		out = append(out, site)
	}
	return out, len(out), nil
}

func (r *fakeSiteRepo) UpdateSite(_ repositories.SQLExecutor, site *models.Site) (*models.Site, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sites[site.ID]; !ok {
		return nil, repositories.ErrNotFound
	}
	updated := *site
	updated.UpdatedAt = time.Now()
	r.sites[site.ID] = updated
	return &updated, nil
}

type fakeAssignmentRepo struct {
	mu          sync.Mutex
	assignments map[string]models.SiteAssignment
}

func newFakeAssignmentRepo() *fakeAssignmentRepo {
	return &fakeAssignmentRepo{assignments: make(map[string]models.SiteAssignment)}
}

func (r *fakeAssignmentRepo) hasActiveLocked(workerID string) bool {
	for _, a := range r.assignments {
		if a.WorkerID == workerID && a.IsActive {
			return true
		}
	}
	return false
}

func (r *fakeAssignmentRepo) activeCount(workerID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, a := range r.assignments {
		if a.WorkerID == workerID && a.IsActive {
			count++
		}
	}
	return count
}

func (r *fakeAssignmentRepo) CreateAssignment(_ repositories.SQLExecutor, assignment *models.SiteAssignment) (*models.SiteAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if assignment.IsActive && r.hasActiveLocked(assignment.WorkerID) {
		return nil, repositories.ErrDuplicateKey
	}
	created := *assignment
	created.ID = uuid.NewString()
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	r.assignments[created.ID] = created
	return &created, nil
}

func (r *fakeAssignmentRepo) GetAssignmentByID(id string) (*models.SiteAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	assignment, ok := r.assignments[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copy := assignment
	return &copy, nil
}

func (r *fakeAssignmentRepo) GetActiveAssignmentByWorkerID(workerID string) (*models.SiteAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.assignments {
		if a.WorkerID == workerID && a.IsActive {
			copy := a
			return &copy, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeAssignmentRepo) DeactivateActiveAssignments(_ repositories.SQLExecutor, workerID string, unassignedDate time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var affected int64
	for id, a := range r.assignments {
		if a.WorkerID == workerID && a.IsActive {
			a.IsActive = false
			date := unassignedDate
			a.UnassignedDate = &date
			a.UpdatedAt = time.Now()
			r.assignments[id] = a
			affected++
		}
	}
	return affected, nil
}

func (r *fakeAssignmentRepo) ActivateAssignment(_ repositories.SQLExecutor, id string) (*models.SiteAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	assignment, ok := r.assignments[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if !assignment.IsActive && r.hasActiveLocked(assignment.WorkerID) {
		return nil, repositories.ErrDuplicateKey
	}
	assignment.IsActive = true
	assignment.UnassignedDate = nil
	assignment.UpdatedAt = time.Now()
	r.assignments[id] = assignment
	copy := assignment
	return &copy, nil
}

func (r *fakeAssignmentRepo) GetAssignmentsByWorkerID(workerID string) ([]models.SiteAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.SiteAssignment
	for _, a := range r.assignments {
		if a.WorkerID == workerID {
			out = append(out, a)
		}
	}
	// Same ordering as the history query: assigned_date DESC, created_at DESC.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AssignedDate.Equal(out[j].AssignedDate) {
			return out[i].AssignedDate.After(out[j].AssignedDate)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *fakeAssignmentRepo) GetActiveSiteWorkers(siteID string) ([]models.SiteWorker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.SiteWorker
	for _, a := range r.assignments {
		if a.SiteID == siteID && a.IsActive {
			out = append(out, models.SiteWorker{Assignment: a})
		}
	}
	return out, nil
}

type fakeWorkRecordRepo struct {
	mu      sync.Mutex
	records []models.WorkRecord
}

func newFakeWorkRecordRepo() *fakeWorkRecordRepo {
	return &fakeWorkRecordRepo{}
}

func (r *fakeWorkRecordRepo) add(record models.WorkRecord) models.WorkRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	r.records = append(r.records, record)
	return record
}

func (r *fakeWorkRecordRepo) UpsertWorkRecord(_ repositories.SQLExecutor, record *models.WorkRecord) (*models.WorkRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.records {
		if existing.WorkerID == record.WorkerID && existing.SiteID == record.SiteID && existing.WorkDate.Equal(record.WorkDate) {
			updated := *record
			updated.ID = existing.ID
			updated.UpdatedAt = time.Now()
			r.records[i] = updated
			return &updated, nil
		}
	}
	created := *record
	created.ID = uuid.NewString()
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	r.records = append(r.records, created)
	return &created, nil
}

func (r *fakeWorkRecordRepo) GetWorkRecordsForPeriod(workerID string, from, to time.Time) ([]models.WorkRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.WorkRecord
	for _, record := range r.records {
		if record.WorkerID != workerID {
			continue
		}
		if record.WorkDate.Before(from) || record.WorkDate.After(to) {
			continue
		}
		out = append(out, record)
	}
	return out, nil
}

func (r *fakeWorkRecordRepo) GetWorkerIDsWithRecords(from, to time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[string]struct{})
	var out []string
	for _, record := range r.records {
		if record.WorkDate.Before(from) || record.WorkDate.After(to) {
			continue
		}
		if _, ok := seen[record.WorkerID]; ok {
			continue
		}
		seen[record.WorkerID] = struct{}{}
		out = append(out, record.WorkerID)
	}
	return out, nil
}

func (r *fakeWorkRecordRepo) GetWorkRecords(workerID, siteID *string, from, to *time.Time, page, pageSize int) ([]models.WorkRecord, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.WorkRecord
	for _, record := range r.records {
		if workerID != nil && record.WorkerID != *workerID {
			continue
		}
		if siteID != nil && record.SiteID != *siteID {
			continue
		}
		if from != nil && record.WorkDate.Before(*from) {
			continue
		}
		if to != nil && record.WorkDate.After(*to) {
			continue
		}
		out = append(out, record)
	}
	return out, len(out), nil
}

type fakePayrollRepo struct {
	mu        sync.Mutex
	snapshots map[string]models.PayrollSnapshot

	// createErrFor injects a storage error when publishing the given worker.
	createErrFor map[string]error
}

func newFakePayrollRepo() *fakePayrollRepo {
	return &fakePayrollRepo{
		snapshots:    make(map[string]models.PayrollSnapshot),
		createErrFor: make(map[string]error),
	}
}

func (r *fakePayrollRepo) CreateSnapshot(_ repositories.SQLExecutor, snapshot *models.PayrollSnapshot) (*models.PayrollSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.createErrFor[snapshot.WorkerID]; ok {
		return nil, err
	}
	for _, existing := range r.snapshots {
		if existing.WorkerID == snapshot.WorkerID && existing.Year == snapshot.Year && existing.Month == snapshot.Month {
			return nil, repositories.ErrDuplicateKey
		}
	}
	created := *snapshot
	created.ID = uuid.NewString()
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	r.snapshots[created.ID] = created
	return &created, nil
}

func (r *fakePayrollRepo) GetSnapshotByID(id string) (*models.PayrollSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	snapshot, ok := r.snapshots[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copy := snapshot
	return &copy, nil
}

func (r *fakePayrollRepo) GetSnapshotForWorkerPeriod(workerID string, year, month int) (*models.PayrollSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, snapshot := range r.snapshots {
		if snapshot.WorkerID == workerID && snapshot.Year == year && snapshot.Month == month {
			copy := snapshot
			return &copy, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakePayrollRepo) GetSnapshotsForPeriod(year, month int) ([]models.PayrollSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.PayrollSnapshot
	for _, snapshot := range r.snapshots {
		if snapshot.Year == year && snapshot.Month == month {
			out = append(out, snapshot)
		}
	}
	return out, nil
}

func (r *fakePayrollRepo) UpdateSnapshotStatus(_ repositories.SQLExecutor, id string, status models.SnapshotStatus) (*models.PayrollSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	snapshot, ok := r.snapshots[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	snapshot.Status = status
	snapshot.UpdatedAt = time.Now()
	r.snapshots[id] = snapshot
	copy := snapshot
	return &copy, nil
}
