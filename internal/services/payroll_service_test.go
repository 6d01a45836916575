package services

import (
	"errors"
	"testing"
	"time"

	"siteworks_backend/internal/models"

	"github.com/shopspring/decimal"
)

type payrollFixture struct {
	workerRepo     *fakeWorkerRepo
	workRecordRepo *fakeWorkRecordRepo
	payrollRepo    *fakePayrollRepo
	service        PayrollService
}

func newPayrollFixture() *payrollFixture {
	workerRepo := newFakeWorkerRepo()
	workRecordRepo := newFakeWorkRecordRepo()
	payrollRepo := newFakePayrollRepo()
	return &payrollFixture{
		workerRepo:     workerRepo,
		workRecordRepo: workRecordRepo,
		payrollRepo:    payrollRepo,
		service:        NewPayrollService(payrollRepo, workRecordRepo, workerRepo, fakeDB{}),
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func workDate(day int) time.Time {
	return time.Date(2025, time.July, day, 0, 0, 0, 0, time.UTC)
}

func (f *payrollFixture) addDailyWorker(wage string) models.Worker {
	return f.workerRepo.add(models.Worker{
		FullName:       "Kim Worker",
		Email:          "kim@example.com",
		EmploymentType: models.EmploymentDailyWorker,
		DailyWage:      decPtr(wage),
	})
}

func (f *payrollFixture) addRecord(workerID string, day int, hours string, rate *decimal.Decimal) {
	f.workRecordRepo.add(models.WorkRecord{
		WorkerID:   workerID,
		SiteID:     "site-1",
		WorkDate:   workDate(day),
		LaborHours: dec(hours),
		HourlyRate: rate,
	})
}

func TestPreviewCapsPaidHoursAtStandardDay(t *testing.T) {
	f := newPayrollFixture()
	worker := f.addDailyWorker("160000") // 20000/h over an 8-hour day
	f.addRecord(worker.ID, 1, "8", nil)
	f.addRecord(worker.ID, 2, "10", nil)

	preview, err := f.service.Preview(worker.ID, 2025, 7)
	if err != nil {
		t.Fatalf("Preview returned error: %v", err)
	}

	if !preview.TotalLaborHours.Equal(dec("18")) {
		t.Errorf("total labor hours = %s, want 18", preview.TotalLaborHours)
	}
	if !preview.OvertimeHours.Equal(dec("2")) {
		t.Errorf("overtime hours = %s, want 2", preview.OvertimeHours)
	}
	if preview.WorkDays != 2 {
		t.Errorf("work days = %d, want 2", preview.WorkDays)
	}
	if !preview.TotalGrossPay.Equal(dec("320000")) {
		t.Errorf("gross pay = %s, want 320000", preview.TotalGrossPay)
	}
	if !preview.TotalDeductions.Equal(dec("10560")) {
		t.Errorf("deductions = %s, want 10560", preview.TotalDeductions)
	}
	if !preview.NetPay.Equal(dec("309440")) {
		t.Errorf("net pay = %s, want 309440", preview.NetPay)
	}
	if !preview.NetPay.Equal(preview.TotalGrossPay.Sub(preview.TotalDeductions)) {
		t.Error("net pay must equal gross minus deductions")
	}
}

func TestPreviewPrefersRecordHourlyRate(t *testing.T) {
	f := newPayrollFixture()
	worker := f.addDailyWorker("160000")
	f.addRecord(worker.ID, 1, "8", decPtr("25000"))

	preview, err := f.service.Preview(worker.ID, 2025, 7)
	if err != nil {
		t.Fatalf("Preview returned error: %v", err)
	}
	if !preview.TotalGrossPay.Equal(dec("200000")) {
		t.Errorf("gross pay = %s, want 200000 from the record's own rate", preview.TotalGrossPay)
	}
}

func TestPreviewWorkerWithoutAnyRateEarnsZero(t *testing.T) {
	f := newPayrollFixture()
	worker := f.workerRepo.add(models.Worker{
		FullName:       "No Rate",
		Email:          "norate@example.com",
		EmploymentType: models.EmploymentFreelancer,
	})
	f.addRecord(worker.ID, 1, "8", nil)

	preview, err := f.service.Preview(worker.ID, 2025, 7)
	if err != nil {
		t.Fatalf("Preview returned error: %v", err)
	}
	if !preview.TotalGrossPay.IsZero() || !preview.NetPay.IsZero() {
		t.Errorf("gross = %s net = %s, want both zero", preview.TotalGrossPay, preview.NetPay)
	}
	if !preview.TotalLaborHours.Equal(dec("8")) {
		t.Errorf("labor hours = %s, want 8 even with a zero rate", preview.TotalLaborHours)
	}
}

func TestPreviewEmptyMonth(t *testing.T) {
	f := newPayrollFixture()
	worker := f.addDailyWorker("160000")

	preview, err := f.service.Preview(worker.ID, 2025, 7)
	if err != nil {
		t.Fatalf("Preview returned error: %v", err)
	}
	if preview.WorkDays != 0 || !preview.TotalGrossPay.IsZero() {
		t.Errorf("empty month preview = %+v, want zero amounts", preview)
	}
}

func TestPreviewPeriodValidation(t *testing.T) {
	f := newPayrollFixture()
	worker := f.addDailyWorker("160000")

	cases := []struct {
		year, month int
	}{
		{1999, 1},
		{2101, 1},
		{2025, 0},
		{2025, 13},
	}
	for _, tc := range cases {
		if _, err := f.service.Preview(worker.ID, tc.year, tc.month); !errors.Is(err, ErrPayrollPeriodValidation) {
			t.Errorf("Preview(%d, %d) error = %v, want ErrPayrollPeriodValidation", tc.year, tc.month, err)
		}
	}
}

func TestPreviewUnknownWorker(t *testing.T) {
	f := newPayrollFixture()
	if _, err := f.service.Preview("missing", 2025, 7); !errors.Is(err, ErrWorkerNotFound) {
		t.Errorf("error = %v, want ErrWorkerNotFound", err)
	}
}

func TestPublishFreezesSnapshotAndIsIdempotent(t *testing.T) {
	f := newPayrollFixture()
	worker := f.addDailyWorker("160000")
	f.addRecord(worker.ID, 1, "8", nil)
	f.addRecord(worker.ID, 2, "10", nil)

	first, err := f.service.Publish(2025, 7, []string{worker.ID})
	if err != nil {
		t.Fatalf("first Publish returned error: %v", err)
	}
	if first.Inserted != 1 || len(first.Skipped) != 0 || len(first.Failures) != 0 {
		t.Fatalf("first publish = %+v, want one insert", first)
	}

	snapshot, err := f.payrollRepo.GetSnapshotForWorkerPeriod(worker.ID, 2025, 7)
	if err != nil {
		t.Fatalf("snapshot lookup failed: %v", err)
	}
	if snapshot.Status != models.SnapshotStatusIssued {
		t.Errorf("snapshot status = %s, want issued", snapshot.Status)
	}
	if !snapshot.NetPay.Equal(dec("309440")) {
		t.Errorf("snapshot net pay = %s, want 309440", snapshot.NetPay)
	}

	// More records arriving after publish must not change the frozen amounts.
	f.addRecord(worker.ID, 3, "8", nil)

	second, err := f.service.Publish(2025, 7, []string{worker.ID})
	if err != nil {
		t.Fatalf("second Publish returned error: %v", err)
	}
	if second.Inserted != 0 || len(second.Skipped) != 1 || second.Skipped[0] != worker.ID {
		t.Fatalf("second publish = %+v, want the worker skipped", second)
	}

	unchanged, err := f.payrollRepo.GetSnapshotForWorkerPeriod(worker.ID, 2025, 7)
	if err != nil {
		t.Fatalf("snapshot lookup failed: %v", err)
	}
	if !unchanged.NetPay.Equal(snapshot.NetPay) || unchanged.ID != snapshot.ID {
		t.Error("republishing must not rewrite the existing snapshot")
	}
}

func TestPublishDeduplicatesBatch(t *testing.T) {
	f := newPayrollFixture()
	worker := f.addDailyWorker("160000")
	f.addRecord(worker.ID, 1, "8", nil)

	result, err := f.service.Publish(2025, 7, []string{worker.ID, worker.ID, worker.ID})
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if result.Inserted != 1 || len(result.Skipped) != 0 {
		t.Errorf("result = %+v, want a single insert for the deduplicated worker", result)
	}
}

func TestPublishIsolatesPerWorkerFailures(t *testing.T) {
	f := newPayrollFixture()
	good := f.addDailyWorker("160000")
	f.addRecord(good.ID, 1, "8", nil)

	broken := f.workerRepo.add(models.Worker{
		FullName:       "Broken Metadata",
		Email:          "broken@example.com",
		EmploymentType: models.EmploymentType("apprentice"),
	})
	f.addRecord(broken.ID, 1, "8", nil)

	failing := f.addDailyWorker("160000")
	f.addRecord(failing.ID, 2, "8", nil)
	f.payrollRepo.createErrFor[failing.ID] = errors.New("connection reset")

	result, err := f.service.Publish(2025, 7, []string{good.ID, broken.ID, "missing-worker", failing.ID})
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if result.Inserted != 1 {
		t.Errorf("inserted = %d, want 1", result.Inserted)
	}
	if len(result.Failures) != 3 {
		t.Fatalf("failures = %+v, want 3 entries", result.Failures)
	}

	reasons := make(map[string]string, len(result.Failures))
	for _, failure := range result.Failures {
		reasons[failure.WorkerID] = failure.Reason
	}
	if reasons["missing-worker"] != "worker not found" {
		t.Errorf("missing worker reason = %q", reasons["missing-worker"])
	}
	if reasons[broken.ID] != "no deduction rates defined for employment type" {
		t.Errorf("broken metadata reason = %q", reasons[broken.ID])
	}
	if reasons[failing.ID] != "storage error while publishing snapshot" {
		t.Errorf("storage failure reason = %q, internals must not leak", reasons[failing.ID])
	}
}

func TestPublishValidation(t *testing.T) {
	f := newPayrollFixture()
	if _, err := f.service.Publish(2025, 7, nil); !errors.Is(err, ErrPayrollBatchValidation) {
		t.Errorf("empty batch error = %v, want ErrPayrollBatchValidation", err)
	}
	if _, err := f.service.Publish(2025, 13, []string{"w"}); !errors.Is(err, ErrPayrollPeriodValidation) {
		t.Errorf("bad period error = %v, want ErrPayrollPeriodValidation", err)
	}
}

func TestListMonthSummariesMarksPublishedWorkers(t *testing.T) {
	f := newPayrollFixture()
	published := f.addDailyWorker("160000")
	f.addRecord(published.ID, 1, "8", nil)

	draft := f.workerRepo.add(models.Worker{
		FullName:       "Draft Worker",
		Email:          "draft@example.com",
		EmploymentType: models.EmploymentRegularEmployee,
		DailyWage:      decPtr("200000"),
	})
	f.addRecord(draft.ID, 1, "8", nil)

	if _, err := f.service.Publish(2025, 7, []string{published.ID}); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}

	summaries, err := f.service.ListMonthSummaries(2025, 7, nil)
	if err != nil {
		t.Fatalf("ListMonthSummaries returned error: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("summaries = %d rows, want 2", len(summaries))
	}

	byWorker := make(map[string]models.WorkerPayrollSummary, len(summaries))
	for _, s := range summaries {
		byWorker[s.WorkerID] = s
	}
	if status := byWorker[published.ID].Status; status == nil || *status != models.SnapshotStatusIssued {
		t.Errorf("published worker status = %v, want issued", status)
	}
	if byWorker[draft.ID].Status != nil {
		t.Error("draft worker should carry no snapshot status")
	}
}

func TestListMonthSummariesEmploymentFilter(t *testing.T) {
	f := newPayrollFixture()
	daily := f.addDailyWorker("160000")
	f.addRecord(daily.ID, 1, "8", nil)

	regular := f.workerRepo.add(models.Worker{
		FullName:       "Regular Worker",
		Email:          "regular@example.com",
		EmploymentType: models.EmploymentRegularEmployee,
		DailyWage:      decPtr("200000"),
	})
	f.addRecord(regular.ID, 1, "8", nil)

	et := models.EmploymentRegularEmployee
	summaries, err := f.service.ListMonthSummaries(2025, 7, &et)
	if err != nil {
		t.Fatalf("ListMonthSummaries returned error: %v", err)
	}
	if len(summaries) != 1 || summaries[0].WorkerID != regular.ID {
		t.Errorf("filtered summaries = %+v, want only the regular employee", summaries)
	}

	bad := models.EmploymentType("apprentice")
	if _, err := f.service.ListMonthSummaries(2025, 7, &bad); !errors.Is(err, ErrPayrollBatchValidation) {
		t.Errorf("invalid filter error = %v, want ErrPayrollBatchValidation", err)
	}
}

func TestSnapshotStatusTransitions(t *testing.T) {
	f := newPayrollFixture()
	worker := f.addDailyWorker("160000")
	f.addRecord(worker.ID, 1, "8", nil)

	if _, err := f.service.Publish(2025, 7, []string{worker.ID}); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	snapshot, err := f.payrollRepo.GetSnapshotForWorkerPeriod(worker.ID, 2025, 7)
	if err != nil {
		t.Fatalf("snapshot lookup failed: %v", err)
	}

	// Paying an issued snapshot skips approval and must be rejected.
	if _, err := f.service.MarkSnapshotPaid(snapshot.ID); !errors.Is(err, ErrSnapshotStatusFlow) {
		t.Errorf("pay before approve error = %v, want ErrSnapshotStatusFlow", err)
	}

	approved, err := f.service.ApproveSnapshot(snapshot.ID)
	if err != nil {
		t.Fatalf("ApproveSnapshot returned error: %v", err)
	}
	if approved.Status != models.SnapshotStatusApproved {
		t.Errorf("status = %s, want approved", approved.Status)
	}

	if _, err := f.service.ApproveSnapshot(snapshot.ID); !errors.Is(err, ErrSnapshotStatusFlow) {
		t.Errorf("double approve error = %v, want ErrSnapshotStatusFlow", err)
	}

	paid, err := f.service.MarkSnapshotPaid(snapshot.ID)
	if err != nil {
		t.Fatalf("MarkSnapshotPaid returned error: %v", err)
	}
	if paid.Status != models.SnapshotStatusPaid {
		t.Errorf("status = %s, want paid", paid.Status)
	}

	if _, err := f.service.ApproveSnapshot("missing"); !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("unknown snapshot error = %v, want ErrSnapshotNotFound", err)
	}
}
