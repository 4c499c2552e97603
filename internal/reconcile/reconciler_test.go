package reconcile_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"itq/internal/bms"
	"itq/internal/reconcile"
	"itq/internal/store"
	"itq/internal/testsupport"
)

func openRow(jobNo int64, description string) bms.Row {
	reqDate := time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC).Add(time.Duration(jobNo) * time.Minute)
	return bms.Row{
		JobNo:        jobNo,
		Description:  description,
		DeptTech:     "T-IT",
		EmployeeName: "Somchai",
		Caller:       "Somsri",
		DeptAbbrev:   "OPD",
		DeptName:     "ผู้ป่วยนอก",
		JobStatus:    "1",
		RequestDate:  &reqDate,
	}
}

func newReconciler(t *testing.T, fake *testsupport.FakeBMS) (*reconcile.Reconciler, *store.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	connect := func(ctx context.Context) (bms.Client, error) { return fake, nil }
	return reconcile.NewReconciler(st, cfg, connect, nil), st
}

func TestSynchronizeMirrorsAndMaterializes(t *testing.T) {
	fake := testsupport.NewFakeBMS(
		openRow(1001, "เครื่องพิมพ์ ไม่ทำงาน"),
		openRow(1002, "server ล่ม"),
	)
	rec, st := newReconciler(t, fake)

	ctx := context.Background()
	upserted, err := rec.Synchronize(ctx)
	if err != nil {
		t.Fatalf("Synchronize failed: %v", err)
	}
	// Each job counts once even though ingest and refresh both touch it.
	if upserted != 2 {
		t.Fatalf("expected 2 distinct upserts, got %d", upserted)
	}
	if !fake.Closed() {
		t.Fatal("expected BMS client released")
	}

	job, err := st.GetJob(ctx, 1001)
	if err != nil || job == nil {
		t.Fatalf("GetJob: %#v %v", job, err)
	}
	if job.PriorityTier != 1 || job.JobCategory != "ENDPOINT" {
		t.Fatalf("unexpected classification: tier %d category %s", job.PriorityTier, job.JobCategory)
	}

	item, err := st.GetItemByJobNo(ctx, 1001)
	if err != nil || item == nil {
		t.Fatalf("GetItemByJobNo: %#v %v", item, err)
	}
	if item.QueueNumber != "IT-0001" || item.StatusCode != store.StatusWaiting {
		t.Fatalf("unexpected materialized entry: %#v", item)
	}
	if item.UserName != "Somsri" || item.UserDepartment != "ผู้ป่วยนอก" {
		t.Fatalf("expected requester fields from caller and department name, got %#v", item)
	}
}

func TestSynchronizeIsIdempotent(t *testing.T) {
	fake := testsupport.NewFakeBMS(openRow(1001, "printer down"))
	rec, st := newReconciler(t, fake)

	ctx := context.Background()
	if _, err := rec.Synchronize(ctx); err != nil {
		t.Fatalf("first Synchronize failed: %v", err)
	}
	if _, err := rec.Synchronize(ctx); err != nil {
		t.Fatalf("second Synchronize failed: %v", err)
	}

	count, err := st.CountItems(ctx, store.ItemQuery{})
	if err != nil {
		t.Fatalf("CountItems failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one queue entry after repeat sync, got %d", count)
	}
}

func TestSynchronizeConnectFailureReturnsZero(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	connectErr := errors.New("network unreachable")
	rec := reconcile.NewReconciler(st, cfg, func(ctx context.Context) (bms.Client, error) {
		return nil, connectErr
	}, nil)

	upserted, err := rec.Synchronize(context.Background())
	if err == nil {
		t.Fatal("expected connect failure to surface")
	}
	if upserted != 0 {
		t.Fatalf("expected zero processed, got %d", upserted)
	}
}

func TestSynchronizeFetchFailureReleasesClient(t *testing.T) {
	fake := testsupport.NewFakeBMS(openRow(1001, "printer down"))
	fake.FetchOpenErr = errors.New("query timeout")
	rec, _ := newReconciler(t, fake)

	if _, err := rec.Synchronize(context.Background()); err == nil {
		t.Fatal("expected fetch failure to surface")
	}
	if !fake.Closed() {
		t.Fatal("expected BMS client released on the failure path")
	}
}

func TestRefreshBatchFailureIsIsolated(t *testing.T) {
	fake := testsupport.NewFakeBMS(openRow(1001, "printer down"))
	rec, st := newReconciler(t, fake)

	ctx := context.Background()
	if _, err := rec.Synchronize(ctx); err != nil {
		t.Fatalf("seed Synchronize failed: %v", err)
	}

	fake.FetchByJobNosErr = errors.New("query timeout")
	if _, err := rec.Synchronize(ctx); err != nil {
		t.Fatalf("Synchronize with failing refresh should not abort: %v", err)
	}

	// Last-known state survives the failed refresh.
	job, err := st.GetJob(ctx, 1001)
	if err != nil || job == nil {
		t.Fatalf("GetJob: %#v %v", job, err)
	}
}

func TestRefreshPrunesJobsRoutedAway(t *testing.T) {
	fake := testsupport.NewFakeBMS(openRow(1001, "printer down"))
	rec, st := newReconciler(t, fake)

	ctx := context.Background()
	if _, err := rec.Synchronize(ctx); err != nil {
		t.Fatalf("seed Synchronize failed: %v", err)
	}

	// The job moves to another department's technicians.
	moved := openRow(1001, "printer down")
	moved.DeptTech = "E-05"
	moved.JobStatus = "2"
	fake.SetRows(moved)

	if _, err := rec.Synchronize(ctx); err != nil {
		t.Fatalf("Synchronize failed: %v", err)
	}
	if job, err := st.GetJob(ctx, 1001); err != nil || job != nil {
		t.Fatalf("expected mirror row pruned, got %#v err %v", job, err)
	}
	if item, err := st.GetItemByJobNo(ctx, 1001); err != nil || item != nil {
		t.Fatalf("expected linked entry pruned, got %#v err %v", item, err)
	}
}

func TestRefreshKeepsJobsMissingFromResponse(t *testing.T) {
	fake := testsupport.NewFakeBMS(openRow(1001, "printer down"))
	rec, st := newReconciler(t, fake)

	ctx := context.Background()
	if _, err := rec.Synchronize(ctx); err != nil {
		t.Fatalf("seed Synchronize failed: %v", err)
	}

	// Upstream stops returning the job entirely; no implicit deletion.
	fake.SetRows()
	if _, err := rec.Synchronize(ctx); err != nil {
		t.Fatalf("Synchronize failed: %v", err)
	}
	if job, err := st.GetJob(ctx, 1001); err != nil || job == nil {
		t.Fatalf("expected mirror row retained, got %#v err %v", job, err)
	}
}

func TestDeriveStatusesFollowsOutsourcing(t *testing.T) {
	fake := testsupport.NewFakeBMS(openRow(1001, "board repair"))
	rec, st := newReconciler(t, fake)

	ctx := context.Background()
	if _, err := rec.Synchronize(ctx); err != nil {
		t.Fatalf("seed Synchronize failed: %v", err)
	}

	outsourced := openRow(1001, "board repair")
	sent := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	outsourced.OutsourceDate = &sent
	fake.SetRows(outsourced)

	if _, err := rec.Synchronize(ctx); err != nil {
		t.Fatalf("Synchronize failed: %v", err)
	}
	item, err := st.GetItemByJobNo(ctx, 1001)
	if err != nil || item == nil {
		t.Fatalf("GetItemByJobNo: %#v %v", item, err)
	}
	if item.StatusCode != store.StatusCoordinating {
		t.Fatalf("expected coordinating after outsource, got %s", item.StatusCode)
	}

	fake.SetRows(openRow(1001, "board repair"))
	if _, err := rec.Synchronize(ctx); err != nil {
		t.Fatalf("Synchronize failed: %v", err)
	}
	item, err = st.GetItemByJobNo(ctx, 1001)
	if err != nil || item == nil {
		t.Fatalf("GetItemByJobNo: %#v %v", item, err)
	}
	if item.StatusCode != store.StatusWaiting {
		t.Fatalf("expected revert to waiting, got %s", item.StatusCode)
	}
}

func TestDeriveStatusesRetiresDeprecatedCode(t *testing.T) {
	fake := testsupport.NewFakeBMS()
	rec, st := newReconciler(t, fake)

	ctx := context.Background()
	item := testsupport.NewItem(t, st, "Somchai", "waiting on parts")
	if err := st.SetStatus(ctx, item.ID, store.StatusWaitingParts); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}

	migrated, _, _, err := rec.DeriveStatuses(ctx)
	if err != nil {
		t.Fatalf("DeriveStatuses failed: %v", err)
	}
	if migrated != 1 {
		t.Fatalf("expected 1 migrated, got %d", migrated)
	}
	got, err := st.GetItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}
	if got.StatusCode != store.StatusCoordinating {
		t.Fatalf("expected coordinating, got %s", got.StatusCode)
	}
}

func TestMaterializeUsesUnknownFallbacks(t *testing.T) {
	row := openRow(1001, "")
	row.Caller = ""
	row.DeptName = ""
	fake := testsupport.NewFakeBMS(row)
	rec, st := newReconciler(t, fake)

	ctx := context.Background()
	if _, err := rec.Synchronize(ctx); err != nil {
		t.Fatalf("Synchronize failed: %v", err)
	}
	item, err := st.GetItemByJobNo(ctx, 1001)
	if err != nil || item == nil {
		t.Fatalf("GetItemByJobNo: %#v %v", item, err)
	}
	if item.UserName != "Unknown" || item.UserDepartment != "Unknown" || item.Issue != "" {
		t.Fatalf("expected Unknown requester fallbacks and empty issue, got %#v", item)
	}
	if !item.CreatedAt.Equal(row.RequestDate.UTC()) {
		t.Fatalf("expected creation from request date, got %v", item.CreatedAt)
	}
}
