package lifecycle_test

import (
	"context"
	"errors"
	"testing"

	"itq/internal/lifecycle"
	"itq/internal/services"
	"itq/internal/store"
	"itq/internal/testsupport"
)

func newEngine(t *testing.T) (*lifecycle.Engine, *store.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	return lifecycle.NewEngine(st, nil), st
}

func TestSelectNextPicksUrgentFirst(t *testing.T) {
	engine, st := newEngine(t)

	ctx := context.Background()
	testsupport.NewItem(t, st, "Somchai", "password reset")
	urgent := testsupport.NewItem(t, st, "Malee", "ward system down")
	if err := st.SetUrgent(ctx, urgent.ID, true); err != nil {
		t.Fatalf("SetUrgent failed: %v", err)
	}

	next, err := engine.SelectNext(ctx)
	if err != nil {
		t.Fatalf("SelectNext failed: %v", err)
	}
	if next == nil || next.ID != urgent.ID {
		t.Fatalf("expected urgent entry %d, got %#v", urgent.ID, next)
	}
}

func TestSelectNextBlockedByOpenRepairJob(t *testing.T) {
	engine, st := newEngine(t)

	ctx := context.Background()
	job := testsupport.NewJob(t, st, 3001, "no network")
	jobNo := job.JobNo
	item := &store.Item{UserName: "Somchai", UserDepartment: "OPD", Issue: "no network", LinkedJobNo: &jobNo}
	if err := st.CreateItem(ctx, item); err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}
	testsupport.NewItem(t, st, "Malee", "printer jam")

	if _, err := engine.SelectNext(ctx); err != nil {
		t.Fatalf("first SelectNext failed: %v", err)
	}

	// The linked job is still in progress upstream, so the active entry
	// cannot close and nothing changes.
	_, err := engine.SelectNext(ctx)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation rejection, got %v", err)
	}
	active, getErr := st.ActiveItem(ctx, false)
	if getErr != nil || active == nil || active.ID != item.ID {
		t.Fatalf("expected active entry unchanged, got %#v err %v", active, getErr)
	}

	// Upstream marks the job repaired; the call now proceeds.
	job.JobStatus = "2"
	if err := st.UpsertJob(ctx, job); err != nil {
		t.Fatalf("UpsertJob failed: %v", err)
	}
	next, err := engine.SelectNext(ctx)
	if err != nil {
		t.Fatalf("SelectNext after repair failed: %v", err)
	}
	if next == nil {
		t.Fatal("expected a next entry")
	}
	done, err := st.GetItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}
	if done.StatusCode != store.StatusDone {
		t.Fatalf("expected previous entry done, got %s", done.StatusCode)
	}
}

func TestSelectNextHoldsSingleActivePerLane(t *testing.T) {
	engine, st := newEngine(t)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		testsupport.NewItem(t, st, "Somchai", "printer jam")
	}
	for i := 0; i < 3; i++ {
		if _, err := engine.SelectNext(ctx); err != nil {
			t.Fatalf("SelectNext failed: %v", err)
		}
		count, err := st.CountItems(ctx, store.ItemQuery{Statuses: []store.StatusCode{store.StatusActive}})
		if err != nil {
			t.Fatalf("CountItems failed: %v", err)
		}
		if count != 1 {
			t.Fatalf("expected exactly one active entry, got %d", count)
		}
	}
}

func TestSelectNextOnEmptyQueue(t *testing.T) {
	engine, _ := newEngine(t)

	next, err := engine.SelectNext(context.Background())
	if err != nil {
		t.Fatalf("SelectNext failed: %v", err)
	}
	if next != nil {
		t.Fatalf("expected nil on empty queue, got %#v", next)
	}
}

func TestFinishSkipsClosureGate(t *testing.T) {
	engine, st := newEngine(t)

	ctx := context.Background()
	job := testsupport.NewJob(t, st, 3002, "no network")
	jobNo := job.JobNo
	item := &store.Item{UserName: "Somchai", UserDepartment: "OPD", Issue: "no network", LinkedJobNo: &jobNo}
	if err := st.CreateItem(ctx, item); err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}
	if _, err := engine.SelectNext(ctx); err != nil {
		t.Fatalf("SelectNext failed: %v", err)
	}

	// Unconditional finish works even though the job is still open upstream.
	completed, err := engine.Finish(ctx, false)
	if err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
	if completed != 1 {
		t.Fatalf("expected 1 completed, got %d", completed)
	}

	// Finishing an idle lane is a no-op success.
	completed, err = engine.Finish(ctx, false)
	if err != nil || completed != 0 {
		t.Fatalf("expected no-op, got %d %v", completed, err)
	}
}

func TestInsertAdhocRejectionLeavesStateUntouched(t *testing.T) {
	engine, st := newEngine(t)

	ctx := context.Background()
	first := testsupport.NewItem(t, st, "Somchai", "walk-in request")
	second := testsupport.NewItem(t, st, "Malee", "another walk-in")

	if _, err := engine.InsertAdhoc(ctx, first.ID); err != nil {
		t.Fatalf("InsertAdhoc failed: %v", err)
	}
	_, err := engine.InsertAdhoc(ctx, second.ID)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation rejection, got %v", err)
	}
	got, getErr := st.GetItem(ctx, second.ID)
	if getErr != nil || got.StatusCode != store.StatusWaiting {
		t.Fatalf("expected rejected entry unchanged, got %#v err %v", got, getErr)
	}

	if _, err := engine.FinishAdhoc(ctx); err != nil {
		t.Fatalf("FinishAdhoc failed: %v", err)
	}
	if _, err := engine.InsertAdhoc(ctx, second.ID); err != nil {
		t.Fatalf("InsertAdhoc after finish failed: %v", err)
	}
}

func TestInsertAdhocUnknownEntry(t *testing.T) {
	engine, _ := newEngine(t)

	_, err := engine.InsertAdhoc(context.Background(), 404)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestFinishAdhocGateScopedToAdhocLane(t *testing.T) {
	engine, st := newEngine(t)

	ctx := context.Background()
	job := testsupport.NewJob(t, st, 3003, "board repair")
	jobNo := job.JobNo
	linked := &store.Item{UserName: "Somchai", UserDepartment: "OPD", Issue: "board repair", LinkedJobNo: &jobNo}
	if err := st.CreateItem(ctx, linked); err != nil {
		t.Fatalf("CreateItem failed: %v", err)
	}
	normal := testsupport.NewItem(t, st, "Malee", "printer jam")

	if _, err := engine.InsertAdhoc(ctx, linked.ID); err != nil {
		t.Fatalf("InsertAdhoc failed: %v", err)
	}

	// Blocked while the job is open upstream.
	if _, err := engine.FinishAdhoc(ctx); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation rejection, got %v", err)
	}

	job.JobStatus = "12"
	if err := st.UpsertJob(ctx, job); err != nil {
		t.Fatalf("UpsertJob failed: %v", err)
	}
	completed, err := engine.FinishAdhoc(ctx)
	if err != nil {
		t.Fatalf("FinishAdhoc failed: %v", err)
	}
	if completed != 1 {
		t.Fatalf("expected 1 completed, got %d", completed)
	}

	// The normal lane never moved.
	got, err := st.GetItem(ctx, normal.ID)
	if err != nil || got.StatusCode != store.StatusWaiting {
		t.Fatalf("expected normal-lane entry untouched, got %#v err %v", got, err)
	}
}

func TestFinishAdhocIdleLane(t *testing.T) {
	engine, _ := newEngine(t)

	completed, err := engine.FinishAdhoc(context.Background())
	if err != nil || completed != 0 {
		t.Fatalf("expected no-op, got %d %v", completed, err)
	}
}

func TestWaitingRanks(t *testing.T) {
	engine, st := newEngine(t)

	ctx := context.Background()
	first := testsupport.NewItem(t, st, "Somchai", "printer jam")
	second := testsupport.NewItem(t, st, "Malee", "no network")
	third := testsupport.NewItem(t, st, "Nok", "ward system down")
	if err := st.SetUrgent(ctx, third.ID, true); err != nil {
		t.Fatalf("SetUrgent failed: %v", err)
	}

	ranked, err := engine.WaitingRanks(ctx)
	if err != nil {
		t.Fatalf("WaitingRanks failed: %v", err)
	}
	if len(ranked) != 3 {
		t.Fatalf("expected 3 ranked entries, got %d", len(ranked))
	}
	if ranked[0].Item.ID != third.ID || ranked[0].Rank != 1 {
		t.Fatalf("expected urgent entry ranked first, got %#v", ranked[0])
	}
	if ranked[1].Item.ID != first.ID || ranked[2].Item.ID != second.ID {
		t.Fatalf("expected queue-number order after urgency, got %#v", ranked)
	}
}
