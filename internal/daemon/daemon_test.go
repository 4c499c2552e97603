package daemon_test

import (
	"context"
	"testing"
	"time"

	"itq/internal/bms"
	"itq/internal/daemon"
	"itq/internal/reconcile"
	"itq/internal/shift"
	"itq/internal/store"
	"itq/internal/testsupport"
)

func newDaemon(t *testing.T, fake *testsupport.FakeBMS) (*daemon.Daemon, *store.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithSyncInterval(3600))
	st := testsupport.MustOpenStore(t, cfg)
	connect := func(ctx context.Context) (bms.Client, error) { return fake, nil }
	rec := reconcile.NewReconciler(st, cfg, connect, nil)
	sched := shift.NewScheduler(st, cfg, nil)

	d, err := daemon.New(cfg, st, rec, sched, nil)
	if err != nil {
		t.Fatalf("daemon.New failed: %v", err)
	}
	return d, st
}

func TestStartRunsInitialSyncAndStops(t *testing.T) {
	fake := testsupport.NewFakeBMS()
	d, _ := newDaemon(t, fake)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !d.Status().Running {
		t.Fatal("expected daemon running")
	}

	deadline := time.Now().Add(5 * time.Second)
	for fake.OpenCalls() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("expected an initial synchronize run")
		}
		time.Sleep(10 * time.Millisecond)
	}

	d.Stop()
	if d.Status().Running {
		t.Fatal("expected daemon stopped")
	}
}

func TestStartRejectsSecondInstance(t *testing.T) {
	fake := testsupport.NewFakeBMS()
	d, _ := newDaemon(t, fake)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer d.Stop()

	if err := d.Start(context.Background()); err == nil {
		t.Fatal("expected second Start to fail")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	fake := testsupport.NewFakeBMS()
	d, _ := newDaemon(t, fake)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	d.Stop()
	d.Stop()
}
