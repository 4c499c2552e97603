package main

import (
	"context"
	"testing"

	"itq/internal/logging"
	"itq/internal/testsupport"
)

func TestBootstrapWiresDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	d, err := bootstrap(context.Background(), cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}
	defer d.Close()

	status := d.Status()
	if status.Running {
		t.Fatal("expected daemon not running before Start")
	}
	if status.DatabasePath != cfg.DatabasePath() {
		t.Fatalf("unexpected database path: %s", status.DatabasePath)
	}
}
