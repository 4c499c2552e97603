package main

import (
	"context"
	"fmt"
	"log/slog"

	"itq/internal/bms"
	"itq/internal/config"
	"itq/internal/daemon"
	"itq/internal/reconcile"
	"itq/internal/shift"
	"itq/internal/store"
)

// bootstrap wires the store, reconciler, and shift scheduler into a daemon.
func bootstrap(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*daemon.Daemon, error) {
	st, err := store.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	connect := func(ctx context.Context) (bms.Client, error) {
		return bms.Connect(ctx, cfg)
	}
	rec := reconcile.NewReconciler(st, cfg, connect, logger)
	shifts := shift.NewScheduler(st, cfg, logger)

	d, err := daemon.New(cfg, st, rec, shifts, logger)
	if err != nil {
		st.Close()
		return nil, err
	}
	return d, nil
}
