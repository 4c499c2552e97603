package main

import (
	"context"
	"strings"
	"sync"

	"itq/internal/bms"
	"itq/internal/config"
	"itq/internal/lifecycle"
	"itq/internal/logging"
	"itq/internal/reconcile"
	"itq/internal/shift"
	"itq/internal/store"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// withStore opens the local database for the duration of one command.
func (c *commandContext) withStore(fn func(*config.Config, *store.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(cfg, st)
}

func (c *commandContext) withEngine(fn func(*lifecycle.Engine, *store.Store) error) error {
	return c.withStore(func(cfg *config.Config, st *store.Store) error {
		return fn(lifecycle.NewEngine(st, logging.NewNop()), st)
	})
}

func (c *commandContext) withScheduler(fn func(*shift.Scheduler, *store.Store) error) error {
	return c.withStore(func(cfg *config.Config, st *store.Store) error {
		return fn(shift.NewScheduler(st, cfg, logging.NewNop()), st)
	})
}

func (c *commandContext) newReconciler(cfg *config.Config, st *store.Store) *reconcile.Reconciler {
	connect := func(ctx context.Context) (bms.Client, error) {
		return bms.Connect(ctx, cfg)
	}
	return reconcile.NewReconciler(st, cfg, connect, logging.NewNop())
}
