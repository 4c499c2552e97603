package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"itq/internal/config"
	"itq/internal/logging"
	"itq/internal/reconcile"
	"itq/internal/services"
	"itq/internal/shift"
	"itq/internal/store"
)

// Daemon runs the background loops and enforces single-instance execution:
// the reconciliation ticker and the cron-driven nightly auto-close check.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *store.Store
	reconciler *reconcile.Reconciler
	shifts     *shift.Scheduler

	lockPath string
	lock     *flock.Flock
	cron     *cron.Cron

	running atomic.Bool
	cancel  context.CancelFunc
	group   *errgroup.Group
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	DatabasePath string
	LockFilePath string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, rec *reconcile.Reconciler, shifts *shift.Scheduler, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || st == nil || rec == nil || shifts == nil {
		return nil, errors.New("daemon requires config, store, reconciler, and shift scheduler")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "itqd.lock")
	return &Daemon{
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "daemon"),
		store:      st,
		reconciler: rec,
		shifts:     shifts,
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and launches the background loops.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another itq daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.group, runCtx = errgroup.WithContext(runCtx)

	d.group.Go(func() error {
		return d.syncLoop(runCtx)
	})

	d.cron = cron.New()
	if _, err := d.cron.AddFunc(d.cfg.Shift.CheckSchedule, func() {
		if _, err := d.shifts.AutoCloseCheck(runCtx); err != nil {
			d.logger.Warn("auto-close check", logging.Error(err))
		}
	}); err != nil {
		d.cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("schedule auto-close: %w", err)
	}
	d.cron.Start()

	d.running.Store(true)
	d.logger.Info("itq daemon started",
		logging.String("lock", d.lockPath),
		logging.String("database", d.store.Path()))
	return nil
}

// syncLoop runs one synchronization immediately, then on every tick until the
// context ends. Transient failures are logged and retried on the next tick.
func (d *Daemon) syncLoop(ctx context.Context) error {
	interval := time.Duration(d.cfg.Sync.Interval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	d.runSync(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			d.runSync(ctx)
		}
	}
}

func (d *Daemon) runSync(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := d.reconciler.Synchronize(ctx); err != nil {
		if services.IsRetryable(err) {
			d.logger.Warn("synchronize", logging.Error(err))
		} else {
			d.logger.Error("synchronize", logging.Error(err))
		}
	}
}

// Stop halts background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cron != nil {
		<-d.cron.Stop().Done()
		d.cron = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.group != nil {
		if err := d.group.Wait(); err != nil {
			d.logger.Warn("background loop exited", logging.Error(err))
		}
		d.group = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("itq daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status reports runtime information for the daemon.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		DatabasePath: d.store.Path(),
		LockFilePath: d.lockPath,
	}
}
