package shift

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"itq/internal/config"
	"itq/internal/logging"
	"itq/internal/store"
)

// systemActor stamps closures created by the scheduler rather than a person.
const systemActor = "system"

// Scheduler closes the service window nightly and honors manual overrides.
// All operations are idempotent and safe under concurrent invocation from
// the background timer and foreground triggers.
type Scheduler struct {
	store  *store.Store
	cfg    *config.Config
	logger *slog.Logger
	now    func() time.Time

	mu sync.Mutex
}

// NewScheduler wires a shift scheduler against the given store.
func NewScheduler(st *store.Store, cfg *config.Config, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scheduler{
		store:  st,
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "shift"),
		now:    time.Now,
	}
}

// SetClock overrides the scheduler's time source. Tests use this to pin the
// current time inside or outside the nightly span.
func (s *Scheduler) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// AutoCloseCheck closes the window when the current time falls inside the
// nightly span and no one has intervened. Outside the span, or when the
// window is already closed, or when a closure was manually reopened during
// this span (an overtime session), nothing happens. Returns true when a
// closure was created.
func (s *Scheduler) AutoCloseCheck(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cfg.Shift.AutoCloseEnabled {
		return false, nil
	}
	now := s.now()
	if !s.inWindow(now) {
		return false, nil
	}

	current, err := s.store.CurrentClosure(ctx)
	if err != nil {
		return false, err
	}
	if current != nil {
		return false, nil
	}

	reopened, err := s.store.ClosureOpenedSince(ctx, s.windowStart(now))
	if err != nil {
		return false, err
	}
	if reopened {
		s.logger.Debug("overtime session in progress, skipping auto-close")
		return false, nil
	}

	if _, err := s.store.CreateClosure(ctx, systemActor, now); err != nil {
		return false, err
	}
	s.logger.Info("service window auto-closed", logging.String("closed_at", now.Format(time.RFC3339)))
	return true, nil
}

// ManualToggle closes or reopens the service window on behalf of an actor.
// Closing an already-closed window and reopening an already-open one are
// no-op successes. Returns whether anything changed.
func (s *Scheduler) ManualToggle(ctx context.Context, close bool, actor string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if close {
		current, err := s.store.CurrentClosure(ctx)
		if err != nil {
			return false, err
		}
		if current != nil {
			return false, nil
		}
		if _, err := s.store.CreateClosure(ctx, actor, now); err != nil {
			return false, err
		}
		s.logger.Info("service window closed", logging.String("actor", actor))
		return true, nil
	}

	reopened, err := s.store.OpenAll(ctx, actor, now)
	if err != nil {
		return false, err
	}
	if reopened > 0 {
		s.logger.Info("service window reopened", logging.String("actor", actor))
	}
	return reopened > 0, nil
}

// Closed reports whether the service window is currently closed.
func (s *Scheduler) Closed(ctx context.Context) (bool, error) {
	current, err := s.store.CurrentClosure(ctx)
	if err != nil {
		return false, err
	}
	return current != nil, nil
}

// inWindow reports whether t falls in the nightly span [close_hour, open_hour)
// that wraps past midnight.
func (s *Scheduler) inWindow(t time.Time) bool {
	hour := t.Hour()
	closeHour := s.cfg.Shift.CloseHour
	openHour := s.cfg.Shift.OpenHour
	if closeHour > openHour {
		return hour >= closeHour || hour < openHour
	}
	return hour >= closeHour && hour < openHour
}

// windowStart returns the close hour of the span t falls in: today's close
// hour, or yesterday's when t is in the after-midnight tail.
func (s *Scheduler) windowStart(t time.Time) time.Time {
	day := t
	if s.cfg.Shift.CloseHour > s.cfg.Shift.OpenHour && t.Hour() < s.cfg.Shift.OpenHour {
		day = t.AddDate(0, 0, -1)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), s.cfg.Shift.CloseHour, 0, 0, 0, t.Location())
}
