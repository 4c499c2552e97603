package lifecycle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"itq/internal/bms"
	"itq/internal/logging"
	"itq/internal/services"
	"itq/internal/store"
)

// Engine drives queue entries through waiting, active, and done. Two lanes
// exist: the normal lane fed by SelectNext and an ad-hoc lane for walk-in
// preemption. Each lane holds at most one active entry.
type Engine struct {
	store  *store.Store
	logger *slog.Logger
	now    func() time.Time

	// mu serializes transitions so the closure gate and the transition it
	// guards act on the same lane state.
	mu sync.Mutex
}

// NewEngine wires a lifecycle engine against the given store.
func NewEngine(st *store.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{
		store:  st,
		logger: logging.NewComponentLogger(logger, "lifecycle"),
		now:    time.Now,
	}
}

// SelectNext completes the normal lane's active entry and calls the best
// waiting one: urgent first, then lowest queue number. An active entry whose
// linked repair job is not yet repaired or inspected blocks the call with a
// validation error naming the upstream status; nothing changes in that case.
// Returns the newly active entry, or nil when the queue is empty.
func (e *Engine) SelectNext(ctx context.Context) (*store.Item, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	active, err := e.store.ActiveItem(ctx, false)
	if err != nil {
		return nil, err
	}
	if err := e.closureGate(ctx, active, "select_next"); err != nil {
		return nil, err
	}

	next, err := e.store.CallNext(ctx, e.now())
	if err != nil {
		return nil, err
	}
	if next != nil {
		e.logger.Info("called next entry",
			logging.String(logging.FieldQueueNumber, next.QueueNumber),
			logging.Bool("urgent", next.Urgent))
	}
	return next, nil
}

// Finish unconditionally completes a lane's active entry without calling the
// next one and without the upstream-status gate. Completing an idle lane is a
// no-op success.
func (e *Engine) Finish(ctx context.Context, adhoc bool) (int, error) {
	completed, err := e.store.CompleteActive(ctx, adhoc)
	if err != nil {
		return 0, err
	}
	if completed > 0 {
		e.logger.Info("finished active entry", logging.String(logging.FieldLane, laneName(adhoc)))
	}
	return completed, nil
}

// InsertAdhoc preempts the queue: the target entry becomes active in the
// ad-hoc lane regardless of its prior status. Fails with a validation error
// when the lane is already occupied, leaving the entry untouched.
func (e *Engine) InsertAdhoc(ctx context.Context, id int64) (*store.Item, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	item, err := e.store.ActivateAdhoc(ctx, id, e.now())
	if errors.Is(err, store.ErrLaneBusy) {
		return nil, services.Wrap(services.ErrValidation, "lifecycle", "insert_adhoc",
			"an ad-hoc entry is already in progress; finish it first", nil)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, services.Wrap(services.ErrNotFound, "lifecycle", "insert_adhoc",
				fmt.Sprintf("queue entry %d not found", id), nil)
		}
		return nil, err
	}
	e.logger.Info("inserted ad-hoc entry", logging.String(logging.FieldQueueNumber, item.QueueNumber))
	return item, nil
}

// FinishAdhoc completes the ad-hoc lane's active entry, guarded by the same
// upstream-status gate as SelectNext. The normal lane is untouched. An idle
// lane is a no-op success.
func (e *Engine) FinishAdhoc(ctx context.Context) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	active, err := e.store.ActiveItem(ctx, true)
	if err != nil {
		return 0, err
	}
	if active == nil {
		return 0, nil
	}
	if err := e.closureGate(ctx, active, "finish_adhoc"); err != nil {
		return 0, err
	}
	return e.Finish(ctx, true)
}

// Ranked pairs a waiting entry with its 1-based display rank.
type Ranked struct {
	Item *store.Item
	Rank int
}

// WaitingRanks returns the waiting entries in call order with display ranks.
// Ranks are recomputed per call and never persisted.
func (e *Engine) WaitingRanks(ctx context.Context) ([]Ranked, error) {
	items, err := e.store.ListItems(ctx, store.ItemQuery{
		Statuses:     []store.StatusCode{store.StatusWaiting},
		WaitingOrder: true,
	})
	if err != nil {
		return nil, err
	}
	ranked := make([]Ranked, len(items))
	for i, item := range items {
		ranked[i] = Ranked{Item: item, Rank: i + 1}
	}
	return ranked, nil
}

// closureGate rejects completion of an active entry whose linked repair job
// has not reached a closable upstream status. Entries without a linked job
// (walk-ins) pass freely, as does a missing mirror row.
func (e *Engine) closureGate(ctx context.Context, active *store.Item, operation string) error {
	if active == nil || active.LinkedJobNo == nil {
		return nil
	}
	job, err := e.store.GetJob(ctx, *active.LinkedJobNo)
	if err != nil {
		return err
	}
	if job == nil || bms.IsClosable(job.JobStatus) {
		return nil
	}
	return services.Wrap(services.ErrValidation, "lifecycle", operation,
		fmt.Sprintf("entry %s cannot close: repair job %d is still %q",
			active.QueueNumber, job.JobNo, bms.StatusName(job.JobStatus)), nil)
}

func laneName(adhoc bool) string {
	if adhoc {
		return "adhoc"
	}
	return "normal"
}
