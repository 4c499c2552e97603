package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"itq/internal/bms"
	"itq/internal/classify"
	"itq/internal/config"
	"itq/internal/logging"
	"itq/internal/services"
	"itq/internal/store"
)

// ConnectFunc opens a fresh BMS client for one synchronization run. The
// reconciler closes whatever it receives, on every exit path.
type ConnectFunc func(ctx context.Context) (bms.Client, error)

// Reconciler mirrors open BMS jobs into the local store, refreshes stale
// mirror rows, prunes jobs routed away from the department, and then
// materializes and re-derives the service queue.
type Reconciler struct {
	store   *store.Store
	cfg     *config.Config
	connect ConnectFunc
	logger  *slog.Logger

	// mu serializes overlapping Synchronize calls from the background timer
	// and foreground triggers.
	mu sync.Mutex
}

// NewReconciler wires a reconciler against the given store and BMS connector.
func NewReconciler(st *store.Store, cfg *config.Config, connect ConnectFunc, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Reconciler{
		store:   st,
		cfg:     cfg,
		connect: connect,
		logger:  logging.NewComponentLogger(logger, "reconciler"),
	}
}

// Synchronize runs one full reconciliation: ingest open jobs, refresh the
// existing mirror in batches, prune out-of-scope rows, then materialize queue
// entries and derive statuses. Returns the number of distinct jobs upserted;
// a job touched by both passes counts once.
//
// A connection failure aborts the run with zero processed rows; the error is
// transient and the next scheduled run retries. Batch failures during the
// refresh pass are isolated per batch.
func (r *Reconciler) Synchronize(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session := uuid.NewString()
	log := r.logger.With(logging.String(logging.FieldSyncSession, session))

	client, err := r.connect(ctx)
	if err != nil {
		return 0, services.Wrap(services.ErrTransient, "reconciler", "connect", "connect to BMS", err)
	}
	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			log.Warn("closing BMS client", logging.Error(closeErr))
		}
	}()

	seen := make(map[int64]struct{})
	upserted, err := r.ingestOpen(ctx, client, log, seen)
	if err != nil {
		return 0, err
	}
	refreshed, pruned := r.refreshMirror(ctx, client, log, seen)
	upserted += refreshed

	created, err := r.Materialize(ctx)
	if err != nil {
		return upserted, err
	}
	migrated, moved, reverted, err := r.DeriveStatuses(ctx)
	if err != nil {
		return upserted, err
	}

	log.Info("synchronize complete",
		logging.Int("upserted", upserted),
		logging.Int("pruned", pruned),
		logging.Int("materialized", created),
		logging.Int("migrated", migrated),
		logging.Int("coordinating", moved),
		logging.Int("reverted", reverted))
	return upserted, nil
}

// ingestOpen pulls every open job for the configured department and mirrors it.
func (r *Reconciler) ingestOpen(ctx context.Context, client bms.Client, log *slog.Logger, seen map[int64]struct{}) (int, error) {
	rows, err := client.FetchOpen(ctx)
	if err != nil {
		return 0, services.Wrap(services.ErrTransient, "reconciler", "fetch_open", "fetch open jobs", err)
	}

	upserted := 0
	for i := range rows {
		if err := r.upsertRow(ctx, &rows[i]); err != nil {
			return upserted, err
		}
		if _, dup := seen[rows[i].JobNo]; !dup {
			seen[rows[i].JobNo] = struct{}{}
			upserted++
		}
	}
	log.Debug("ingest pass complete", logging.Int("rows", upserted))
	return upserted, nil
}

// refreshMirror re-fetches every mirrored job in batches. One failing batch is
// logged and skipped; jobs absent from a batch response keep their last-known
// state. Jobs routed off the department prefix are cascade-pruned. Jobs the
// ingest pass already counted are refreshed but not counted again.
func (r *Reconciler) refreshMirror(ctx context.Context, client bms.Client, log *slog.Logger, seen map[int64]struct{}) (refreshed, pruned int) {
	jobNos, err := r.store.JobNumbers(ctx)
	if err != nil {
		log.Warn("loading mirrored job numbers", logging.Error(err))
		return 0, 0
	}

	batchSize := r.cfg.Sync.RefreshBatchSize
	if batchSize <= 0 {
		batchSize = 50
	}

	for start := 0; start < len(jobNos); start += batchSize {
		end := start + batchSize
		if end > len(jobNos) {
			end = len(jobNos)
		}
		batch := jobNos[start:end]

		rows, err := client.FetchByJobNos(ctx, batch)
		if err != nil {
			log.Warn("refresh batch failed",
				logging.Int("batch_start", start),
				logging.Int("batch_size", len(batch)),
				logging.Error(err))
			continue
		}
		for i := range rows {
			row := &rows[i]
			if r.outOfScope(row) {
				if err := r.store.DeleteJobCascade(ctx, row.JobNo); err != nil {
					log.Warn("pruning out-of-scope job", logging.Int64(logging.FieldJobNo, row.JobNo), logging.Error(err))
					continue
				}
				pruned++
				log.Info("pruned out-of-scope job",
					logging.Int64(logging.FieldJobNo, row.JobNo),
					logging.String("dept_tech", row.DeptTech))
				continue
			}
			if err := r.upsertRow(ctx, row); err != nil {
				log.Warn("refreshing job", logging.Int64(logging.FieldJobNo, row.JobNo), logging.Error(err))
				continue
			}
			if _, dup := seen[row.JobNo]; !dup {
				seen[row.JobNo] = struct{}{}
				refreshed++
			}
		}
	}
	return refreshed, pruned
}

// outOfScope reports whether a fetched row has been routed away from the
// department. An empty dept_tech stays in scope; only a present value that
// misses the prefix triggers the prune.
func (r *Reconciler) outOfScope(row *bms.Row) bool {
	prefix := r.cfg.BMS.DeptPrefix
	if prefix == "" || row.DeptTech == "" {
		return false
	}
	return !strings.HasPrefix(row.DeptTech, prefix)
}

func (r *Reconciler) upsertRow(ctx context.Context, row *bms.Row) error {
	result := classify.Classify(row.Description)
	job := &store.Job{
		JobNo:         row.JobNo,
		Category:      row.Category,
		Description:   row.Description,
		DeptTech:      row.DeptTech,
		EmployeeName:  row.EmployeeName,
		JobDate:       row.JobDate,
		AssignDate:    row.AssignDate,
		ArriveDate:    row.ArriveDate,
		RequestDate:   row.RequestDate,
		Caller:        row.Caller,
		SAPCode:       row.SAPCode,
		AssetName:     row.AssetName,
		Note:          row.Note,
		ActualStart:   row.ActualStart,
		ActualFinish:  row.ActualFinish,
		JobStatus:     row.JobStatus,
		ReturnDate:    row.ReturnDate,
		EnterDate:     row.EnterDate,
		EnterBy:       row.EnterBy,
		OutsourceDate: row.OutsourceDate,
		PriorityTier:  result.Tier,
		JobCategory:   result.Category,
		DeptAbbrev:    row.DeptAbbrev,
		DeptName:      row.DeptName,
	}
	if err := r.store.UpsertJob(ctx, job); err != nil {
		return fmt.Errorf("mirror job %d: %w", row.JobNo, err)
	}
	return nil
}
