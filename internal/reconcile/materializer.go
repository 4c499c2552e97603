package reconcile

import (
	"context"
	"fmt"
	"time"

	"itq/internal/logging"
	"itq/internal/store"
)

// unknownField fills requester fields the upstream row left blank.
const unknownField = "Unknown"

// Materialize creates a waiting queue entry for every mirrored job that does
// not have one yet, oldest request first. Idempotent: already-linked jobs are
// skipped. Returns the number of entries created.
func (r *Reconciler) Materialize(ctx context.Context) (int, error) {
	jobs, err := r.store.UnqueuedJobs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list unqueued jobs: %w", err)
	}

	created := 0
	for _, job := range jobs {
		item := &store.Item{
			UserName:       fallback(job.Caller, unknownField),
			UserDepartment: fallback(job.DeptName, unknownField),
			Issue:          job.Description,
			StatusCode:     store.StatusWaiting,
			LinkedJobNo:    &job.JobNo,
		}
		if job.RequestDate != nil {
			item.CreatedAt = *job.RequestDate
		} else {
			item.CreatedAt = time.Now()
		}
		if err := r.store.CreateItem(ctx, item); err != nil {
			return created, fmt.Errorf("materialize job %d: %w", job.JobNo, err)
		}
		created++
		r.logger.Debug("materialized queue entry",
			logging.Int64(logging.FieldJobNo, job.JobNo),
			logging.String(logging.FieldQueueNumber, item.QueueNumber))
	}
	return created, nil
}

func fallback(value, def string) string {
	if value == "" {
		return def
	}
	return value
}
