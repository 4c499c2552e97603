package reconcile

import (
	"context"
	"fmt"

	"itq/internal/store"
)

// DeriveStatuses applies mirror-driven status transitions to the queue.
//
// Step one retires the deprecated waiting-for-parts code, rewriting its
// members to coordinating and dropping it from the registry. Effective once;
// every later run is a no-op.
//
// Step two follows the outsourcing timestamp: entries whose job went to an
// outside vendor move to coordinating (unless already done), and coordinating
// entries whose job came back revert to waiting.
//
// Returns the migrated, moved, and reverted entry counts.
func (r *Reconciler) DeriveStatuses(ctx context.Context) (migrated, moved, reverted int, err error) {
	migrated, err = r.store.MigrateStatus(ctx, store.StatusWaitingParts, store.StatusCoordinating)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("retire deprecated status: %w", err)
	}

	moved, err = r.store.MarkCoordinating(ctx)
	if err != nil {
		return migrated, 0, 0, fmt.Errorf("mark coordinating: %w", err)
	}
	reverted, err = r.store.RevertCoordinating(ctx)
	if err != nil {
		return migrated, moved, 0, fmt.Errorf("revert coordinating: %w", err)
	}
	return migrated, moved, reverted, nil
}
