package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrLaneBusy is returned when an ad-hoc activation finds the lane occupied.
var ErrLaneBusy = errors.New("ad-hoc lane already has an active entry")

// CompleteActive marks a lane's active entry done. Returns the number of
// entries completed; zero when the lane was already idle.
func (s *Store) CompleteActive(ctx context.Context, adhoc bool) (int, error) {
	result, err := s.execWithRetry(
		ctx,
		`UPDATE queue_items SET status_code = ? WHERE status_code = ? AND is_adhoc = ?`,
		string(StatusDone),
		string(StatusActive),
		boolToInt(adhoc),
	)
	if err != nil {
		return 0, fmt.Errorf("complete active: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// CallNext completes the normal lane's active entry and activates the best
// waiting candidate, urgent entries first, then lowest queue number. Both
// mutations share one transaction so a reader never observes two active
// entries in the lane. Returns nil when nothing is waiting; the previous
// active entry is still completed in that case.
func (s *Store) CallNext(ctx context.Context, now time.Time) (*Item, error) {
	var next *Item
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		next = nil
		if _, err := tx.ExecContext(
			ctx,
			`UPDATE queue_items SET status_code = ? WHERE status_code = ? AND is_adhoc = 0`,
			string(StatusDone),
			string(StatusActive),
		); err != nil {
			return fmt.Errorf("complete active: %w", err)
		}

		row := tx.QueryRowContext(
			ctx,
			`SELECT `+itemColumns+` FROM queue_items
             WHERE status_code = ?
             ORDER BY is_urgent DESC, `+queueNumberOrder+` ASC
             LIMIT 1`,
			string(StatusWaiting),
		)
		candidate, err := scanItem(row)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("pick next waiting: %w", err)
		}

		calledAt := now.UTC().Truncate(time.Second)
		if _, err := tx.ExecContext(
			ctx,
			`UPDATE queue_items SET status_code = ?, is_adhoc = 0, called_at = ? WHERE id = ?`,
			string(StatusActive),
			formatTime(calledAt),
			candidate.ID,
		); err != nil {
			return fmt.Errorf("activate %s: %w", candidate.QueueNumber, err)
		}
		candidate.StatusCode = StatusActive
		candidate.CalledAt = &calledAt
		next = candidate
		return nil
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

// ActivateAdhoc moves an entry into the ad-hoc lane. The occupancy check and
// the activation share one transaction; ErrLaneBusy means the lane already
// holds an active entry and nothing was changed.
func (s *Store) ActivateAdhoc(ctx context.Context, id int64, now time.Time) (*Item, error) {
	var activated *Item
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var occupied int
		row := tx.QueryRowContext(
			ctx,
			`SELECT COUNT(*) FROM queue_items WHERE status_code = ? AND is_adhoc = 1`,
			string(StatusActive),
		)
		if err := row.Scan(&occupied); err != nil {
			return fmt.Errorf("check ad-hoc lane: %w", err)
		}
		if occupied > 0 {
			return ErrLaneBusy
		}

		row = tx.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM queue_items WHERE id = ?`, id)
		item, err := scanItem(row)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("queue item %d: %w", id, sql.ErrNoRows)
		}
		if err != nil {
			return fmt.Errorf("get queue item: %w", err)
		}

		calledAt := now.UTC().Truncate(time.Second)
		if _, err := tx.ExecContext(
			ctx,
			`UPDATE queue_items SET status_code = ?, is_adhoc = 1, called_at = ? WHERE id = ?`,
			string(StatusActive),
			formatTime(calledAt),
			id,
		); err != nil {
			return fmt.Errorf("activate ad-hoc %s: %w", item.QueueNumber, err)
		}
		item.StatusCode = StatusActive
		item.Adhoc = true
		item.CalledAt = &calledAt
		activated = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return activated, nil
}

// MigrateStatus rewrites every entry on the deprecated code to its
// replacement and drops the deprecated code from the registry. Idempotent:
// once nothing references the old code, both statements are no-ops.
func (s *Store) MigrateStatus(ctx context.Context, from, to StatusCode) (int, error) {
	var migrated int
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(
			ctx,
			`UPDATE queue_items SET status_code = ? WHERE status_code = ?`,
			string(to),
			string(from),
		)
		if err != nil {
			return fmt.Errorf("migrate %s to %s: %w", from, to, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		migrated = int(affected)

		if _, err := tx.ExecContext(ctx, `DELETE FROM queue_statuses WHERE code = ?`, string(from)); err != nil {
			return fmt.Errorf("drop status %s: %w", from, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return migrated, nil
}

// MarkCoordinating moves entries whose linked job carries an outsourcing
// timestamp into COORDINATING. Done and already-coordinating entries are left
// alone. Returns the number of entries moved.
func (s *Store) MarkCoordinating(ctx context.Context) (int, error) {
	result, err := s.execWithRetry(
		ctx,
		`UPDATE queue_items SET status_code = ?
         WHERE status_code NOT IN (?, ?)
           AND linked_jobno IN (SELECT jobno FROM jobs WHERE outsource_date IS NOT NULL)`,
		string(StatusCoordinating),
		string(StatusDone),
		string(StatusCoordinating),
	)
	if err != nil {
		return 0, fmt.Errorf("mark coordinating: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// RevertCoordinating returns entries to WAITING once their linked job no
// longer carries an outsourcing timestamp. Returns the number reverted.
func (s *Store) RevertCoordinating(ctx context.Context) (int, error) {
	result, err := s.execWithRetry(
		ctx,
		`UPDATE queue_items SET status_code = ?
         WHERE status_code = ?
           AND linked_jobno IN (SELECT jobno FROM jobs WHERE outsource_date IS NULL)`,
		string(StatusWaiting),
		string(StatusCoordinating),
	)
	if err != nil {
		return 0, fmt.Errorf("revert coordinating: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}
