package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const closureColumns = "id, closed_at, closed_by, opened_at, opened_by"

// CreateClosure records the service window closing.
func (s *Store) CreateClosure(ctx context.Context, closedBy string, closedAt time.Time) (*Closure, error) {
	closure := &Closure{
		ClosedAt: closedAt.UTC().Truncate(time.Second),
		ClosedBy: closedBy,
	}
	result, err := s.execWithRetry(
		ctx,
		`INSERT INTO shift_closures (closed_at, closed_by) VALUES (?, ?)`,
		formatTime(closure.ClosedAt),
		closure.ClosedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("create closure: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	closure.ID = id
	return closure, nil
}

// CurrentClosure returns the most recent closure whose window has not been
// reopened, or nil when the service window is open.
func (s *Store) CurrentClosure(ctx context.Context) (*Closure, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT `+closureColumns+` FROM shift_closures WHERE opened_at IS NULL ORDER BY closed_at DESC LIMIT 1`,
	)
	closure, err := scanClosure(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get current closure: %w", err)
	}
	return closure, nil
}

// OpenAll reopens every closed window, stamping the actor and time. Returns
// the number of closures reopened.
func (s *Store) OpenAll(ctx context.Context, openedBy string, openedAt time.Time) (int, error) {
	result, err := s.execWithRetry(
		ctx,
		`UPDATE shift_closures SET opened_at = ?, opened_by = ? WHERE opened_at IS NULL`,
		formatTime(openedAt),
		openedBy,
	)
	if err != nil {
		return 0, fmt.Errorf("reopen closures: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// ClosureOpenedSince reports whether any closure was reopened at or after the
// reference time. The auto-close pass uses this to detect overtime: a window
// deliberately reopened during the current off-hours span stays open.
func (s *Store) ClosureOpenedSince(ctx context.Context, reference time.Time) (bool, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT COUNT(*) FROM shift_closures WHERE opened_at IS NOT NULL AND opened_at >= ?`,
		formatTime(reference),
	)
	var count int
	if err := row.Scan(&count); err != nil {
		return false, fmt.Errorf("check reopened closures: %w", err)
	}
	return count > 0, nil
}

// Closures returns the closure history, newest first.
func (s *Store) Closures(ctx context.Context, limit int) ([]*Closure, error) {
	stmt := `SELECT ` + closureColumns + ` FROM shift_closures ORDER BY closed_at DESC, id DESC`
	if limit > 0 {
		stmt += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), stmt)
	if err != nil {
		return nil, fmt.Errorf("list closures: %w", err)
	}
	defer rows.Close()

	var closures []*Closure
	for rows.Next() {
		closure, err := scanClosure(rows)
		if err != nil {
			return nil, err
		}
		closures = append(closures, closure)
	}
	return closures, rows.Err()
}

func scanClosure(scanner interface{ Scan(dest ...any) error }) (*Closure, error) {
	var (
		id        int64
		closedRaw string
		closedBy  string
		openedRaw sql.NullString
		openedBy  sql.NullString
	)
	if err := scanner.Scan(&id, &closedRaw, &closedBy, &openedRaw, &openedBy); err != nil {
		return nil, err
	}

	closure := &Closure{
		ID:       id,
		ClosedBy: closedBy,
		OpenedBy: openedBy.String,
		OpenedAt: timePtrFromNull(openedRaw),
	}
	if closed, err := parseTimeString(closedRaw); err == nil {
		closure.ClosedAt = closed
	}
	return closure, nil
}
