package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"itq/internal/services"
)

// Statuses returns the queue status registry in code order.
func (s *Store) Statuses(ctx context.Context) ([]*Status, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT code, name, color FROM queue_statuses ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	defer rows.Close()

	var statuses []*Status
	for rows.Next() {
		var status Status
		var code string
		if err := rows.Scan(&code, &status.Name, &status.Color); err != nil {
			return nil, err
		}
		status.Code = StatusCode(code)
		statuses = append(statuses, &status)
	}
	return statuses, rows.Err()
}

// GetStatus fetches a registry entry by code.
func (s *Store) GetStatus(ctx context.Context, code StatusCode) (*Status, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT code, name, color FROM queue_statuses WHERE code = ?`, string(code))
	var status Status
	var raw string
	if err := row.Scan(&raw, &status.Name, &status.Color); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, services.Wrap(services.ErrNotFound, "store", "get_status", fmt.Sprintf("status %s not registered", code), nil)
		}
		return nil, fmt.Errorf("get status: %w", err)
	}
	status.Code = StatusCode(raw)
	return &status, nil
}
