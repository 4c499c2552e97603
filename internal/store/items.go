package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"itq/internal/services"
)

const itemColumns = "id, queue_number, user_name, user_department, issue_description, comment, is_urgent, created_at, linked_jobno, status_code, called_at, is_adhoc"

// queueNumberOrder sorts display identifiers by their numeric suffix so
// IT-0100 never sorts ahead of IT-0099 once the counter outgrows four digits.
const queueNumberOrder = "CAST(substr(queue_number, 4) AS INTEGER)"

// ItemQuery narrows ListItems and CountItems.
type ItemQuery struct {
	// Statuses restricts results to the given codes. Empty means all.
	Statuses []StatusCode
	// Search matches queue number, requester name, or issue text.
	Search string
	// CreatedInMonth restricts results to items created in the given month.
	CreatedInMonth *time.Time
	// WaitingOrder sorts urgent items first, then by queue number. The
	// default order is newest first.
	WaitingOrder bool
	Limit        int
	Offset       int
}

// CreateItem inserts a queue entry, allocating its queue number from the
// counter. The counter never moves backwards: allocation takes the larger of
// the stored value and the highest suffix already in use, so a restored
// backup cannot cause duplicate numbers. Should the UNIQUE constraint on
// queue_number still trip, the allocation is retried with a fresh number
// rather than surfacing the collision.
func (s *Store) CreateItem(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item is nil")
	}
	if item.StatusCode == "" {
		item.StatusCode = StatusWaiting
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	item.CreatedAt = item.CreatedAt.UTC().Truncate(time.Second)

	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = s.createItemTx(ctx, item)
		if lastErr == nil {
			return nil
		}
		if !isUniqueViolation(lastErr) {
			return lastErr
		}
		lastErr = services.Wrap(services.ErrConflict, "store", "create_item",
			fmt.Sprintf("queue number %s already taken", item.QueueNumber), lastErr)
	}
	return lastErr
}

func (s *Store) createItemTx(ctx context.Context, item *Item) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		number, err := allocateQueueNumber(ctx, tx)
		if err != nil {
			return err
		}
		item.QueueNumber = FormatQueueNumber(number)

		result, err := tx.ExecContext(
			ctx,
			`INSERT INTO queue_items (queue_number, user_name, user_department, issue_description, comment, is_urgent, created_at, linked_jobno, status_code, called_at, is_adhoc)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			item.QueueNumber,
			item.UserName,
			item.UserDepartment,
			item.Issue,
			nullableString(item.Comment),
			boolToInt(item.Urgent),
			formatTime(item.CreatedAt),
			nullableInt64(item.LinkedJobNo),
			string(item.StatusCode),
			nullableTime(item.CalledAt),
			boolToInt(item.Adhoc),
		)
		if err != nil {
			return fmt.Errorf("insert queue item %s: %w", item.QueueNumber, err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return err
		}
		item.ID = id
		return nil
	})
}

// allocateQueueNumber advances the counter and returns the next free suffix.
// The single UPDATE keeps allocation atomic under concurrent writers.
func allocateQueueNumber(ctx context.Context, tx *sql.Tx) (int64, error) {
	row := tx.QueryRowContext(ctx, `
        UPDATE queue_counters
        SET value = MAX(
            value + 1,
            (SELECT COALESCE(MAX(CAST(substr(queue_number, 4) AS INTEGER)), 0) + 1 FROM queue_items)
        )
        WHERE name = 'queue_number'
        RETURNING value`)
	var value int64
	if err := row.Scan(&value); err != nil {
		return 0, fmt.Errorf("allocate queue number: %w", err)
	}
	return value, nil
}

// GetItem fetches a queue entry by id, or nil when absent.
func (s *Store) GetItem(ctx context.Context, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+itemColumns+` FROM queue_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get queue item: %w", err)
	}
	return item, nil
}

// GetItemByJobNo fetches the queue entry linked to a job, or nil when the job
// has not been materialized.
func (s *Store) GetItemByJobNo(ctx context.Context, jobNo int64) (*Item, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+itemColumns+` FROM queue_items WHERE linked_jobno = ?`, jobNo)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get queue item by job: %w", err)
	}
	return item, nil
}

// ActiveItem returns the single in-progress entry for a lane, or nil when the
// lane is idle.
func (s *Store) ActiveItem(ctx context.Context, adhoc bool) (*Item, error) {
	row := s.db.QueryRowContext(
		ensureContext(ctx),
		`SELECT `+itemColumns+` FROM queue_items WHERE status_code = ? AND is_adhoc = ? LIMIT 1`,
		string(StatusActive),
		boolToInt(adhoc),
	)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active item: %w", err)
	}
	return item, nil
}

// ListItems returns queue entries matching the query.
func (s *Store) ListItems(ctx context.Context, query ItemQuery) ([]*Item, error) {
	where, args := buildItemFilter(query)
	order := "created_at DESC, id DESC"
	if query.WaitingOrder {
		order = "is_urgent DESC, " + queueNumberOrder + " ASC"
	}
	stmt := `SELECT ` + itemColumns + ` FROM queue_items` + where + ` ORDER BY ` + order
	if query.Limit > 0 {
		stmt += fmt.Sprintf(" LIMIT %d OFFSET %d", query.Limit, query.Offset)
	}

	rows, err := s.db.QueryContext(ensureContext(ctx), stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list queue items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// CountItems returns the number of queue entries matching the query.
func (s *Store) CountItems(ctx context.Context, query ItemQuery) (int, error) {
	where, args := buildItemFilter(query)
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT COUNT(*) FROM queue_items`+where, args...)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count queue items: %w", err)
	}
	return count, nil
}

// CountsByStatus returns the number of entries per status code. Codes with no
// entries are omitted.
func (s *Store) CountsByStatus(ctx context.Context) (map[StatusCode]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT status_code, COUNT(*) FROM queue_items GROUP BY status_code`)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[StatusCode]int)
	for rows.Next() {
		var code string
		var count int
		if err := rows.Scan(&code, &count); err != nil {
			return nil, err
		}
		counts[StatusCode(code)] = count
	}
	return counts, rows.Err()
}

// SetUrgent flips the urgency flag on a queue entry.
func (s *Store) SetUrgent(ctx context.Context, id int64, urgent bool) error {
	return s.updateItemField(ctx, id, "is_urgent", boolToInt(urgent))
}

// SetComment replaces the free-form comment on a queue entry.
func (s *Store) SetComment(ctx context.Context, id int64, comment string) error {
	return s.updateItemField(ctx, id, "comment", nullableString(comment))
}

// SetStatus moves a queue entry to the given status without lane bookkeeping.
// Lifecycle transitions that must hold the lane invariant go through the
// transition helpers instead.
func (s *Store) SetStatus(ctx context.Context, id int64, code StatusCode) error {
	return s.updateItemField(ctx, id, "status_code", string(code))
}

func (s *Store) updateItemField(ctx context.Context, id int64, column string, value any) error {
	result, err := s.execWithRetry(ctx, `UPDATE queue_items SET `+column+` = ? WHERE id = ?`, value, id)
	if err != nil {
		return fmt.Errorf("update queue item %s: %w", column, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("queue item %d: %w", id, sql.ErrNoRows)
	}
	return nil
}

func buildItemFilter(query ItemQuery) (string, []any) {
	var clauses []string
	var args []any

	if len(query.Statuses) > 0 {
		clauses = append(clauses, "status_code IN ("+makePlaceholders(len(query.Statuses))+")")
		for _, code := range query.Statuses {
			args = append(args, string(code))
		}
	}
	if query.Search != "" {
		pattern := "%" + query.Search + "%"
		clauses = append(clauses, "(queue_number LIKE ? OR user_name LIKE ? OR issue_description LIKE ?)")
		args = append(args, pattern, pattern, pattern)
	}
	if query.CreatedInMonth != nil {
		start := time.Date(query.CreatedInMonth.Year(), query.CreatedInMonth.Month(), 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 1, 0)
		clauses = append(clauses, "created_at >= ? AND created_at < ?")
		args = append(args, formatTime(start), formatTime(end))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		id          int64
		queueNumber string
		userName    string
		userDept    string
		issue       string
		comment     sql.NullString
		urgent      int
		createdRaw  string
		linkedJobNo sql.NullInt64
		statusCode  string
		calledAt    sql.NullString
		adhoc       int
	)

	if err := scanner.Scan(
		&id,
		&queueNumber,
		&userName,
		&userDept,
		&issue,
		&comment,
		&urgent,
		&createdRaw,
		&linkedJobNo,
		&statusCode,
		&calledAt,
		&adhoc,
	); err != nil {
		return nil, err
	}

	item := &Item{
		ID:             id,
		QueueNumber:    queueNumber,
		UserName:       userName,
		UserDepartment: userDept,
		Issue:          issue,
		Comment:        comment.String,
		Urgent:         urgent != 0,
		StatusCode:     StatusCode(statusCode),
		CalledAt:       timePtrFromNull(calledAt),
		Adhoc:          adhoc != 0,
	}
	if linkedJobNo.Valid {
		n := linkedJobNo.Int64
		item.LinkedJobNo = &n
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		item.CreatedAt = created
	}
	return item, nil
}
