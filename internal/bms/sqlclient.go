package bms

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"itq/internal/config"
)

// rowColumns is the column list shared by every fetch query, in Row order.
const rowColumns = "jobno, category, description, dept_tech, employee_name, job_date, assign_date, arrive_date, req_date, caller, sap_code, asset_name, note, act_start, act_finish, job_status, return_date, enter_date, enter_by, outsource_date, dept_abbrev, dept_name"

// SQLClient reads repair jobs through a database/sql driver. The driver name
// and DSN come from configuration, so the same client serves the production
// system and a local fixture database.
type SQLClient struct {
	db          *sql.DB
	deptControl string
	timeout     time.Duration
}

// Connect opens a client against the configured upstream system.
func Connect(ctx context.Context, cfg *config.Config) (*SQLClient, error) {
	db, err := sql.Open(cfg.BMS.Driver, cfg.BMS.DSN)
	if err != nil {
		return nil, fmt.Errorf("open bms connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping bms: %w", err)
	}
	return &SQLClient{
		db:          db,
		deptControl: cfg.BMS.DeptControl,
		timeout:     time.Duration(cfg.BMS.FetchTimeout) * time.Second,
	}, nil
}

// FetchOpen returns every open job routed to the configured department,
// oldest request first.
func (c *SQLClient) FetchOpen(ctx context.Context) ([]Row, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	placeholders := make([]string, len(OpenStatuses))
	args := make([]any, 0, len(OpenStatuses)+1)
	for i, status := range OpenStatuses {
		placeholders[i] = "?"
		args = append(args, status)
	}
	args = append(args, c.deptControl)

	query := `SELECT ` + rowColumns + ` FROM repair_jobs
        WHERE job_status IN (` + strings.Join(placeholders, ",") + `) AND dept_control = ?
        ORDER BY req_date`
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch open jobs: %w", err)
	}
	defer rows.Close()
	return collectRows(rows)
}

// FetchByJobNos returns the current state of exactly the given job numbers.
func (c *SQLClient) FetchByJobNos(ctx context.Context, jobNos []int64) ([]Row, error) {
	if len(jobNos) == 0 {
		return nil, nil
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	placeholders := make([]string, len(jobNos))
	args := make([]any, len(jobNos))
	for i, n := range jobNos {
		placeholders[i] = "?"
		args[i] = n
	}

	query := `SELECT ` + rowColumns + ` FROM repair_jobs WHERE jobno IN (` + strings.Join(placeholders, ",") + `)`
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch jobs by number: %w", err)
	}
	defer rows.Close()
	return collectRows(rows)
}

// Close releases the underlying connection pool.
func (c *SQLClient) Close() error {
	return c.db.Close()
}

func (c *SQLClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func collectRows(rows *sql.Rows) ([]Row, error) {
	var out []Row
	for rows.Next() {
		var (
			row       Row
			category  sql.NullString
			desc      sql.NullString
			deptTech  sql.NullString
			employee  sql.NullString
			caller    sql.NullString
			sapCode   sql.NullString
			assetName sql.NullString
			note      sql.NullString
			status    sql.NullString
			enterBy   sql.NullString
			abbrev    sql.NullString
			deptName  sql.NullString
			stamps    [9]sql.NullString
		)
		if err := rows.Scan(
			&row.JobNo,
			&category,
			&desc,
			&deptTech,
			&employee,
			&stamps[0], // job_date
			&stamps[1], // assign_date
			&stamps[2], // arrive_date
			&stamps[3], // req_date
			&caller,
			&sapCode,
			&assetName,
			&note,
			&stamps[4], // act_start
			&stamps[5], // act_finish
			&status,
			&stamps[6], // return_date
			&stamps[7], // enter_date
			&enterBy,
			&stamps[8], // outsource_date
			&abbrev,
			&deptName,
		); err != nil {
			return nil, err
		}

		row.Category = category.String
		row.Description = desc.String
		row.DeptTech = deptTech.String
		row.EmployeeName = employee.String
		row.Caller = caller.String
		row.SAPCode = sapCode.String
		row.AssetName = assetName.String
		row.Note = note.String
		row.JobStatus = status.String
		row.EnterBy = enterBy.String
		row.DeptAbbrev = abbrev.String
		row.DeptName = deptName.String

		row.JobDate = parseStamp(stamps[0])
		row.AssignDate = parseStamp(stamps[1])
		row.ArriveDate = parseStamp(stamps[2])
		row.RequestDate = parseStamp(stamps[3])
		row.ActualStart = parseStamp(stamps[4])
		row.ActualFinish = parseStamp(stamps[5])
		row.ReturnDate = parseStamp(stamps[6])
		row.EnterDate = parseStamp(stamps[7])
		row.OutsourceDate = parseStamp(stamps[8])

		out = append(out, row)
	}
	return out, rows.Err()
}

var stampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
}

func parseStamp(raw sql.NullString) *time.Time {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	for _, layout := range stampLayouts {
		if t, err := time.Parse(layout, raw.String); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
