package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"itq/internal/classify"
)

const jobColumns = "jobno, category, description, dept_tech, employee_name, job_date, assign_date, arrive_date, req_date, caller, sap_code, asset_name, note, act_start, act_finish, job_status, return_date, enter_date, enter_by, outsource_date, priority_tier, job_category, dept_abbrev, dept_name, updated_at"

// UpsertJob creates or replaces the mirror row for a job, keyed by job number.
// All non-key fields are overwritten with the provided state.
func (s *Store) UpsertJob(ctx context.Context, job *Job) error {
	if job == nil {
		return errors.New("job is nil")
	}
	if job.PriorityTier == 0 {
		job.PriorityTier = classify.DefaultTier
	}
	if job.JobCategory == "" {
		job.JobCategory = classify.CategoryOther
	}
	job.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO jobs (`+jobColumns+`)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT (jobno) DO UPDATE SET
             category = excluded.category,
             description = excluded.description,
             dept_tech = excluded.dept_tech,
             employee_name = excluded.employee_name,
             job_date = excluded.job_date,
             assign_date = excluded.assign_date,
             arrive_date = excluded.arrive_date,
             req_date = excluded.req_date,
             caller = excluded.caller,
             sap_code = excluded.sap_code,
             asset_name = excluded.asset_name,
             note = excluded.note,
             act_start = excluded.act_start,
             act_finish = excluded.act_finish,
             job_status = excluded.job_status,
             return_date = excluded.return_date,
             enter_date = excluded.enter_date,
             enter_by = excluded.enter_by,
             outsource_date = excluded.outsource_date,
             priority_tier = excluded.priority_tier,
             job_category = excluded.job_category,
             dept_abbrev = excluded.dept_abbrev,
             dept_name = excluded.dept_name,
             updated_at = excluded.updated_at`,
		job.JobNo,
		nullableString(job.Category),
		nullableString(job.Description),
		nullableString(job.DeptTech),
		nullableString(job.EmployeeName),
		nullableTime(job.JobDate),
		nullableTime(job.AssignDate),
		nullableTime(job.ArriveDate),
		nullableTime(job.RequestDate),
		nullableString(job.Caller),
		nullableString(job.SAPCode),
		nullableString(job.AssetName),
		nullableString(job.Note),
		nullableTime(job.ActualStart),
		nullableTime(job.ActualFinish),
		nullableString(job.JobStatus),
		nullableTime(job.ReturnDate),
		nullableTime(job.EnterDate),
		nullableString(job.EnterBy),
		nullableTime(job.OutsourceDate),
		job.PriorityTier,
		string(job.JobCategory),
		nullableString(job.DeptAbbrev),
		nullableString(job.DeptName),
		formatTime(job.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert job %d: %w", job.JobNo, err)
	}
	return nil
}

// GetJob fetches a mirrored job by number, or nil when absent.
func (s *Store) GetJob(ctx context.Context, jobNo int64) (*Job, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+jobColumns+` FROM jobs WHERE jobno = ?`, jobNo)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// JobNumbers returns every mirrored job number in ascending order.
func (s *Store) JobNumbers(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT jobno FROM jobs ORDER BY jobno`)
	if err != nil {
		return nil, fmt.Errorf("list job numbers: %w", err)
	}
	defer rows.Close()

	var numbers []int64
	for rows.Next() {
		var n int64
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		numbers = append(numbers, n)
	}
	return numbers, rows.Err()
}

// UnqueuedJobs returns mirrored jobs not yet linked by any queue item, in
// ascending request-date order.
func (s *Store) UnqueuedJobs(ctx context.Context) ([]*Job, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT `+jobColumns+` FROM jobs
         WHERE jobno NOT IN (SELECT linked_jobno FROM queue_items WHERE linked_jobno IS NOT NULL)
         ORDER BY req_date`,
	)
	if err != nil {
		return nil, fmt.Errorf("list unqueued jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// DeleteJobCascade removes a mirror row and its linked queue item. The
// dependent queue item goes first so a partial failure never leaves a queue
// item pointing at a missing job.
func (s *Store) DeleteJobCascade(ctx context.Context, jobNo int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM queue_items WHERE linked_jobno = ?`, jobNo); err != nil {
			return fmt.Errorf("delete linked queue item: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM jobs WHERE jobno = ?`, jobNo); err != nil {
			return fmt.Errorf("delete job %d: %w", jobNo, err)
		}
		return nil
	})
}

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		jobNo        int64
		category     sql.NullString
		description  sql.NullString
		deptTech     sql.NullString
		employee     sql.NullString
		jobDate      sql.NullString
		assignDate   sql.NullString
		arriveDate   sql.NullString
		reqDate      sql.NullString
		caller       sql.NullString
		sapCode      sql.NullString
		assetName    sql.NullString
		note         sql.NullString
		actStart     sql.NullString
		actFinish    sql.NullString
		jobStatus    sql.NullString
		returnDate   sql.NullString
		enterDate    sql.NullString
		enterBy      sql.NullString
		outsource    sql.NullString
		priorityTier int
		jobCategory  string
		deptAbbrev   sql.NullString
		deptName     sql.NullString
		updatedRaw   string
	)

	if err := scanner.Scan(
		&jobNo,
		&category,
		&description,
		&deptTech,
		&employee,
		&jobDate,
		&assignDate,
		&arriveDate,
		&reqDate,
		&caller,
		&sapCode,
		&assetName,
		&note,
		&actStart,
		&actFinish,
		&jobStatus,
		&returnDate,
		&enterDate,
		&enterBy,
		&outsource,
		&priorityTier,
		&jobCategory,
		&deptAbbrev,
		&deptName,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	job := &Job{
		JobNo:         jobNo,
		Category:      category.String,
		Description:   description.String,
		DeptTech:      deptTech.String,
		EmployeeName:  employee.String,
		JobDate:       timePtrFromNull(jobDate),
		AssignDate:    timePtrFromNull(assignDate),
		ArriveDate:    timePtrFromNull(arriveDate),
		RequestDate:   timePtrFromNull(reqDate),
		Caller:        caller.String,
		SAPCode:       sapCode.String,
		AssetName:     assetName.String,
		Note:          note.String,
		ActualStart:   timePtrFromNull(actStart),
		ActualFinish:  timePtrFromNull(actFinish),
		JobStatus:     jobStatus.String,
		ReturnDate:    timePtrFromNull(returnDate),
		EnterDate:     timePtrFromNull(enterDate),
		EnterBy:       enterBy.String,
		OutsourceDate: timePtrFromNull(outsource),
		PriorityTier:  priorityTier,
		JobCategory:   classify.Category(jobCategory),
		DeptAbbrev:    deptAbbrev.String,
		DeptName:      deptName.String,
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		job.UpdatedAt = updated
	}
	return job, nil
}
