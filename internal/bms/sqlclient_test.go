package bms_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"itq/internal/bms"
	"itq/internal/testsupport"
)

const fixtureSchema = `
CREATE TABLE repair_jobs (
    jobno          INTEGER PRIMARY KEY,
    category       TEXT,
    description    TEXT,
    dept_tech      TEXT,
    employee_name  TEXT,
    job_date       TEXT,
    assign_date    TEXT,
    arrive_date    TEXT,
    req_date       TEXT,
    caller         TEXT,
    sap_code       TEXT,
    asset_name     TEXT,
    note           TEXT,
    act_start      TEXT,
    act_finish     TEXT,
    job_status     TEXT,
    return_date    TEXT,
    enter_date     TEXT,
    enter_by       TEXT,
    outsource_date TEXT,
    dept_abbrev    TEXT,
    dept_name      TEXT,
    dept_control   TEXT
);`

func newFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bms.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	defer db.Close()
	if _, err := db.Exec(fixtureSchema); err != nil {
		t.Fatalf("create fixture schema: %v", err)
	}
	seed := `INSERT INTO repair_jobs (jobno, description, dept_tech, employee_name, req_date, job_status, dept_control) VALUES
        (1001, 'printer down', 'T01', 'Somchai', '2026-03-01 08:00:00', '1', '2'),
        (1002, 'no network', 'T02', 'Malee', '2026-03-01 07:00:00', '11', '2'),
        (1003, 'done job', 'T01', 'Nok', '2026-03-01 06:00:00', '2', '2'),
        (1004, 'other department', 'T01', 'Lek', '2026-03-01 05:00:00', '1', '9')`
	if _, err := db.Exec(seed); err != nil {
		t.Fatalf("seed fixture: %v", err)
	}
	return path
}

func TestSQLClientFetchOpen(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.BMS.DSN = newFixture(t)

	ctx := context.Background()
	client, err := bms.Connect(ctx, cfg)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Close()

	rows, err := client.FetchOpen(ctx)
	if err != nil {
		t.Fatalf("FetchOpen failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 open jobs for the department, got %d", len(rows))
	}
	// Ordered by request date ascending.
	if rows[0].JobNo != 1002 || rows[1].JobNo != 1001 {
		t.Fatalf("unexpected order: %d, %d", rows[0].JobNo, rows[1].JobNo)
	}
	if rows[1].RequestDate == nil || rows[1].Description != "printer down" {
		t.Fatalf("unexpected row: %#v", rows[1])
	}
}

func TestSQLClientFetchByJobNos(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.BMS.DSN = newFixture(t)

	ctx := context.Background()
	client, err := bms.Connect(ctx, cfg)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer client.Close()

	rows, err := client.FetchByJobNos(ctx, []int64{1003, 1004, 9999})
	if err != nil {
		t.Fatalf("FetchByJobNos failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	rows, err = client.FetchByJobNos(ctx, nil)
	if err != nil || rows != nil {
		t.Fatalf("expected empty request to short-circuit, got %#v %v", rows, err)
	}
}
