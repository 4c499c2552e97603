package testsupport

import (
	"context"
	"testing"
	"time"

	"itq/internal/config"
	"itq/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewItem inserts a waiting queue entry for tests and returns it.
func NewItem(t testing.TB, st *store.Store, userName, issue string) *store.Item {
	t.Helper()

	item := &store.Item{
		UserName:       userName,
		UserDepartment: "Unknown",
		Issue:          issue,
	}
	if err := st.CreateItem(context.Background(), item); err != nil {
		t.Fatalf("store.CreateItem: %v", err)
	}
	return item
}

// NewJob mirrors a minimal open repair job for tests and returns it.
func NewJob(t testing.TB, st *store.Store, jobNo int64, description string) *store.Job {
	t.Helper()

	reqDate := time.Now().UTC().Truncate(time.Second)
	job := &store.Job{
		JobNo:       jobNo,
		Description: description,
		DeptTech:    "T01",
		JobStatus:   "1",
		RequestDate: &reqDate,
	}
	if err := st.UpsertJob(context.Background(), job); err != nil {
		t.Fatalf("store.UpsertJob: %v", err)
	}
	return job
}
