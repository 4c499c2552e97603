package testsupport

import (
	"context"
	"sync"

	"itq/internal/bms"
)

// FakeBMS is an in-memory bms.Client backed by a scripted row set. Fetch
// errors can be injected per call site and every method is safe for
// concurrent use.
type FakeBMS struct {
	mu sync.Mutex

	rows []bms.Row

	// FetchOpenErr and FetchByJobNosErr, when set, fail the matching call.
	FetchOpenErr     error
	FetchByJobNosErr error

	openCalls    int
	refreshCalls int
	closed       bool
}

// NewFakeBMS builds a fake client serving the given rows.
func NewFakeBMS(rows ...bms.Row) *FakeBMS {
	return &FakeBMS{rows: rows}
}

// SetRows replaces the scripted row set.
func (f *FakeBMS) SetRows(rows ...bms.Row) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = rows
}

// FetchOpen returns scripted rows whose status is in the open set.
func (f *FakeBMS) FetchOpen(ctx context.Context) ([]bms.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.openCalls++
	if f.FetchOpenErr != nil {
		return nil, f.FetchOpenErr
	}

	open := make(map[string]struct{}, len(bms.OpenStatuses))
	for _, status := range bms.OpenStatuses {
		open[status] = struct{}{}
	}
	var out []bms.Row
	for _, row := range f.rows {
		if _, ok := open[row.JobStatus]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

// FetchByJobNos returns the scripted rows matching the given job numbers.
func (f *FakeBMS) FetchByJobNos(ctx context.Context, jobNos []int64) ([]bms.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshCalls++
	if f.FetchByJobNosErr != nil {
		return nil, f.FetchByJobNosErr
	}

	wanted := make(map[int64]struct{}, len(jobNos))
	for _, n := range jobNos {
		wanted[n] = struct{}{}
	}
	var out []bms.Row
	for _, row := range f.rows {
		if _, ok := wanted[row.JobNo]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

// Close marks the client released.
func (f *FakeBMS) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (f *FakeBMS) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// OpenCalls returns how many times FetchOpen was invoked.
func (f *FakeBMS) OpenCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.openCalls
}

// RefreshCalls returns how many times FetchByJobNos was invoked.
func (f *FakeBMS) RefreshCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshCalls
}
