package bms

import (
	"context"
	"fmt"
	"time"
)

// Row is one repair-job record as fetched from the upstream BMS system.
// Timestamps are nil when the upstream column is NULL.
type Row struct {
	JobNo         int64
	Category      string
	Description   string
	DeptTech      string
	EmployeeName  string
	JobDate       *time.Time
	AssignDate    *time.Time
	ArriveDate    *time.Time
	RequestDate   *time.Time
	Caller        string
	SAPCode       string
	AssetName     string
	Note          string
	ActualStart   *time.Time
	ActualFinish  *time.Time
	JobStatus     string
	ReturnDate    *time.Time
	EnterDate     *time.Time
	EnterBy       string
	OutsourceDate *time.Time
	DeptAbbrev    string
	DeptName      string
}

// Client is the opaque row-fetching capability against the BMS system.
// Implementations own their connection; Close must release it regardless of
// how earlier calls ended.
type Client interface {
	// FetchOpen returns jobs in the open-status set for the configured
	// dept_control, ordered by request date ascending.
	FetchOpen(ctx context.Context) ([]Row, error)
	// FetchByJobNos returns the current upstream state for exactly the given
	// job numbers. Jobs unknown upstream are simply absent from the result.
	FetchByJobNos(ctx context.Context, jobNos []int64) ([]Row, error)
	Close() error
}

// OpenStatuses is the fixed job_status set ingested during pass one:
// in progress ('1') and awaiting dispatch ('11').
var OpenStatuses = []string{"11", "1"}

// closableStatuses are the upstream states that permit closing the local
// queue entry: repaired ('2') and inspected ('12').
var closableStatuses = map[string]struct{}{
	"2":  {},
	"12": {},
}

// IsClosable reports whether a job in the given upstream status may be closed
// locally.
func IsClosable(jobStatus string) bool {
	_, ok := closableStatuses[jobStatus]
	return ok
}

var statusNames = map[string]string{
	"0":  "รอรับซ่อม",
	"1":  "กำลังดำเนินการ",
	"11": "รอจ่ายงาน",
	"12": "ตรวจรับงานแล้ว",
	"13": "รอใบเสนอราคา",
	"2":  "ซ่อมเสร็จ",
	"3":  "ยกเลิก",
	"5":  "รออนุมัติ",
	"6":  "รออะไหล่",
	"7":  "ส่งซ่อมภายนอก",
}

// StatusName returns the display name for an upstream job status code.
func StatusName(jobStatus string) string {
	if name, ok := statusNames[jobStatus]; ok {
		return name
	}
	return fmt.Sprintf("Unknown (%s)", jobStatus)
}
