package store

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"itq/internal/classify"
)

// StatusCode identifies an entry in the queue status registry.
type StatusCode string

const (
	StatusWaiting      StatusCode = "WAITING"
	StatusActive       StatusCode = "ACTIVE"
	StatusDone         StatusCode = "DONE"
	StatusCoordinating StatusCode = "COORDINATING"

	// StatusWaitingParts is retired; the deriver migrates its members to
	// COORDINATING and removes it from the registry.
	StatusWaitingParts StatusCode = "WAITING_PARTS"
)

// Status is one row of the queue status registry.
type Status struct {
	Code  StatusCode
	Name  string
	Color string
}

// Job mirrors one upstream BMS repair job.
type Job struct {
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
	PriorityTier  int
	JobCategory   classify.Category
	DeptAbbrev    string
	DeptName      string
	UpdatedAt     time.Time
}

// Item is one service-queue entry.
type Item struct {
	ID             int64
	QueueNumber    string
	UserName       string
	UserDepartment string
	Issue          string
	Comment        string
	Urgent         bool
	CreatedAt      time.Time
	LinkedJobNo    *int64
	StatusCode     StatusCode
	CalledAt       *time.Time
	Adhoc          bool
}

// Closure records one close/open interval of the service window. A nil
// OpenedAt marks the window as currently closed.
type Closure struct {
	ID       int64
	ClosedAt time.Time
	ClosedBy string
	OpenedAt *time.Time
	OpenedBy string
}

// QueueNumberFormat renders a queue number from its numeric suffix.
const QueueNumberFormat = "IT-%04d"

var queueNumberPattern = regexp.MustCompile(`^IT-(\d+)$`)

// FormatQueueNumber renders the display identifier for a numeric suffix.
func FormatQueueNumber(n int64) string {
	return fmt.Sprintf(QueueNumberFormat, n)
}

// ParseQueueNumber extracts the numeric suffix from a display identifier.
func ParseQueueNumber(value string) (int64, bool) {
	match := queueNumberPattern.FindStringSubmatch(value)
	if match == nil {
		return 0, false
	}
	n, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
