package report

import (
	"time"

	"github.com/klokku/timesheet/pkg/timesheet"
)

// Range selects entries whose week start falls within [From, To].
type Range struct {
	From time.Time
	To   time.Time
}

type Totals struct {
	TotalHours    float64
	BillableHours float64
	// Utilization is the billable share of all hours, 0 when nothing was logged.
	Utilization float64
	Employees   int
	Entries     int
}

type ProjectSummary struct {
	ProjectId     int
	ProjectName   string
	ProjectNumber string
	Client        string
	Billable      bool
	PlannedHours  float64
	Hours         float64
	Employees     int
}

type StatusCount struct {
	Status  timesheet.Status
	Entries int
	Hours   float64
}

type TaskTypeShare struct {
	TaskTypeId   *int
	TaskTypeName string
	Hours        float64
	Share        float64
}

type DetailFilter struct {
	EmployeeId *int
	ProjectId  *int
	Status     timesheet.Status
}

type DetailedEntry struct {
	EntryId       int
	EmployeeId    int
	EmployeeName  string
	BadgeId       string
	ProjectId     int
	ProjectName   string
	ProjectNumber string
	Billable      bool
	TaskId        int
	TaskName      string
	TaskTypeName  string
	WeekStart     time.Time
	Hours         timesheet.Hours
	Status        timesheet.Status
	Notes         string
}

const unclassified = "Unclassified"
