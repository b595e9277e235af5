package assignment

import (
	"time"

	"github.com/klokku/timesheet/pkg/project"
)

const DefaultName = "Contributor"

// Assignment binds one employee to one project and task for a date range.
type Assignment struct {
	Id           int
	EmployeeId   int
	ProjectId    int
	TaskId       int
	Name         string
	PlannedHours float64
	StartDate    time.Time
	// EndDate nil means the assignment is still running.
	EndDate *time.Time
	Status  project.Status
	Notes   string
}

// View is an assignment with the labels needed to render a timesheet row.
type View struct {
	AssignmentId  int
	EmployeeId    int
	ProjectId     int
	ProjectName   string
	ProjectNumber string
	Client        string
	Billable      bool
	TaskId        int
	TaskName      string
	TaskTypeName  string
	Name          string
	Status        project.Status
	Notes         string
	StartDate     time.Time
	EndDate       *time.Time
}

// Overlaps reports whether the window [start, end] overlaps [from, to]. A nil end is open.
func Overlaps(start time.Time, end *time.Time, from, to time.Time) bool {
	if start.After(to) {
		return false
	}
	return end == nil || !end.Before(from)
}

func (a Assignment) Overlaps(from, to time.Time) bool {
	return Overlaps(a.StartDate, a.EndDate, from, to)
}

// Covers reports whether hours may be logged on day.
func (v View) Covers(day time.Time) bool {
	return Overlaps(v.StartDate, v.EndDate, day, day)
}
