package timesheet

import (
	"fmt"
	"slices"
	"time"
)

const DaysInWeek = 7

type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
)

var statuses = []Status{StatusDraft, StatusSubmitted, StatusApproved, StatusRejected}

func ParseStatus(value string) (Status, error) {
	s := Status(value)
	if !slices.Contains(statuses, s) {
		return "", fmt.Errorf("unknown status %q", value)
	}
	return s, nil
}

// Hours holds one value per day of the week, index 0 being the week anchor day.
type Hours [DaysInWeek]float64

func (h Hours) Total() float64 {
	var total float64
	for _, v := range h {
		total += v
	}
	return total
}

// Key identifies the entries of one employee for one project task in one week.
type Key struct {
	ProjectId int
	TaskId    int
}

type Entry struct {
	Id           int
	EmployeeId   int
	ProjectId    int
	TaskId       int
	AssignmentId *int
	WeekStart    time.Time
	Hours        Hours
	Status       Status
	Notes        string
	Version      int
	CreatedAt    time.Time
	UpdatedAt    time.Time
	// read only, joined from project and task
	ProjectName string
	TaskName    string
}

func (e Entry) Key() Key {
	return Key{ProjectId: e.ProjectId, TaskId: e.TaskId}
}

// Row is one line of a save request.
type Row struct {
	ProjectId    int
	TaskId       int
	AssignmentId *int
	Hours        Hours
	Notes        string
	// ExpectedVersion, when set, must match the version of the latest entry of the row's key.
	ExpectedVersion *int
}

func (r Row) Key() Key {
	return Key{ProjectId: r.ProjectId, TaskId: r.TaskId}
}

type UpsertAction int

const (
	ActionInsert UpsertAction = iota
	ActionUpdate
)

// ResolveUpsert decides how a save treats the latest entry of a key. A rejected entry stays untouched
// and a new row is inserted. Any other existing entry is updated in place.
func ResolveUpsert(latest *Entry) UpsertAction {
	if latest == nil || latest.Status == StatusRejected {
		return ActionInsert
	}
	return ActionUpdate
}

// DeriveWeekStatus applies the precedence approved > submitted > rejected > draft over all entries.
func DeriveWeekStatus(entries []Entry) Status {
	seen := map[Status]bool{}
	for _, e := range entries {
		seen[e.Status] = true
	}
	for _, s := range []Status{StatusApproved, StatusSubmitted, StatusRejected} {
		if seen[s] {
			return s
		}
	}
	return StatusDraft
}

// Editable reports whether the owning employee may still change a week with the given status.
func Editable(status Status) bool {
	return status == StatusDraft || status == StatusRejected
}

// LatestByKey returns the most recent entry of each key. Entries are expected in ascending id order.
func LatestByKey(entries []Entry) map[Key]Entry {
	latest := make(map[Key]Entry, len(entries))
	for _, e := range entries {
		if current, ok := latest[e.Key()]; !ok || e.Id > current.Id {
			latest[e.Key()] = e
		}
	}
	return latest
}

// WeekRow is a timesheet line as shown to the employee.
type WeekRow struct {
	ProjectId       int
	ProjectName     string
	Billable        bool
	TaskId          int
	TaskName        string
	TaskTypeName    string
	AssignmentId    *int
	Assignment      string
	AssignmentNotes string
	ValidFrom       *time.Time
	ValidTo         *time.Time
	EntryId         *int
	Version         *int
	Status          *Status
	Hours           Hours
	Notes           string
	// Legacy rows have no assignable work behind them and are read-only.
	Legacy bool
}

type Week struct {
	EmployeeId      int
	Start           time.Time
	End             time.Time
	Status          Status
	Editable        bool
	Total           float64
	Rows            []WeekRow
	RejectionReason string
	// SubmissionBlock explains why the week can not be submitted yet, empty when it can.
	SubmissionBlock string
}

func sortEntries(entries []Entry) {
	slices.SortFunc(entries, func(a, b Entry) int { return a.Id - b.Id })
}
