package approval

import (
	"fmt"
	"strings"
	"time"

	"github.com/klokku/timesheet/pkg/authz"
	"github.com/klokku/timesheet/pkg/timesheet"
)

type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

func ParseDecision(value string) (Decision, error) {
	switch d := Decision(strings.ToLower(strings.TrimSpace(value))); d {
	case DecisionApproved, DecisionRejected:
		return d, nil
	default:
		return "", fmt.Errorf("decision must be approved or rejected, got %q", value)
	}
}

// Status is the entry status a decision moves the entry to.
func (d Decision) Status() timesheet.Status {
	if d == DecisionRejected {
		return timesheet.StatusRejected
	}
	return timesheet.StatusApproved
}

type Approval struct {
	Id           int
	EntryId      int
	ApproverId   int
	ApproverName string
	Decision     Decision
	Comment      string
	DecidedAt    time.Time
}

// Subject is an entry under decision with everything authorization and the notification need.
type Subject struct {
	EntryId       int
	EmployeeId    int
	EmployeeName  string
	EmployeeEmail string
	Project       authz.ProjectScope
	ProjectName   string
	TaskName      string
	WeekStart     time.Time
	Hours         timesheet.Hours
	Status        timesheet.Status
	Version       int
}

type PendingEntry struct {
	EntryId      int
	EmployeeId   int
	EmployeeName string
	ProjectId    int
	ProjectName  string
	Billable     bool
	TaskId       int
	TaskName     string
	WeekStart    time.Time
	Hours        timesheet.Hours
	Status       timesheet.Status
	Notes        string
	Version      int
	UpdatedAt    time.Time
}

type PendingFilter struct {
	EmployeeId *int
	ProjectId  *int
	// Status defaults to submitted.
	Status timesheet.Status
}
