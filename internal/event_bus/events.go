package event_bus

import "time"

const EntryDecidedType EventType = "approval.entry.decided"

// EntryDecided is published after an approval decision has been committed.
type EntryDecided struct {
	EntryId       int
	ApprovalId    int
	EmployeeId    int
	EmployeeName  string
	EmployeeEmail string
	ApproverId    int
	ApproverName  string
	ProjectName   string
	TaskName      string
	WeekStart     time.Time
	TotalHours    float64
	Decision      string
	Comment       string
	DecidedAt     time.Time
}
