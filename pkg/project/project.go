package project

import (
	"fmt"
	"slices"
	"time"

	"github.com/klokku/timesheet/pkg/authz"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusOnHold    Status = "on_hold"
	StatusCompleted Status = "completed"
)

func ParseStatus(value string) (Status, error) {
	s := Status(value)
	if !slices.Contains([]Status{StatusActive, StatusOnHold, StatusCompleted}, s) {
		return "", fmt.Errorf("unknown project status %q", value)
	}
	return s, nil
}

type Project struct {
	Id           int
	Name         string
	Client       string
	Number       string
	DepartmentId *int
	Billable     bool
	PlannedHours float64
	Status       Status
	StartDate    *time.Time
	EndDate      *time.Time
	// ApproverIds are the project approvers allowed to decide entries of a billable project.
	ApproverIds []int
}

// Scope returns the attributes approval and visibility rules depend on.
func (p Project) Scope() authz.ProjectScope {
	return authz.ProjectScope{
		ProjectId:    p.Id,
		Billable:     p.Billable,
		DepartmentId: p.DepartmentId,
		ApproverIds:  p.ApproverIds,
	}
}
