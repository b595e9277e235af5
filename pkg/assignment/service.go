package assignment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/klokku/timesheet/internal/apperr"
	"github.com/klokku/timesheet/pkg/authz"
	"github.com/klokku/timesheet/pkg/project"
	"github.com/klokku/timesheet/pkg/user"
	log "github.com/sirupsen/logrus"
)

// Catalog answers which work an employee may log time against in a week.
type Catalog interface {
	ListAssignableWork(ctx context.Context, employeeId int, weekStart, weekEnd time.Time) ([]View, error)
	FindMatching(ctx context.Context, employeeId, projectId, taskId int, from, to time.Time) ([]Assignment, error)
}

type Service interface {
	Catalog
	Create(ctx context.Context, a Assignment) (Assignment, error)
	Get(ctx context.Context, id int) (Assignment, error)
	List(ctx context.Context, filter Filter) ([]Assignment, error)
	Update(ctx context.Context, a Assignment) (Assignment, error)
	Delete(ctx context.Context, id int) error
}

type ProjectReader interface {
	Get(ctx context.Context, id int) (project.Project, error)
}

type ServiceImpl struct {
	repo     Repository
	projects ProjectReader
}

func NewService(repo Repository, projects ProjectReader) *ServiceImpl {
	return &ServiceImpl{repo: repo, projects: projects}
}

// ListAssignableWork returns the assignments of employeeId overlapping the week whose project is active,
// ordered by project name, task name and assignment id.
func (s *ServiceImpl) ListAssignableWork(ctx context.Context, employeeId int, weekStart, weekEnd time.Time) ([]View, error) {
	if !weekEnd.Equal(weekStart.AddDate(0, 0, 6)) {
		return nil, apperr.Validation("week must span 7 days, got %s to %s",
			weekStart.Format(time.DateOnly), weekEnd.Format(time.DateOnly))
	}
	views, err := s.repo.ListAssignable(ctx, employeeId, weekStart, weekEnd)
	if err != nil {
		return nil, apperr.Persistence("list assignable work", err)
	}
	return views, nil
}

func (s *ServiceImpl) FindMatching(ctx context.Context, employeeId, projectId, taskId int, from, to time.Time) ([]Assignment, error) {
	matches, err := s.repo.FindMatching(ctx, employeeId, projectId, taskId, from, to)
	return matches, apperr.Persistence("find matching assignments", err)
}

func (s *ServiceImpl) Create(ctx context.Context, a Assignment) (Assignment, error) {
	if err := normalize(&a); err != nil {
		return Assignment{}, err
	}
	if err := s.authorize(ctx, a.ProjectId); err != nil {
		return Assignment{}, err
	}
	created, err := s.repo.Create(ctx, a)
	if err != nil {
		return Assignment{}, translate(err, 0)
	}
	log.Infof("assignment %d created for employee %d on project %d task %d", created.Id, a.EmployeeId, a.ProjectId, a.TaskId)
	return created, nil
}

func (s *ServiceImpl) Get(ctx context.Context, id int) (Assignment, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return Assignment{}, translate(err, id)
	}
	actor, err := user.CurrentActor(ctx)
	if err != nil {
		return Assignment{}, fmt.Errorf("failed to get current user: %w", err)
	}
	if actor.UserId == a.EmployeeId {
		return a, nil
	}
	if err := s.authorize(ctx, a.ProjectId); err != nil {
		return Assignment{}, err
	}
	return a, nil
}

// List returns assignments matching filter. Employees only ever see their own.
func (s *ServiceImpl) List(ctx context.Context, filter Filter) ([]Assignment, error) {
	actor, err := user.CurrentActor(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	if !actor.Role.IsApprover() {
		filter.EmployeeId = &actor.UserId
	}
	assignments, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apperr.Persistence("list assignments", err)
	}
	return assignments, nil
}

func (s *ServiceImpl) Update(ctx context.Context, a Assignment) (Assignment, error) {
	if err := normalize(&a); err != nil {
		return Assignment{}, err
	}
	existing, err := s.repo.Get(ctx, a.Id)
	if err != nil {
		return Assignment{}, translate(err, a.Id)
	}
	if err := s.authorize(ctx, existing.ProjectId); err != nil {
		return Assignment{}, err
	}
	if existing.ProjectId != a.ProjectId {
		if err := s.authorize(ctx, a.ProjectId); err != nil {
			return Assignment{}, err
		}
	}
	updated, err := s.repo.Update(ctx, a)
	return updated, translate(err, a.Id)
}

func (s *ServiceImpl) Delete(ctx context.Context, id int) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return translate(err, id)
	}
	if err := s.authorize(ctx, existing.ProjectId); err != nil {
		return err
	}
	return translate(s.repo.Delete(ctx, id), id)
}

// authorize allows administrators and approvers whose scope covers the project.
func (s *ServiceImpl) authorize(ctx context.Context, projectId int) error {
	actor, err := user.CurrentActor(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	if actor.Role == authz.RoleAdministrator {
		return nil
	}
	p, err := s.projects.Get(ctx, projectId)
	if err != nil {
		return err
	}
	return authz.AuthorizeApproval(actor, p.Scope())
}

func normalize(a *Assignment) error {
	a.Name = strings.TrimSpace(a.Name)
	if a.Name == "" {
		a.Name = DefaultName
	}
	if a.Status == "" {
		a.Status = project.StatusActive
	}
	if _, err := project.ParseStatus(string(a.Status)); err != nil {
		return apperr.Validation("%s", err.Error())
	}
	if a.EmployeeId == 0 || a.ProjectId == 0 || a.TaskId == 0 {
		return apperr.Validation("employee, project and task are required")
	}
	if a.StartDate.IsZero() {
		return apperr.Validation("assignment start date is required")
	}
	if a.EndDate != nil && a.EndDate.Before(a.StartDate) {
		return apperr.Validation("assignment end date must not be before its start date")
	}
	if a.PlannedHours < 0 {
		return apperr.Validation("planned hours must not be negative")
	}
	return nil
}

func translate(err error, id int) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrAssignmentNotFound):
		return apperr.NotFound("assignment", id)
	case errors.Is(err, ErrAssignmentInUse):
		return apperr.Conflict("assignment %d is referenced by timesheet entries", id)
	case errors.Is(err, ErrUnknownReference):
		return apperr.Validation("assignment references an unknown employee, project or task")
	}
	return apperr.Persistence("assignment", err)
}
