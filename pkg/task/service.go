package task

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/klokku/timesheet/internal/apperr"
	"github.com/klokku/timesheet/pkg/authz"
	"github.com/klokku/timesheet/pkg/user"
)

type Service interface {
	CreateTaskType(ctx context.Context, t TaskType) (TaskType, error)
	ListTaskTypes(ctx context.Context) ([]TaskType, error)
	UpdateTaskType(ctx context.Context, t TaskType) (TaskType, error)
	DeleteTaskType(ctx context.Context, id int) error

	CreateTask(ctx context.Context, t Task) (Task, error)
	ListTasks(ctx context.Context) ([]Task, error)
	UpdateTask(ctx context.Context, t Task) (Task, error)
	DeleteTask(ctx context.Context, id int) error
}

type ServiceImpl struct {
	repo Repository
}

func NewService(repo Repository) *ServiceImpl {
	return &ServiceImpl{repo: repo}
}

func (s *ServiceImpl) CreateTaskType(ctx context.Context, t TaskType) (TaskType, error) {
	if err := s.checkTaskType(ctx, &t); err != nil {
		return TaskType{}, err
	}
	created, err := s.repo.CreateTaskType(ctx, t)
	return created, translate("task type", err, 0)
}

func (s *ServiceImpl) ListTaskTypes(ctx context.Context) ([]TaskType, error) {
	types, err := s.repo.ListTaskTypes(ctx)
	return types, apperr.Persistence("list task types", err)
}

func (s *ServiceImpl) UpdateTaskType(ctx context.Context, t TaskType) (TaskType, error) {
	if err := s.checkTaskType(ctx, &t); err != nil {
		return TaskType{}, err
	}
	updated, err := s.repo.UpdateTaskType(ctx, t)
	return updated, translate("task type", err, t.Id)
}

func (s *ServiceImpl) DeleteTaskType(ctx context.Context, id int) error {
	if err := requireAdministrator(ctx); err != nil {
		return err
	}
	return translate("task type", s.repo.DeleteTaskType(ctx, id), id)
}

func (s *ServiceImpl) CreateTask(ctx context.Context, t Task) (Task, error) {
	if err := s.checkTask(ctx, &t); err != nil {
		return Task{}, err
	}
	created, err := s.repo.CreateTask(ctx, t)
	return created, translate("task", err, 0)
}

func (s *ServiceImpl) ListTasks(ctx context.Context) ([]Task, error) {
	tasks, err := s.repo.ListTasks(ctx)
	return tasks, apperr.Persistence("list tasks", err)
}

func (s *ServiceImpl) UpdateTask(ctx context.Context, t Task) (Task, error) {
	if err := s.checkTask(ctx, &t); err != nil {
		return Task{}, err
	}
	updated, err := s.repo.UpdateTask(ctx, t)
	return updated, translate("task", err, t.Id)
}

func (s *ServiceImpl) DeleteTask(ctx context.Context, id int) error {
	if err := requireAdministrator(ctx); err != nil {
		return err
	}
	return translate("task", s.repo.DeleteTask(ctx, id), id)
}

func (s *ServiceImpl) checkTaskType(ctx context.Context, t *TaskType) error {
	if err := requireAdministrator(ctx); err != nil {
		return err
	}
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return apperr.Validation("task type name is required")
	}
	return nil
}

func (s *ServiceImpl) checkTask(ctx context.Context, t *Task) error {
	if err := requireAdministrator(ctx); err != nil {
		return err
	}
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return apperr.Validation("task name is required")
	}
	return nil
}

func translate(resource string, err error, id int) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return apperr.NotFound(resource, id)
	case errors.Is(err, ErrInUse):
		return apperr.Conflict("%s %d is still referenced", resource, id)
	case errors.Is(err, ErrUnknownReference):
		return apperr.Validation("%s references an unknown department or task type", resource)
	}
	return apperr.Persistence(resource, err)
}

func requireAdministrator(ctx context.Context) error {
	actor, err := user.CurrentActor(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	return authz.RequireRole(actor, authz.RoleAdministrator)
}
