package department

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
	Create(ctx context.Context, name string) (Department, error)
	List(ctx context.Context) ([]Department, error)
	Rename(ctx context.Context, id int, name string) (Department, error)
	Delete(ctx context.Context, id int) error
}

type ServiceImpl struct {
	repo Repository
}

func NewService(repo Repository) *ServiceImpl {
	return &ServiceImpl{repo: repo}
}

func (s *ServiceImpl) Create(ctx context.Context, name string) (Department, error) {
	if err := requireAdministrator(ctx); err != nil {
		return Department{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Department{}, apperr.Validation("department name is required")
	}
	d, err := s.repo.Create(ctx, Department{Name: name})
	return d, translate(err, 0)
}

func (s *ServiceImpl) List(ctx context.Context) ([]Department, error) {
	departments, err := s.repo.List(ctx)
	return departments, apperr.Persistence("list departments", err)
}

func (s *ServiceImpl) Rename(ctx context.Context, id int, name string) (Department, error) {
	if err := requireAdministrator(ctx); err != nil {
		return Department{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Department{}, apperr.Validation("department name is required")
	}
	d, err := s.repo.Update(ctx, Department{Id: id, Name: name})
	return d, translate(err, id)
}

func (s *ServiceImpl) Delete(ctx context.Context, id int) error {
	if err := requireAdministrator(ctx); err != nil {
		return err
	}
	return translate(s.repo.Delete(ctx, id), id)
}

func translate(err error, id int) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrDepartmentNotFound):
		return apperr.NotFound("department", id)
	case errors.Is(err, ErrDuplicateName):
		return apperr.Validation("department name already exists")
	case errors.Is(err, ErrDepartmentInUse):
		return apperr.Conflict("department %d is still referenced by users, projects or task types", id)
	}
	return apperr.Persistence("department", err)
}

func requireAdministrator(ctx context.Context) error {
	actor, err := user.CurrentActor(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	return authz.RequireRole(actor, authz.RoleAdministrator)
}
