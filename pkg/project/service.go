package project

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/klokku/timesheet/internal/apperr"
	"github.com/klokku/timesheet/pkg/authz"
	"github.com/klokku/timesheet/pkg/user"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	Create(ctx context.Context, p Project) (Project, error)
	Get(ctx context.Context, id int) (Project, error)
	List(ctx context.Context) ([]Project, error)
	Update(ctx context.Context, p Project) (Project, error)
	Delete(ctx context.Context, id int) error
}

type ServiceImpl struct {
	repo Repository
}

func NewService(repo Repository) *ServiceImpl {
	return &ServiceImpl{repo: repo}
}

func (s *ServiceImpl) Create(ctx context.Context, p Project) (Project, error) {
	if err := requireAdministrator(ctx); err != nil {
		return Project{}, err
	}
	if err := validate(&p); err != nil {
		return Project{}, err
	}
	var created Project
	err := s.repo.WithTransaction(ctx, func(repo Repository) error {
		var err error
		created, err = repo.Create(ctx, p)
		if err != nil {
			return err
		}
		if err := repo.SetApprovers(ctx, created.Id, p.ApproverIds); err != nil {
			return err
		}
		created, err = repo.Get(ctx, created.Id)
		return err
	})
	if err != nil {
		return Project{}, translate(err, 0)
	}
	log.Infof("project %d (%s) created", created.Id, created.Name)
	return created, nil
}

func (s *ServiceImpl) Get(ctx context.Context, id int) (Project, error) {
	p, err := s.repo.Get(ctx, id)
	return p, translate(err, id)
}

func (s *ServiceImpl) List(ctx context.Context) ([]Project, error) {
	projects, err := s.repo.List(ctx)
	return projects, apperr.Persistence("list projects", err)
}

func (s *ServiceImpl) Update(ctx context.Context, p Project) (Project, error) {
	if err := requireAdministrator(ctx); err != nil {
		return Project{}, err
	}
	if err := validate(&p); err != nil {
		return Project{}, err
	}
	var updated Project
	err := s.repo.WithTransaction(ctx, func(repo Repository) error {
		if _, err := repo.Update(ctx, p); err != nil {
			return err
		}
		if err := repo.SetApprovers(ctx, p.Id, p.ApproverIds); err != nil {
			return err
		}
		var err error
		updated, err = repo.Get(ctx, p.Id)
		return err
	})
	if err != nil {
		return Project{}, translate(err, p.Id)
	}
	return updated, nil
}

func (s *ServiceImpl) Delete(ctx context.Context, id int) error {
	if err := requireAdministrator(ctx); err != nil {
		return err
	}
	return translate(s.repo.Delete(ctx, id), id)
}

func validate(p *Project) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return apperr.Validation("project name is required")
	}
	if p.Status == "" {
		p.Status = StatusActive
	}
	if _, err := ParseStatus(string(p.Status)); err != nil {
		return apperr.Validation("%s", err.Error())
	}
	if p.PlannedHours < 0 {
		return apperr.Validation("planned hours must not be negative")
	}
	if p.StartDate != nil && p.EndDate != nil && p.EndDate.Before(*p.StartDate) {
		return apperr.Validation("project end date must not be before its start date")
	}
	slices.Sort(p.ApproverIds)
	p.ApproverIds = slices.Compact(p.ApproverIds)
	return nil
}

func translate(err error, id int) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrProjectNotFound):
		return apperr.NotFound("project", id)
	case errors.Is(err, ErrProjectInUse):
		return apperr.Conflict("project %d is referenced by assignments or timesheet entries", id)
	case errors.Is(err, ErrUnknownReference):
		return apperr.Validation("project references an unknown department or approver")
	}
	return apperr.Persistence("project", err)
}

func requireAdministrator(ctx context.Context) error {
	actor, err := user.CurrentActor(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	return authz.RequireRole(actor, authz.RoleAdministrator)
}
