package report

import (
	"context"
	"fmt"

	"github.com/klokku/timesheet/internal/apperr"
	"github.com/klokku/timesheet/pkg/authz"
	"github.com/klokku/timesheet/pkg/timesheet"
	"github.com/klokku/timesheet/pkg/user"
)

type Service interface {
	Totals(ctx context.Context, r Range) (Totals, error)
	SummaryByProject(ctx context.Context, r Range) ([]ProjectSummary, error)
	StatusBreakdown(ctx context.Context, r Range) ([]StatusCount, error)
	TaskTypeDistribution(ctx context.Context, r Range) ([]TaskTypeShare, error)
	DetailedEntries(ctx context.Context, r Range, filter DetailFilter) ([]DetailedEntry, error)
}

type ServiceImpl struct {
	repo Repository
}

func NewService(repo Repository) *ServiceImpl {
	return &ServiceImpl{repo: repo}
}

// scope validates the range and resolves what the caller may see. Reports use the same rule as approvals.
func (s *ServiceImpl) scope(ctx context.Context, r Range) (authz.Visibility, error) {
	if r.From.IsZero() || r.To.IsZero() {
		return authz.Visibility{}, apperr.Validation("both from and to dates are required")
	}
	if r.From.After(r.To) {
		return authz.Visibility{}, apperr.Validation("from date must not be after to date")
	}
	actor, err := user.CurrentActor(ctx)
	if err != nil {
		return authz.Visibility{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return authz.VisibilityFor(actor), nil
}

func (s *ServiceImpl) Totals(ctx context.Context, r Range) (Totals, error) {
	v, err := s.scope(ctx, r)
	if err != nil {
		return Totals{}, err
	}
	totals, err := s.repo.Totals(ctx, r, v)
	if err != nil {
		return Totals{}, apperr.Persistence("report totals", err)
	}
	return totals, nil
}

func (s *ServiceImpl) SummaryByProject(ctx context.Context, r Range) ([]ProjectSummary, error) {
	v, err := s.scope(ctx, r)
	if err != nil {
		return nil, err
	}
	summary, err := s.repo.SummaryByProject(ctx, r, v)
	if err != nil {
		return nil, apperr.Persistence("report by project", err)
	}
	return summary, nil
}

func (s *ServiceImpl) StatusBreakdown(ctx context.Context, r Range) ([]StatusCount, error) {
	v, err := s.scope(ctx, r)
	if err != nil {
		return nil, err
	}
	counts, err := s.repo.StatusBreakdown(ctx, r, v)
	if err != nil {
		return nil, apperr.Persistence("report by status", err)
	}
	return counts, nil
}

func (s *ServiceImpl) TaskTypeDistribution(ctx context.Context, r Range) ([]TaskTypeShare, error) {
	v, err := s.scope(ctx, r)
	if err != nil {
		return nil, err
	}
	shares, err := s.repo.TaskTypeDistribution(ctx, r, v)
	if err != nil {
		return nil, apperr.Persistence("report by task type", err)
	}
	var total float64
	for _, share := range shares {
		total += share.Hours
	}
	if total > 0 {
		for i := range shares {
			shares[i].Share = shares[i].Hours / total
		}
	}
	return shares, nil
}

func (s *ServiceImpl) DetailedEntries(ctx context.Context, r Range, filter DetailFilter) ([]DetailedEntry, error) {
	v, err := s.scope(ctx, r)
	if err != nil {
		return nil, err
	}
	if filter.Status != "" {
		if _, err := timesheet.ParseStatus(string(filter.Status)); err != nil {
			return nil, apperr.Validation("%s", err.Error())
		}
	}
	entries, err := s.repo.DetailedEntries(ctx, r, v, filter)
	if err != nil {
		return nil, apperr.Persistence("report entries", err)
	}
	return entries, nil
}
