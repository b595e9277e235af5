package report

import (
	"context"
	"sort"

	"github.com/klokku/timesheet/pkg/authz"
	"github.com/klokku/timesheet/pkg/timesheet"
)

// StubEntry is a stored entry with the project attributes visibility needs.
type StubEntry struct {
	DetailedEntry
	Project      authz.ProjectScope
	PlannedHours float64
	TaskTypeId   *int
}

// RepositoryStub aggregates in memory what RepositoryImpl aggregates in SQL.
type RepositoryStub struct {
	entries []StubEntry
	err     error
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{}
}

func (r *RepositoryStub) Add(e StubEntry) {
	e.Project.ProjectId = e.ProjectId
	e.Project.Billable = e.Billable
	r.entries = append(r.entries, e)
}

func (r *RepositoryStub) SetError(err error) {
	r.err = err
}

func (r *RepositoryStub) visible(rng Range, v authz.Visibility, withRejected bool) []StubEntry {
	result := make([]StubEntry, 0, len(r.entries))
	for _, e := range r.entries {
		if e.WeekStart.Before(rng.From) || e.WeekStart.After(rng.To) {
			continue
		}
		if !withRejected && e.Status == timesheet.StatusRejected {
			continue
		}
		if v.Allows(e.Project, e.EmployeeId) {
			result = append(result, e)
		}
	}
	return result
}

func (r *RepositoryStub) Totals(ctx context.Context, rng Range, v authz.Visibility) (Totals, error) {
	if r.err != nil {
		return Totals{}, r.err
	}
	var totals Totals
	employees := make(map[int]bool)
	for _, e := range r.visible(rng, v, false) {
		hours := e.Hours.Total()
		totals.TotalHours += hours
		if e.Billable {
			totals.BillableHours += hours
		}
		employees[e.EmployeeId] = true
		totals.Entries++
	}
	totals.Employees = len(employees)
	if totals.TotalHours > 0 {
		totals.Utilization = totals.BillableHours / totals.TotalHours
	}
	return totals, nil
}

func (r *RepositoryStub) SummaryByProject(ctx context.Context, rng Range, v authz.Visibility) ([]ProjectSummary, error) {
	if r.err != nil {
		return nil, r.err
	}
	byProject := make(map[int]*ProjectSummary)
	employees := make(map[int]map[int]bool)
	for _, e := range r.visible(rng, v, false) {
		s, ok := byProject[e.ProjectId]
		if !ok {
			s = &ProjectSummary{ProjectId: e.ProjectId, ProjectName: e.ProjectName, ProjectNumber: e.ProjectNumber,
				Billable: e.Billable, PlannedHours: e.PlannedHours}
			byProject[e.ProjectId] = s
			employees[e.ProjectId] = make(map[int]bool)
		}
		s.Hours += e.Hours.Total()
		employees[e.ProjectId][e.EmployeeId] = true
	}
	result := make([]ProjectSummary, 0, len(byProject))
	for id, s := range byProject {
		s.Employees = len(employees[id])
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Hours != result[j].Hours {
			return result[i].Hours > result[j].Hours
		}
		return result[i].ProjectName < result[j].ProjectName
	})
	return result, nil
}

func (r *RepositoryStub) StatusBreakdown(ctx context.Context, rng Range, v authz.Visibility) ([]StatusCount, error) {
	if r.err != nil {
		return nil, r.err
	}
	byStatus := make(map[timesheet.Status]*StatusCount)
	for _, e := range r.visible(rng, v, true) {
		c, ok := byStatus[e.Status]
		if !ok {
			c = &StatusCount{Status: e.Status}
			byStatus[e.Status] = c
		}
		c.Entries++
		c.Hours += e.Hours.Total()
	}
	result := make([]StatusCount, 0, len(byStatus))
	for _, c := range byStatus {
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Status < result[j].Status })
	return result, nil
}

func (r *RepositoryStub) TaskTypeDistribution(ctx context.Context, rng Range, v authz.Visibility) ([]TaskTypeShare, error) {
	if r.err != nil {
		return nil, r.err
	}
	byType := make(map[string]*TaskTypeShare)
	for _, e := range r.visible(rng, v, false) {
		name := e.TaskTypeName
		if name == "" {
			name = unclassified
		}
		s, ok := byType[name]
		if !ok {
			s = &TaskTypeShare{TaskTypeId: e.TaskTypeId, TaskTypeName: name}
			byType[name] = s
		}
		s.Hours += e.Hours.Total()
	}
	result := make([]TaskTypeShare, 0, len(byType))
	for _, s := range byType {
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Hours != result[j].Hours {
			return result[i].Hours > result[j].Hours
		}
		return result[i].TaskTypeName < result[j].TaskTypeName
	})
	return result, nil
}

func (r *RepositoryStub) DetailedEntries(ctx context.Context, rng Range, v authz.Visibility, filter DetailFilter) ([]DetailedEntry, error) {
	if r.err != nil {
		return nil, r.err
	}
	result := make([]DetailedEntry, 0)
	for _, e := range r.visible(rng, v, true) {
		if filter.EmployeeId != nil && *filter.EmployeeId != e.EmployeeId {
			continue
		}
		if filter.ProjectId != nil && *filter.ProjectId != e.ProjectId {
			continue
		}
		if filter.Status != "" && filter.Status != e.Status {
			continue
		}
		result = append(result, e.DetailedEntry)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].WeekStart.Equal(result[j].WeekStart) {
			return result[i].WeekStart.Before(result[j].WeekStart)
		}
		if result[i].EmployeeName != result[j].EmployeeName {
			return result[i].EmployeeName < result[j].EmployeeName
		}
		return result[i].EntryId < result[j].EntryId
	})
	return result, nil
}
