package assignment

import (
	"context"
	"sort"
	"sync"
	"time"
)

// ProjectLabel and TaskLabel stand in for the joined project and task rows.
type ProjectLabel struct {
	Name     string
	Billable bool
	Active   bool
}

type TaskLabel struct {
	Name     string
	TypeName string
}

type RepositoryStub struct {
	mu       sync.Mutex
	nextId   int
	items    map[int]Assignment
	Projects map[int]ProjectLabel
	Tasks    map[int]TaskLabel
	InUse    map[int]bool
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{
		nextId:   1,
		items:    map[int]Assignment{},
		Projects: map[int]ProjectLabel{},
		Tasks:    map[int]TaskLabel{},
		InUse:    map[int]bool{},
	}
}

func (r *RepositoryStub) Create(ctx context.Context, a Assignment) (Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Projects[a.ProjectId]; !ok {
		return Assignment{}, ErrUnknownReference
	}
	if _, ok := r.Tasks[a.TaskId]; !ok {
		return Assignment{}, ErrUnknownReference
	}
	a.Id = r.nextId
	r.nextId++
	r.items[a.Id] = a
	return a, nil
}

func (r *RepositoryStub) Get(ctx context.Context, id int) (Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[id]
	if !ok {
		return Assignment{}, ErrAssignmentNotFound
	}
	return a, nil
}

func (r *RepositoryStub) List(ctx context.Context, filter Filter) ([]Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]Assignment, 0)
	for _, a := range r.items {
		if filter.EmployeeId != nil && a.EmployeeId != *filter.EmployeeId {
			continue
		}
		if filter.ProjectId != nil && a.ProjectId != *filter.ProjectId {
			continue
		}
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Id < result[j].Id })
	return result, nil
}

func (r *RepositoryStub) Update(ctx context.Context, a Assignment) (Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[a.Id]; !ok {
		return Assignment{}, ErrAssignmentNotFound
	}
	r.items[a.Id] = a
	return a, nil
}

func (r *RepositoryStub) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return ErrAssignmentNotFound
	}
	if r.InUse[id] {
		return ErrAssignmentInUse
	}
	delete(r.items, id)
	return nil
}

func (r *RepositoryStub) ListAssignable(ctx context.Context, employeeId int, from, to time.Time) ([]View, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	views := make([]View, 0)
	for _, a := range r.items {
		p := r.Projects[a.ProjectId]
		if a.EmployeeId != employeeId || !p.Active || !a.Overlaps(from, to) {
			continue
		}
		t := r.Tasks[a.TaskId]
		views = append(views, View{
			AssignmentId: a.Id,
			EmployeeId:   a.EmployeeId,
			ProjectId:    a.ProjectId,
			ProjectName:  p.Name,
			Billable:     p.Billable,
			TaskId:       a.TaskId,
			TaskName:     t.Name,
			TaskTypeName: t.TypeName,
			Name:         a.Name,
			Status:       a.Status,
			Notes:        a.Notes,
			StartDate:    a.StartDate,
			EndDate:      a.EndDate,
		})
	}
	sortViews(views)
	return views, nil
}

func (r *RepositoryStub) FindMatching(ctx context.Context, employeeId, projectId, taskId int, from, to time.Time) ([]Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]Assignment, 0)
	for _, a := range r.items {
		if a.EmployeeId == employeeId && a.ProjectId == projectId && a.TaskId == taskId && a.Overlaps(from, to) {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Id < result[j].Id })
	return result, nil
}

func sortViews(views []View) {
	sort.Slice(views, func(i, j int) bool {
		if views[i].ProjectName != views[j].ProjectName {
			return views[i].ProjectName < views[j].ProjectName
		}
		if views[i].TaskName != views[j].TaskName {
			return views[i].TaskName < views[j].TaskName
		}
		return views[i].AssignmentId < views[j].AssignmentId
	})
}
