package timesheet

import (
	"context"
	"sync"
	"time"

	"github.com/klokku/timesheet/pkg/assignment"
)

// CatalogStub serves assignable work from memory. Views are filtered by employee and week overlap only.
type CatalogStub struct {
	mu          sync.RWMutex
	views       []assignment.View
	assignments []assignment.Assignment
	err         error
}

func NewCatalogStub() *CatalogStub {
	return &CatalogStub{}
}

func (c *CatalogStub) ListAssignableWork(ctx context.Context, employeeId int, weekStart, weekEnd time.Time) ([]assignment.View, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.err != nil {
		return nil, c.err
	}
	result := make([]assignment.View, 0)
	for _, v := range c.views {
		if v.EmployeeId == employeeId && assignment.Overlaps(v.StartDate, v.EndDate, weekStart, weekEnd) {
			result = append(result, v)
		}
	}
	return result, nil
}

func (c *CatalogStub) FindMatching(ctx context.Context, employeeId, projectId, taskId int, from, to time.Time) ([]assignment.Assignment, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]assignment.Assignment, 0)
	for _, a := range c.assignments {
		if a.EmployeeId == employeeId && a.ProjectId == projectId && a.TaskId == taskId && a.Overlaps(from, to) {
			result = append(result, a)
		}
	}
	return result, nil
}

func (c *CatalogStub) AddView(v assignment.View) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.views = append(c.views, v)
}

func (c *CatalogStub) AddAssignment(a assignment.Assignment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.assignments = append(c.assignments, a)
}

func (c *CatalogStub) SetError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}
