package approval

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/klokku/timesheet/pkg/authz"
	"github.com/klokku/timesheet/pkg/timesheet"
)

type RepositoryStub struct {
	// txMu serializes transactions the way the row lock of LockSubject does.
	txMu           sync.Mutex
	mu             sync.RWMutex
	subjects       map[int]Subject
	approvals      []Approval
	nextId         int
	transactionErr error
	// Names resolves approver display names for History.
	Names map[int]string
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{subjects: make(map[int]Subject), nextId: 1, Names: make(map[int]string)}
}

func (r *RepositoryStub) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()
	r.mu.Lock()
	originalSubjects := make(map[int]Subject, len(r.subjects))
	for k, v := range r.subjects {
		originalSubjects[k] = v
	}
	originalApprovals := append([]Approval(nil), r.approvals...)
	originalNextId := r.nextId
	r.mu.Unlock()

	err := fn(r)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil || r.transactionErr != nil {
		r.subjects = originalSubjects
		r.approvals = originalApprovals
		r.nextId = originalNextId
		if err != nil {
			return err
		}
		return r.transactionErr
	}
	return nil
}

func (r *RepositoryStub) GetSubject(ctx context.Context, entryId int) (Subject, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.subjects[entryId]
	if !ok {
		return Subject{}, ErrEntryNotFound
	}
	return s, nil
}

func (r *RepositoryStub) LockSubject(ctx context.Context, entryId int) (Subject, error) {
	return r.GetSubject(ctx, entryId)
}

func (r *RepositoryStub) MarkDecided(ctx context.Context, entryId, version int, status timesheet.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subjects[entryId]
	if !ok || s.Status != timesheet.StatusSubmitted || s.Version != version {
		return ErrNotSubmitted
	}
	s.Status = status
	s.Version++
	r.subjects[entryId] = s
	return nil
}

func (r *RepositoryStub) Insert(ctx context.Context, a Approval) (Approval, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.Id = r.nextId
	r.nextId++
	a.DecidedAt = time.Now()
	r.approvals = append(r.approvals, a)
	return a, nil
}

func (r *RepositoryStub) History(ctx context.Context, entryId int) ([]Approval, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Approval, 0)
	for _, a := range r.approvals {
		if a.EntryId == entryId {
			a.ApproverName = r.Names[a.ApproverId]
			result = append(result, a)
		}
	}
	return result, nil
}

func (r *RepositoryStub) ListPending(ctx context.Context, visibility authz.Visibility, filter PendingFilter) ([]PendingEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]PendingEntry, 0)
	for _, s := range r.subjects {
		if s.Status != filter.Status || !visibility.Allows(s.Project, s.EmployeeId) {
			continue
		}
		if filter.EmployeeId != nil && *filter.EmployeeId != s.EmployeeId {
			continue
		}
		if filter.ProjectId != nil && *filter.ProjectId != s.Project.ProjectId {
			continue
		}
		result = append(result, PendingEntry{
			EntryId:      s.EntryId,
			EmployeeId:   s.EmployeeId,
			EmployeeName: s.EmployeeName,
			ProjectId:    s.Project.ProjectId,
			ProjectName:  s.ProjectName,
			Billable:     s.Project.Billable,
			TaskName:     s.TaskName,
			WeekStart:    s.WeekStart,
			Hours:        s.Hours,
			Status:       s.Status,
			Version:      s.Version,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].WeekStart.Equal(result[j].WeekStart) {
			return result[i].WeekStart.After(result[j].WeekStart)
		}
		if result[i].EmployeeName != result[j].EmployeeName {
			return result[i].EmployeeName < result[j].EmployeeName
		}
		return result[i].EntryId < result[j].EntryId
	})
	return result, nil
}

// AddSubject stores s, defaulting its version to 1.
func (r *RepositoryStub) AddSubject(s Subject) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.Version == 0 {
		s.Version = 1
	}
	r.subjects[s.EntryId] = s
}

func (r *RepositoryStub) SetTransactionError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transactionErr = err
}

func (r *RepositoryStub) Approvals() []Approval {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Approval(nil), r.approvals...)
}
