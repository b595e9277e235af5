package timesheet

import (
	"context"
	"sort"
	"sync"
	"time"
)

type StubApproval struct {
	EntryId    int
	ApproverId int
	Decision   Status
	Comment    string
}

type RepositoryStub struct {
	mu             sync.RWMutex
	entries        map[int]Entry
	approvals      []StubApproval
	nextId         int
	transactionErr error
	// RejectionReasons is keyed by employee id and week start.
	RejectionReasons map[int]map[time.Time]string
	ProjectNames     map[int]string
	TaskNames        map[int]string
	// BeforeUpdate runs right before an update is applied, letting tests interleave a concurrent writer.
	BeforeUpdate func(e Entry)
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{
		entries:          make(map[int]Entry),
		nextId:           1,
		RejectionReasons: make(map[int]map[time.Time]string),
		ProjectNames:     make(map[int]string),
		TaskNames:        make(map[int]string),
	}
}

func (r *RepositoryStub) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	r.mu.Lock()
	originalEntries := make(map[int]Entry, len(r.entries))
	for k, v := range r.entries {
		originalEntries[k] = v
	}
	originalApprovals := append([]StubApproval(nil), r.approvals...)
	originalNextId := r.nextId
	r.mu.Unlock()

	err := fn(r)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil || r.transactionErr != nil {
		r.entries = originalEntries
		r.approvals = originalApprovals
		r.nextId = originalNextId
		if err != nil {
			return err
		}
		return r.transactionErr
	}
	return nil
}

func (r *RepositoryStub) LockWeek(ctx context.Context, employeeId int, weekStart time.Time) error {
	return nil
}

func (r *RepositoryStub) ListWeek(ctx context.Context, employeeId int, weekStart time.Time) ([]Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Entry, 0)
	for _, e := range r.entries {
		if e.EmployeeId == employeeId && e.WeekStart.Equal(weekStart) {
			result = append(result, r.withNames(e))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Id < result[j].Id })
	return result, nil
}

func (r *RepositoryStub) Get(ctx context.Context, id int) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return Entry{}, ErrEntryNotFound
	}
	return r.withNames(e), nil
}

func (r *RepositoryStub) Insert(ctx context.Context, e Entry) (Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.Status != StatusRejected {
		for _, existing := range r.entries {
			if existing.EmployeeId == e.EmployeeId && existing.Key() == e.Key() &&
				existing.WeekStart.Equal(e.WeekStart) && existing.Status != StatusRejected {
				return Entry{}, ErrLiveEntryExists
			}
		}
	}
	e.Id = r.nextId
	r.nextId++
	e.Version = 1
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	r.entries[e.Id] = e
	return r.withNames(e), nil
}

func (r *RepositoryStub) Update(ctx context.Context, e Entry, expectedVersion int) (Entry, error) {
	if r.BeforeUpdate != nil {
		r.BeforeUpdate(e)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.entries[e.Id]
	if !ok || existing.Version != expectedVersion {
		return Entry{}, ErrVersionMismatch
	}
	e.EmployeeId = existing.EmployeeId
	e.WeekStart = existing.WeekStart
	e.CreatedAt = existing.CreatedAt
	e.Version = existing.Version + 1
	e.UpdatedAt = time.Now()
	r.entries[e.Id] = e
	return r.withNames(e), nil
}

func (r *RepositoryStub) LatestRejectionReason(ctx context.Context, employeeId int, weekStart time.Time) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.RejectionReasons[employeeId][weekStart], nil
}

func (r *RepositoryStub) RecordApproval(ctx context.Context, entryId, approverId int, decision Status, comment string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.approvals = append(r.approvals, StubApproval{EntryId: entryId, ApproverId: approverId, Decision: decision, Comment: comment})
	return nil
}

func (r *RepositoryStub) ListUnassigned(ctx context.Context) ([]Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Entry, 0)
	for _, e := range r.entries {
		if e.AssignmentId == nil {
			result = append(result, r.withNames(e))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Id < result[j].Id })
	return result, nil
}

func (r *RepositoryStub) SetAssignment(ctx context.Context, entryId, assignmentId int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[entryId]
	if !ok || e.AssignmentId != nil {
		return ErrEntryNotFound
	}
	e.AssignmentId = &assignmentId
	r.entries[entryId] = e
	return nil
}

func (r *RepositoryStub) withNames(e Entry) Entry {
	e.ProjectName = r.ProjectNames[e.ProjectId]
	e.TaskName = r.TaskNames[e.TaskId]
	return e
}

// Seed stores e as is, keeping its id, status and version. Version defaults to 1.
func (r *RepositoryStub) Seed(e Entry) Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.Id == 0 {
		e.Id = r.nextId
	}
	if e.Id >= r.nextId {
		r.nextId = e.Id + 1
	}
	if e.Version == 0 {
		e.Version = 1
	}
	r.entries[e.Id] = e
	return e
}

func (r *RepositoryStub) SetTransactionError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transactionErr = err
}

// GetAllEntries returns every stored entry ordered by id.
func (r *RepositoryStub) GetAllEntries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Id < result[j].Id })
	return result
}

func (r *RepositoryStub) Approvals() []StubApproval {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]StubApproval(nil), r.approvals...)
}
