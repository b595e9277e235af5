package project

import (
	"context"
	"slices"
	"sort"
	"sync"
)

type RepositoryStub struct {
	mu     sync.Mutex
	items  map[int]Project
	nextId int
	InUse  map[int]bool
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{items: map[int]Project{}, nextId: 1, InUse: map[int]bool{}}
}

func (r *RepositoryStub) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	return fn(r)
}

func (r *RepositoryStub) Create(ctx context.Context, p Project) (Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.Id = r.nextId
	r.nextId++
	p.ApproverIds = nil
	r.items[p.Id] = p
	return p, nil
}

func (r *RepositoryStub) Get(ctx context.Context, id int) (Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok {
		return Project{}, ErrProjectNotFound
	}
	p.ApproverIds = slices.Clone(p.ApproverIds)
	return p, nil
}

func (r *RepositoryStub) List(ctx context.Context) ([]Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]Project, 0, len(r.items))
	for _, p := range r.items {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].Id < result[j].Id
	})
	return result, nil
}

func (r *RepositoryStub) Update(ctx context.Context, p Project) (Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.items[p.Id]
	if !ok {
		return Project{}, ErrProjectNotFound
	}
	p.ApproverIds = existing.ApproverIds
	r.items[p.Id] = p
	return p, nil
}

func (r *RepositoryStub) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return ErrProjectNotFound
	}
	if r.InUse[id] {
		return ErrProjectInUse
	}
	delete(r.items, id)
	return nil
}

func (r *RepositoryStub) SetApprovers(ctx context.Context, projectId int, approverIds []int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[projectId]
	if !ok {
		return ErrProjectNotFound
	}
	p.ApproverIds = slices.Clone(approverIds)
	slices.Sort(p.ApproverIds)
	r.items[projectId] = p
	return nil
}
