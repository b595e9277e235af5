package department

import (
	"context"
	"sort"
	"sync"
)

type RepositoryStub struct {
	mu     sync.Mutex
	items  map[int]Department
	nextId int
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{items: map[int]Department{}, nextId: 1}
}

func (r *RepositoryStub) Create(ctx context.Context, d Department) (Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.Name == d.Name {
			return Department{}, ErrDuplicateName
		}
	}
	d.Id = r.nextId
	r.nextId++
	r.items[d.Id] = d
	return d, nil
}

func (r *RepositoryStub) Get(ctx context.Context, id int) (Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.items[id]
	if !ok {
		return Department{}, ErrDepartmentNotFound
	}
	return d, nil
}

func (r *RepositoryStub) List(ctx context.Context) ([]Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]Department, 0, len(r.items))
	for _, d := range r.items {
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *RepositoryStub) Update(ctx context.Context, d Department) (Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[d.Id]; !ok {
		return Department{}, ErrDepartmentNotFound
	}
	r.items[d.Id] = d
	return d, nil
}

func (r *RepositoryStub) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return ErrDepartmentNotFound
	}
	delete(r.items, id)
	return nil
}
