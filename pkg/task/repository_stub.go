package task

import (
	"context"
	"sort"
	"sync"
)

type RepositoryStub struct {
	mu        sync.Mutex
	nextId    int
	taskTypes map[int]TaskType
	tasks     map[int]Task
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{nextId: 1, taskTypes: map[int]TaskType{}, tasks: map[int]Task{}}
}

func (r *RepositoryStub) CreateTaskType(ctx context.Context, t TaskType) (TaskType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.Id = r.nextId
	r.nextId++
	r.taskTypes[t.Id] = t
	return t, nil
}

func (r *RepositoryStub) ListTaskTypes(ctx context.Context) ([]TaskType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]TaskType, 0, len(r.taskTypes))
	for _, t := range r.taskTypes {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Id < result[j].Id })
	return result, nil
}

func (r *RepositoryStub) UpdateTaskType(ctx context.Context, t TaskType) (TaskType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.taskTypes[t.Id]; !ok {
		return TaskType{}, ErrNotFound
	}
	r.taskTypes[t.Id] = t
	return t, nil
}

func (r *RepositoryStub) DeleteTaskType(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.taskTypes[id]; !ok {
		return ErrNotFound
	}
	for _, t := range r.tasks {
		if t.TaskTypeId != nil && *t.TaskTypeId == id {
			return ErrInUse
		}
	}
	delete(r.taskTypes, id)
	return nil
}

func (r *RepositoryStub) CreateTask(ctx context.Context, t Task) (Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.TaskTypeId != nil {
		if _, ok := r.taskTypes[*t.TaskTypeId]; !ok {
			return Task{}, ErrUnknownReference
		}
	}
	t.Id = r.nextId
	r.nextId++
	r.tasks[t.Id] = t
	return t, nil
}

func (r *RepositoryStub) GetTask(ctx context.Context, id int) (Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return Task{}, ErrNotFound
	}
	return t, nil
}

func (r *RepositoryStub) ListTasks(ctx context.Context) ([]Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Id < result[j].Id })
	return result, nil
}

func (r *RepositoryStub) UpdateTask(ctx context.Context, t Task) (Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[t.Id]; !ok {
		return Task{}, ErrNotFound
	}
	r.tasks[t.Id] = t
	return t, nil
}

func (r *RepositoryStub) DeleteTask(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(r.tasks, id)
	return nil
}
