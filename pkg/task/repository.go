package task

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/klokku/timesheet/internal/database"
	log "github.com/sirupsen/logrus"
)

var ErrNotFound = errors.New("task or task type not found")
var ErrInUse = errors.New("task or task type is still referenced")
var ErrUnknownReference = errors.New("unknown department or task type")

type Repository interface {
	CreateTaskType(ctx context.Context, t TaskType) (TaskType, error)
	ListTaskTypes(ctx context.Context) ([]TaskType, error)
	UpdateTaskType(ctx context.Context, t TaskType) (TaskType, error)
	DeleteTaskType(ctx context.Context, id int) error

	CreateTask(ctx context.Context, t Task) (Task, error)
	GetTask(ctx context.Context, id int) (Task, error)
	ListTasks(ctx context.Context) ([]Task, error)
	UpdateTask(ctx context.Context, t Task) (Task, error)
	DeleteTask(ctx context.Context, id int) error
}

type RepositoryImpl struct {
	db database.Pool
}

func NewRepository(db database.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func writeError(err error) error {
	switch {
	case database.IsForeignKeyViolation(err):
		return ErrUnknownReference
	default:
		return err
	}
}

func (r *RepositoryImpl) CreateTaskType(ctx context.Context, t TaskType) (TaskType, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO task_type (name, department_id) VALUES ($1, $2) RETURNING id`,
		t.Name, t.DepartmentId).Scan(&t.Id)
	if err != nil {
		log.Errorf("could not create task type: %v", err)
		return TaskType{}, writeError(err)
	}
	return t, nil
}

func (r *RepositoryImpl) ListTaskTypes(ctx context.Context) ([]TaskType, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, department_id FROM task_type ORDER BY name, id`)
	if err != nil {
		log.Errorf("could not query task types: %v", err)
		return nil, err
	}
	defer rows.Close()
	var types []TaskType
	for rows.Next() {
		var t TaskType
		if err := rows.Scan(&t.Id, &t.Name, &t.DepartmentId); err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

func (r *RepositoryImpl) UpdateTaskType(ctx context.Context, t TaskType) (TaskType, error) {
	result, err := r.db.Exec(ctx, `UPDATE task_type SET name = $1, department_id = $2 WHERE id = $3`,
		t.Name, t.DepartmentId, t.Id)
	if err != nil {
		return TaskType{}, writeError(err)
	}
	if result.RowsAffected() == 0 {
		return TaskType{}, ErrNotFound
	}
	return t, nil
}

func (r *RepositoryImpl) DeleteTaskType(ctx context.Context, id int) error {
	return r.delete(ctx, `DELETE FROM task_type WHERE id = $1`, id)
}

func (r *RepositoryImpl) CreateTask(ctx context.Context, t Task) (Task, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO task (name, task_type_id, description) VALUES ($1, $2, $3) RETURNING id`,
		t.Name, t.TaskTypeId, t.Description).Scan(&t.Id)
	if err != nil {
		log.Errorf("could not create task: %v", err)
		return Task{}, writeError(err)
	}
	return t, nil
}

func (r *RepositoryImpl) GetTask(ctx context.Context, id int) (Task, error) {
	var t Task
	err := r.db.QueryRow(ctx, `SELECT id, name, task_type_id, description FROM task WHERE id = $1`, id).
		Scan(&t.Id, &t.Name, &t.TaskTypeId, &t.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return Task{}, ErrNotFound
	}
	return t, err
}

func (r *RepositoryImpl) ListTasks(ctx context.Context) ([]Task, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, task_type_id, description FROM task ORDER BY name, id`)
	if err != nil {
		log.Errorf("could not query tasks: %v", err)
		return nil, err
	}
	defer rows.Close()
	var tasks []Task
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.Id, &t.Name, &t.TaskTypeId, &t.Description); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *RepositoryImpl) UpdateTask(ctx context.Context, t Task) (Task, error) {
	result, err := r.db.Exec(ctx, `UPDATE task SET name = $1, task_type_id = $2, description = $3 WHERE id = $4`,
		t.Name, t.TaskTypeId, t.Description, t.Id)
	if err != nil {
		return Task{}, writeError(err)
	}
	if result.RowsAffected() == 0 {
		return Task{}, ErrNotFound
	}
	return t, nil
}

func (r *RepositoryImpl) DeleteTask(ctx context.Context, id int) error {
	return r.delete(ctx, `DELETE FROM task WHERE id = $1`, id)
}

func (r *RepositoryImpl) delete(ctx context.Context, query string, id int) error {
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return ErrInUse
		}
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
