package project

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/klokku/timesheet/internal/database"
	log "github.com/sirupsen/logrus"
)

var ErrProjectNotFound = errors.New("project not found")
var ErrProjectInUse = errors.New("project is referenced by assignments or entries")
var ErrUnknownReference = errors.New("project references a missing department or approver")

type Repository interface {
	WithTransaction(ctx context.Context, fn func(repo Repository) error) error
	Create(ctx context.Context, p Project) (Project, error)
	Get(ctx context.Context, id int) (Project, error)
	List(ctx context.Context) ([]Project, error)
	Update(ctx context.Context, p Project) (Project, error)
	Delete(ctx context.Context, id int) error
	SetApprovers(ctx context.Context, projectId int, approverIds []int) error
}

type RepositoryImpl struct {
	db database.Pool
	tx pgx.Tx
}

func NewRepository(db database.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	return database.WithTransaction(ctx, r.db, func(tx pgx.Tx) error {
		return fn(&RepositoryImpl{db: r.db, tx: tx})
	})
}

func (r *RepositoryImpl) getQueryer() database.Queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

const projectColumns = `p.id, p.name, p.client_name, p.project_number, p.department_id, p.billable, p.planned_hours,
	p.status, p.start_date, p.end_date,
	COALESCE((SELECT array_agg(pa.user_id ORDER BY pa.user_id) FROM project_approver pa WHERE pa.project_id = p.id), '{}')`

func scanProject(row pgx.Row) (Project, error) {
	var p Project
	var status string
	err := row.Scan(&p.Id, &p.Name, &p.Client, &p.Number, &p.DepartmentId, &p.Billable, &p.PlannedHours,
		&status, &p.StartDate, &p.EndDate, &p.ApproverIds)
	p.Status = Status(status)
	return p, err
}

func (r *RepositoryImpl) Create(ctx context.Context, p Project) (Project, error) {
	query := `INSERT INTO project (name, client_name, project_number, department_id, billable, planned_hours, status,
		start_date, end_date) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	err := r.getQueryer().QueryRow(ctx, query, p.Name, p.Client, p.Number, p.DepartmentId, p.Billable,
		p.PlannedHours, string(p.Status), p.StartDate, p.EndDate).Scan(&p.Id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return Project{}, ErrUnknownReference
		}
		log.Errorf("could not create project: %v", err)
		return Project{}, err
	}
	return p, nil
}

func (r *RepositoryImpl) Get(ctx context.Context, id int) (Project, error) {
	p, err := scanProject(r.getQueryer().QueryRow(ctx, `SELECT `+projectColumns+` FROM project p WHERE p.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Project{}, ErrProjectNotFound
	} else if err != nil {
		log.Errorf("could not get project %d: %v", id, err)
		return Project{}, err
	}
	return p, nil
}

func (r *RepositoryImpl) List(ctx context.Context) ([]Project, error) {
	rows, err := r.getQueryer().Query(ctx, `SELECT `+projectColumns+` FROM project p ORDER BY p.name, p.id`)
	if err != nil {
		log.Errorf("could not query projects: %v", err)
		return nil, err
	}
	defer rows.Close()
	projects := make([]Project, 0, 10)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (r *RepositoryImpl) Update(ctx context.Context, p Project) (Project, error) {
	query := `UPDATE project SET name = $1, client_name = $2, project_number = $3, department_id = $4, billable = $5,
		planned_hours = $6, status = $7, start_date = $8, end_date = $9 WHERE id = $10`
	result, err := r.getQueryer().Exec(ctx, query, p.Name, p.Client, p.Number, p.DepartmentId, p.Billable,
		p.PlannedHours, string(p.Status), p.StartDate, p.EndDate, p.Id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return Project{}, ErrUnknownReference
		}
		return Project{}, fmt.Errorf("could not update project: %w", err)
	}
	if result.RowsAffected() == 0 {
		return Project{}, ErrProjectNotFound
	}
	return p, nil
}

func (r *RepositoryImpl) Delete(ctx context.Context, id int) error {
	result, err := r.getQueryer().Exec(ctx, `DELETE FROM project WHERE id = $1`, id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return ErrProjectInUse
		}
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrProjectNotFound
	}
	return nil
}

func (r *RepositoryImpl) SetApprovers(ctx context.Context, projectId int, approverIds []int) error {
	q := r.getQueryer()
	if _, err := q.Exec(ctx, `DELETE FROM project_approver WHERE project_id = $1`, projectId); err != nil {
		return err
	}
	for _, approverId := range approverIds {
		_, err := q.Exec(ctx, `INSERT INTO project_approver (project_id, user_id) VALUES ($1, $2)`, projectId, approverId)
		if err != nil {
			if database.IsForeignKeyViolation(err) {
				return ErrUnknownReference
			}
			return err
		}
	}
	return nil
}
