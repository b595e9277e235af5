package assignment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/klokku/timesheet/internal/database"
	"github.com/klokku/timesheet/pkg/project"
	log "github.com/sirupsen/logrus"
)

var ErrAssignmentNotFound = errors.New("assignment not found")
var ErrAssignmentInUse = errors.New("assignment is referenced by timesheet entries")
var ErrUnknownReference = errors.New("assignment references a missing employee, project or task")

type Filter struct {
	EmployeeId *int
	ProjectId  *int
}

type Repository interface {
	Create(ctx context.Context, a Assignment) (Assignment, error)
	Get(ctx context.Context, id int) (Assignment, error)
	List(ctx context.Context, filter Filter) ([]Assignment, error)
	Update(ctx context.Context, a Assignment) (Assignment, error)
	Delete(ctx context.Context, id int) error
	// ListAssignable returns views of the employee's assignments overlapping [from, to] whose project is active.
	ListAssignable(ctx context.Context, employeeId int, from, to time.Time) ([]View, error)
	// FindMatching returns the employee's assignments for project and task overlapping [from, to].
	FindMatching(ctx context.Context, employeeId, projectId, taskId int, from, to time.Time) ([]Assignment, error)
}

type RepositoryImpl struct {
	db database.Queryer
}

func NewRepository(db database.Queryer) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const assignmentColumns = `id, employee_id, project_id, task_id, name, planned_hours, start_date, end_date, status, notes`

func scanAssignment(row pgx.Row) (Assignment, error) {
	var a Assignment
	var status string
	err := row.Scan(&a.Id, &a.EmployeeId, &a.ProjectId, &a.TaskId, &a.Name, &a.PlannedHours, &a.StartDate,
		&a.EndDate, &status, &a.Notes)
	a.Status = project.Status(status)
	return a, err
}

func collect(rows pgx.Rows) ([]Assignment, error) {
	defer rows.Close()
	assignments := make([]Assignment, 0, 10)
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			log.Errorf("failed to scan assignment: %v", err)
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

func (r *RepositoryImpl) Create(ctx context.Context, a Assignment) (Assignment, error) {
	query := `INSERT INTO assignment (employee_id, project_id, task_id, name, planned_hours, start_date, end_date, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	err := r.db.QueryRow(ctx, query, a.EmployeeId, a.ProjectId, a.TaskId, a.Name, a.PlannedHours, a.StartDate,
		a.EndDate, string(a.Status), a.Notes).Scan(&a.Id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return Assignment{}, ErrUnknownReference
		}
		log.Errorf("could not create assignment: %v", err)
		return Assignment{}, err
	}
	return a, nil
}

func (r *RepositoryImpl) Get(ctx context.Context, id int) (Assignment, error) {
	a, err := scanAssignment(r.db.QueryRow(ctx, `SELECT `+assignmentColumns+` FROM assignment WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Assignment{}, ErrAssignmentNotFound
	}
	return a, err
}

func (r *RepositoryImpl) List(ctx context.Context, filter Filter) ([]Assignment, error) {
	var conditions []string
	var args []any
	if filter.EmployeeId != nil {
		args = append(args, *filter.EmployeeId)
		conditions = append(conditions, fmt.Sprintf("employee_id = $%d", len(args)))
	}
	if filter.ProjectId != nil {
		args = append(args, *filter.ProjectId)
		conditions = append(conditions, fmt.Sprintf("project_id = $%d", len(args)))
	}
	query := `SELECT ` + assignmentColumns + ` FROM assignment`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY start_date DESC, id`
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		log.Errorf("could not query assignments: %v", err)
		return nil, err
	}
	return collect(rows)
}

func (r *RepositoryImpl) Update(ctx context.Context, a Assignment) (Assignment, error) {
	query := `UPDATE assignment SET employee_id = $1, project_id = $2, task_id = $3, name = $4, planned_hours = $5,
		start_date = $6, end_date = $7, status = $8, notes = $9 WHERE id = $10`
	result, err := r.db.Exec(ctx, query, a.EmployeeId, a.ProjectId, a.TaskId, a.Name, a.PlannedHours, a.StartDate,
		a.EndDate, string(a.Status), a.Notes, a.Id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return Assignment{}, ErrUnknownReference
		}
		return Assignment{}, fmt.Errorf("could not update assignment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return Assignment{}, ErrAssignmentNotFound
	}
	return a, nil
}

func (r *RepositoryImpl) Delete(ctx context.Context, id int) error {
	result, err := r.db.Exec(ctx, `DELETE FROM assignment WHERE id = $1`, id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return ErrAssignmentInUse
		}
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrAssignmentNotFound
	}
	return nil
}

func (r *RepositoryImpl) ListAssignable(ctx context.Context, employeeId int, from, to time.Time) ([]View, error) {
	query := `SELECT a.id, a.employee_id, a.project_id, p.name, p.project_number, p.client_name, p.billable,
			a.task_id, t.name, COALESCE(tt.name, ''), a.name, a.status, a.notes, a.start_date, a.end_date
		FROM assignment a
			JOIN project p ON p.id = a.project_id
			JOIN task t ON t.id = a.task_id
			LEFT JOIN task_type tt ON tt.id = t.task_type_id
		WHERE a.employee_id = $1
			AND p.status = 'active'
			AND a.start_date <= $3
			AND (a.end_date IS NULL OR a.end_date >= $2)
		ORDER BY p.name, t.name, a.id`
	rows, err := r.db.Query(ctx, query, employeeId, from, to)
	if err != nil {
		log.Errorf("could not query assignable work: %v", err)
		return nil, err
	}
	defer rows.Close()
	views := make([]View, 0, 10)
	for rows.Next() {
		var v View
		var status string
		err := rows.Scan(&v.AssignmentId, &v.EmployeeId, &v.ProjectId, &v.ProjectName, &v.ProjectNumber, &v.Client,
			&v.Billable, &v.TaskId, &v.TaskName, &v.TaskTypeName, &v.Name, &status, &v.Notes, &v.StartDate, &v.EndDate)
		if err != nil {
			log.Errorf("failed to scan assignable work: %v", err)
			return nil, err
		}
		v.Status = project.Status(status)
		views = append(views, v)
	}
	return views, rows.Err()
}

func (r *RepositoryImpl) FindMatching(ctx context.Context, employeeId, projectId, taskId int, from, to time.Time) ([]Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignment
		WHERE employee_id = $1 AND project_id = $2 AND task_id = $3
			AND start_date <= $5 AND (end_date IS NULL OR end_date >= $4)
		ORDER BY id`
	rows, err := r.db.Query(ctx, query, employeeId, projectId, taskId, from, to)
	if err != nil {
		log.Errorf("could not query matching assignments: %v", err)
		return nil, err
	}
	return collect(rows)
}
