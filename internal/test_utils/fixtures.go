package test_utils

import (
	"context"
	"fmt"
	"time"

	"github.com/klokku/timesheet/internal/database"
)

// Fixtures holds the ids of the reference data SeedFixtures inserts.
type Fixtures struct {
	DepartmentId int
	EmployeeId   int
	ApproverId   int
	ProjectId    int
	TaskTypeId   int
	TaskId       int
	AssignmentId int
}

// SeedFixtures inserts one department with an employee and an approver, a billable project approved by
// that approver, and a task the employee is assigned to from assignmentStart on.
func SeedFixtures(ctx context.Context, db database.Queryer, assignmentStart time.Time) (Fixtures, error) {
	var f Fixtures
	steps := []struct {
		query string
		args  func() []any
		dest  *int
	}{
		{`INSERT INTO department (name) VALUES ('Engineering') RETURNING id`, func() []any { return nil }, &f.DepartmentId},
		{`INSERT INTO users (uid, username, display_name, email, department_id, role)
			VALUES ('uid-employee', 'jane', 'Jane Doe', 'jane@example.com', $1, 'employee') RETURNING id`,
			func() []any { return []any{f.DepartmentId} }, &f.EmployeeId},
		{`INSERT INTO users (uid, username, display_name, email, department_id, role)
			VALUES ('uid-approver', 'mark', 'Mark Approver', 'mark@example.com', $1, 'project_approver') RETURNING id`,
			func() []any { return []any{f.DepartmentId} }, &f.ApproverId},
		{`INSERT INTO project (name, client_name, project_number, department_id, billable, planned_hours)
			VALUES ('Apollo', 'ACME', 'P-001', $1, TRUE, 500) RETURNING id`,
			func() []any { return []any{f.DepartmentId} }, &f.ProjectId},
		{`INSERT INTO task_type (name, department_id) VALUES ('Development', $1) RETURNING id`,
			func() []any { return []any{f.DepartmentId} }, &f.TaskTypeId},
		{`INSERT INTO task (name, task_type_id) VALUES ('Design', $1) RETURNING id`,
			func() []any { return []any{f.TaskTypeId} }, &f.TaskId},
		{`INSERT INTO assignment (employee_id, project_id, task_id, start_date) VALUES ($1, $2, $3, $4) RETURNING id`,
			func() []any { return []any{f.EmployeeId, f.ProjectId, f.TaskId, assignmentStart} }, &f.AssignmentId},
	}
	for _, step := range steps {
		if err := db.QueryRow(ctx, step.query, step.args()...).Scan(step.dest); err != nil {
			return f, fmt.Errorf("failed to seed fixtures: %w", err)
		}
	}
	if _, err := db.Exec(ctx, `INSERT INTO project_approver (project_id, user_id) VALUES ($1, $2)`,
		f.ProjectId, f.ApproverId); err != nil {
		return f, fmt.Errorf("failed to seed project approver: %w", err)
	}
	return f, nil
}
