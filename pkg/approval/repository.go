package approval

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/klokku/timesheet/internal/database"
	"github.com/klokku/timesheet/pkg/authz"
	"github.com/klokku/timesheet/pkg/timesheet"
	log "github.com/sirupsen/logrus"
)

var ErrEntryNotFound = errors.New("timesheet entry not found")
var ErrNotSubmitted = errors.New("timesheet entry is not awaiting a decision")

type Repository interface {
	WithTransaction(ctx context.Context, fn func(repo Repository) error) error
	GetSubject(ctx context.Context, entryId int) (Subject, error)
	// LockSubject is GetSubject holding a row lock on the entry until the transaction ends.
	LockSubject(ctx context.Context, entryId int) (Subject, error)
	// MarkDecided moves a submitted entry at the given version to status and bumps its version.
	MarkDecided(ctx context.Context, entryId, version int, status timesheet.Status) error
	Insert(ctx context.Context, a Approval) (Approval, error)
	History(ctx context.Context, entryId int) ([]Approval, error)
	ListPending(ctx context.Context, visibility authz.Visibility, filter PendingFilter) ([]PendingEntry, error)
}

type RepositoryImpl struct {
	db database.Pool
	tx pgx.Tx
}

func NewRepository(db database.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) getQueryer() database.Queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *RepositoryImpl) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	if r.tx != nil {
		return fn(r)
	}
	return database.WithTransaction(ctx, r.db, func(tx pgx.Tx) error {
		return fn(&RepositoryImpl{db: r.db, tx: tx})
	})
}

const subjectQuery = `SELECT e.id, e.employee_id, u.display_name, COALESCE(u.email, ''), p.id, p.billable, p.department_id,
		COALESCE((SELECT array_agg(pa.user_id ORDER BY pa.user_id) FROM project_approver pa WHERE pa.project_id = p.id), '{}'),
		p.name, t.name, e.week_start, e.hours, e.status, e.version
	FROM timesheet_entry e
	JOIN users u ON u.id = e.employee_id
	JOIN project p ON p.id = e.project_id
	JOIN task t ON t.id = e.task_id
	WHERE e.id = $1`

func (r *RepositoryImpl) GetSubject(ctx context.Context, entryId int) (Subject, error) {
	return r.subject(ctx, subjectQuery, entryId)
}

func (r *RepositoryImpl) LockSubject(ctx context.Context, entryId int) (Subject, error) {
	return r.subject(ctx, subjectQuery+` FOR UPDATE OF e`, entryId)
}

func (r *RepositoryImpl) subject(ctx context.Context, query string, entryId int) (Subject, error) {
	var s Subject
	var hours []float64
	var status string
	err := r.getQueryer().QueryRow(ctx, query, entryId).Scan(&s.EntryId, &s.EmployeeId, &s.EmployeeName, &s.EmployeeEmail,
		&s.Project.ProjectId, &s.Project.Billable, &s.Project.DepartmentId, &s.Project.ApproverIds,
		&s.ProjectName, &s.TaskName, &s.WeekStart, &hours, &status, &s.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return Subject{}, ErrEntryNotFound
	}
	if err != nil {
		log.Errorf("failed to load entry %d for decision: %v", entryId, err)
		return Subject{}, err
	}
	if len(hours) != timesheet.DaysInWeek {
		return Subject{}, fmt.Errorf("entry %d has %d day values", entryId, len(hours))
	}
	copy(s.Hours[:], hours)
	s.Status = timesheet.Status(status)
	return s, nil
}

func (r *RepositoryImpl) MarkDecided(ctx context.Context, entryId, version int, status timesheet.Status) error {
	result, err := r.getQueryer().Exec(ctx, `UPDATE timesheet_entry
		SET status = $1, version = version + 1, updated_at = now()
		WHERE id = $2 AND version = $3 AND status = 'submitted'`, string(status), entryId, version)
	if err != nil {
		log.Errorf("failed to update entry %d status: %v", entryId, err)
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotSubmitted
	}
	return nil
}

func (r *RepositoryImpl) Insert(ctx context.Context, a Approval) (Approval, error) {
	err := r.getQueryer().QueryRow(ctx,
		`INSERT INTO approval (entry_id, approver_id, decision, comment) VALUES ($1, $2, $3, $4) RETURNING id, decided_at`,
		a.EntryId, a.ApproverId, string(a.Decision), a.Comment).Scan(&a.Id, &a.DecidedAt)
	if err != nil {
		log.Errorf("failed to insert approval: %v", err)
		return Approval{}, err
	}
	return a, nil
}

func (r *RepositoryImpl) History(ctx context.Context, entryId int) ([]Approval, error) {
	rows, err := r.getQueryer().Query(ctx, `SELECT a.id, a.entry_id, a.approver_id, u.display_name, a.decision, a.comment, a.decided_at
		FROM approval a JOIN users u ON u.id = a.approver_id
		WHERE a.entry_id = $1 ORDER BY a.decided_at, a.id`, entryId)
	if err != nil {
		log.Errorf("failed to query approval history: %v", err)
		return nil, err
	}
	defer rows.Close()
	approvals := make([]Approval, 0, 4)
	for rows.Next() {
		var a Approval
		var decision string
		if err := rows.Scan(&a.Id, &a.EntryId, &a.ApproverId, &a.ApproverName, &decision, &a.Comment, &a.DecidedAt); err != nil {
			log.Errorf("failed to scan approval: %v", err)
			return nil, err
		}
		a.Decision = Decision(decision)
		approvals = append(approvals, a)
	}
	return approvals, rows.Err()
}

func (r *RepositoryImpl) ListPending(ctx context.Context, visibility authz.Visibility, filter PendingFilter) ([]PendingEntry, error) {
	args := []any{string(filter.Status)}
	conditions := []string{"e.status = $1"}
	scope, scopeArgs := visibility.SQL("p", "e", len(args)+1)
	conditions = append(conditions, scope)
	args = append(args, scopeArgs...)
	if filter.EmployeeId != nil {
		args = append(args, *filter.EmployeeId)
		conditions = append(conditions, fmt.Sprintf("e.employee_id = $%d", len(args)))
	}
	if filter.ProjectId != nil {
		args = append(args, *filter.ProjectId)
		conditions = append(conditions, fmt.Sprintf("e.project_id = $%d", len(args)))
	}
	query := `SELECT e.id, e.employee_id, u.display_name, p.id, p.name, p.billable, t.id, t.name, e.week_start, e.hours,
			e.status, e.notes, e.version, e.updated_at
		FROM timesheet_entry e
		JOIN users u ON u.id = e.employee_id
		JOIN project p ON p.id = e.project_id
		JOIN task t ON t.id = e.task_id
		WHERE ` + strings.Join(conditions, " AND ") + `
		ORDER BY e.week_start DESC, u.display_name, e.id`

	rows, err := r.getQueryer().Query(ctx, query, args...)
	if err != nil {
		log.Errorf("failed to query pending entries: %v", err)
		return nil, err
	}
	defer rows.Close()
	result := make([]PendingEntry, 0, 16)
	for rows.Next() {
		var pe PendingEntry
		var hours []float64
		var status string
		err := rows.Scan(&pe.EntryId, &pe.EmployeeId, &pe.EmployeeName, &pe.ProjectId, &pe.ProjectName, &pe.Billable,
			&pe.TaskId, &pe.TaskName, &pe.WeekStart, &hours, &status, &pe.Notes, &pe.Version, &pe.UpdatedAt)
		if err != nil {
			log.Errorf("failed to scan pending entry: %v", err)
			return nil, err
		}
		copy(pe.Hours[:], hours)
		pe.Status = timesheet.Status(status)
		result = append(result, pe)
	}
	if err := rows.Err(); err != nil {
		log.Errorf("error iterating over pending entries: %v", err)
		return nil, err
	}
	return result, nil
}
