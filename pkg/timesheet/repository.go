package timesheet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/klokku/timesheet/internal/database"
	log "github.com/sirupsen/logrus"
)

var ErrEntryNotFound = errors.New("timesheet entry not found")
var ErrVersionMismatch = errors.New("timesheet entry was changed concurrently")
var ErrLiveEntryExists = errors.New("a live entry already exists for this project task and week")
var ErrUnknownReference = errors.New("entry references a missing employee, project, task or assignment")

type Repository interface {
	WithTransaction(ctx context.Context, fn func(repo Repository) error) error
	// LockWeek serializes writers of one employee week until the transaction ends.
	LockWeek(ctx context.Context, employeeId int, weekStart time.Time) error
	// ListWeek returns all entries of the employee week, rejected history included, in ascending id order.
	ListWeek(ctx context.Context, employeeId int, weekStart time.Time) ([]Entry, error)
	Get(ctx context.Context, id int) (Entry, error)
	Insert(ctx context.Context, e Entry) (Entry, error)
	// Update overwrites the entry when its version still equals expectedVersion and bumps the version.
	Update(ctx context.Context, e Entry, expectedVersion int) (Entry, error)
	LatestRejectionReason(ctx context.Context, employeeId int, weekStart time.Time) (string, error)
	RecordApproval(ctx context.Context, entryId, approverId int, decision Status, comment string) error
	ListUnassigned(ctx context.Context) ([]Entry, error)
	SetAssignment(ctx context.Context, entryId, assignmentId int) error
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

func (r *RepositoryImpl) LockWeek(ctx context.Context, employeeId int, weekStart time.Time) error {
	day := int32(weekStart.Unix() / 86400)
	_, err := r.getQueryer().Exec(ctx, `SELECT pg_advisory_xact_lock($1, $2)`, int32(employeeId), day)
	if err != nil {
		log.Errorf("failed to lock week %s of employee %d: %v", weekStart.Format(time.DateOnly), employeeId, err)
	}
	return err
}

const entryColumns = `e.id, e.employee_id, e.project_id, e.task_id, e.assignment_id, e.week_start, e.hours, e.status,
	e.notes, e.version, e.created_at, e.updated_at, p.name, t.name`

const entryFrom = ` FROM timesheet_entry e JOIN project p ON p.id = e.project_id JOIN task t ON t.id = e.task_id`

func scanEntry(row pgx.Row) (Entry, error) {
	var e Entry
	var hours []float64
	var status string
	err := row.Scan(&e.Id, &e.EmployeeId, &e.ProjectId, &e.TaskId, &e.AssignmentId, &e.WeekStart, &hours, &status,
		&e.Notes, &e.Version, &e.CreatedAt, &e.UpdatedAt, &e.ProjectName, &e.TaskName)
	if err != nil {
		return Entry{}, err
	}
	if len(hours) != DaysInWeek {
		return Entry{}, fmt.Errorf("entry %d has %d day values", e.Id, len(hours))
	}
	copy(e.Hours[:], hours)
	e.Status = Status(status)
	return e, nil
}

func collectEntries(rows pgx.Rows) ([]Entry, error) {
	defer rows.Close()
	entries := make([]Entry, 0, 8)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			log.Errorf("failed to scan timesheet entry: %v", err)
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		log.Errorf("error iterating over timesheet entries: %v", err)
		return nil, err
	}
	return entries, nil
}

func (r *RepositoryImpl) ListWeek(ctx context.Context, employeeId int, weekStart time.Time) ([]Entry, error) {
	query := `SELECT ` + entryColumns + entryFrom + ` WHERE e.employee_id = $1 AND e.week_start = $2 ORDER BY e.id`
	rows, err := r.getQueryer().Query(ctx, query, employeeId, weekStart)
	if err != nil {
		log.Errorf("failed to query week entries: %v", err)
		return nil, err
	}
	return collectEntries(rows)
}

func (r *RepositoryImpl) Get(ctx context.Context, id int) (Entry, error) {
	e, err := scanEntry(r.getQueryer().QueryRow(ctx, `SELECT `+entryColumns+entryFrom+` WHERE e.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrEntryNotFound
	}
	return e, err
}

func (r *RepositoryImpl) Insert(ctx context.Context, e Entry) (Entry, error) {
	query := `INSERT INTO timesheet_entry (employee_id, project_id, task_id, assignment_id, week_start, hours, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, version, created_at, updated_at`
	err := r.getQueryer().QueryRow(ctx, query, e.EmployeeId, e.ProjectId, e.TaskId, e.AssignmentId, e.WeekStart,
		e.Hours[:], string(e.Status), e.Notes).Scan(&e.Id, &e.Version, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return Entry{}, writeError("insert", err)
	}
	return e, nil
}

func (r *RepositoryImpl) Update(ctx context.Context, e Entry, expectedVersion int) (Entry, error) {
	query := `UPDATE timesheet_entry
		SET project_id = $1, task_id = $2, assignment_id = $3, hours = $4, status = $5, notes = $6,
			version = version + 1, updated_at = now()
		WHERE id = $7 AND version = $8
		RETURNING version, updated_at`
	err := r.getQueryer().QueryRow(ctx, query, e.ProjectId, e.TaskId, e.AssignmentId, e.Hours[:], string(e.Status),
		e.Notes, e.Id, expectedVersion).Scan(&e.Version, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrVersionMismatch
	}
	if err != nil {
		return Entry{}, writeError("update", err)
	}
	return e, nil
}

func writeError(op string, err error) error {
	switch {
	case database.IsUniqueViolation(err):
		return ErrLiveEntryExists
	case database.IsForeignKeyViolation(err):
		return ErrUnknownReference
	}
	log.Errorf("failed to %s timesheet entry: %v", op, err)
	return err
}

func (r *RepositoryImpl) LatestRejectionReason(ctx context.Context, employeeId int, weekStart time.Time) (string, error) {
	query := `SELECT a.comment FROM approval a JOIN timesheet_entry e ON e.id = a.entry_id
		WHERE e.employee_id = $1 AND e.week_start = $2 AND a.decision = 'rejected'
		ORDER BY a.decided_at DESC, a.id DESC LIMIT 1`
	var reason string
	err := r.getQueryer().QueryRow(ctx, query, employeeId, weekStart).Scan(&reason)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return reason, err
}

func (r *RepositoryImpl) RecordApproval(ctx context.Context, entryId, approverId int, decision Status, comment string) error {
	_, err := r.getQueryer().Exec(ctx,
		`INSERT INTO approval (entry_id, approver_id, decision, comment) VALUES ($1, $2, $3, $4)`,
		entryId, approverId, string(decision), comment)
	return err
}

func (r *RepositoryImpl) ListUnassigned(ctx context.Context) ([]Entry, error) {
	rows, err := r.getQueryer().Query(ctx, `SELECT `+entryColumns+entryFrom+` WHERE e.assignment_id IS NULL ORDER BY e.id`)
	if err != nil {
		log.Errorf("failed to query unassigned entries: %v", err)
		return nil, err
	}
	return collectEntries(rows)
}

func (r *RepositoryImpl) SetAssignment(ctx context.Context, entryId, assignmentId int) error {
	result, err := r.getQueryer().Exec(ctx,
		`UPDATE timesheet_entry SET assignment_id = $1 WHERE id = $2 AND assignment_id IS NULL`, assignmentId, entryId)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}
