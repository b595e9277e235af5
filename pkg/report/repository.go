package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/klokku/timesheet/internal/database"
	"github.com/klokku/timesheet/pkg/authz"
	"github.com/klokku/timesheet/pkg/timesheet"
	log "github.com/sirupsen/logrus"
)

type Repository interface {
	Totals(ctx context.Context, r Range, v authz.Visibility) (Totals, error)
	SummaryByProject(ctx context.Context, r Range, v authz.Visibility) ([]ProjectSummary, error)
	StatusBreakdown(ctx context.Context, r Range, v authz.Visibility) ([]StatusCount, error)
	TaskTypeDistribution(ctx context.Context, r Range, v authz.Visibility) ([]TaskTypeShare, error)
	DetailedEntries(ctx context.Context, r Range, v authz.Visibility, filter DetailFilter) ([]DetailedEntry, error)
}

type RepositoryImpl struct {
	db database.Queryer
}

func NewRepository(db database.Queryer) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const reportFrom = ` FROM timesheet_entry e
	JOIN project p ON p.id = e.project_id
	JOIN task t ON t.id = e.task_id`

// where renders the range and visibility conditions. Rejected entries never count towards hours.
func where(r Range, v authz.Visibility, withRejected bool) (string, []any) {
	args := []any{r.From, r.To}
	conditions := []string{"e.week_start BETWEEN $1 AND $2"}
	if !withRejected {
		conditions = append(conditions, "e.status <> 'rejected'")
	}
	scope, scopeArgs := v.SQL("p", "e", len(args)+1)
	conditions = append(conditions, scope)
	args = append(args, scopeArgs...)
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func (repo *RepositoryImpl) Totals(ctx context.Context, r Range, v authz.Visibility) (Totals, error) {
	conditions, args := where(r, v, false)
	query := `SELECT COALESCE(SUM(e.total_hours), 0)::float8,
			COALESCE(SUM(e.total_hours) FILTER (WHERE p.billable), 0)::float8,
			COUNT(DISTINCT e.employee_id), COUNT(*)` + reportFrom + conditions
	var totals Totals
	err := repo.db.QueryRow(ctx, query, args...).
		Scan(&totals.TotalHours, &totals.BillableHours, &totals.Employees, &totals.Entries)
	if err != nil {
		log.Errorf("failed to query report totals: %v", err)
		return Totals{}, err
	}
	if totals.TotalHours > 0 {
		totals.Utilization = totals.BillableHours / totals.TotalHours
	}
	return totals, nil
}

func (repo *RepositoryImpl) SummaryByProject(ctx context.Context, r Range, v authz.Visibility) ([]ProjectSummary, error) {
	conditions, args := where(r, v, false)
	query := `SELECT p.id, p.name, p.project_number, p.client_name, p.billable, p.planned_hours::float8,
			SUM(e.total_hours)::float8, COUNT(DISTINCT e.employee_id)` + reportFrom + conditions + `
		GROUP BY p.id ORDER BY SUM(e.total_hours) DESC, p.name`
	rows, err := repo.db.Query(ctx, query, args...)
	if err != nil {
		log.Errorf("failed to query project summary: %v", err)
		return nil, err
	}
	defer rows.Close()
	result := make([]ProjectSummary, 0, 16)
	for rows.Next() {
		var s ProjectSummary
		if err := rows.Scan(&s.ProjectId, &s.ProjectName, &s.ProjectNumber, &s.Client, &s.Billable, &s.PlannedHours,
			&s.Hours, &s.Employees); err != nil {
			log.Errorf("failed to scan project summary: %v", err)
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func (repo *RepositoryImpl) StatusBreakdown(ctx context.Context, r Range, v authz.Visibility) ([]StatusCount, error) {
	conditions, args := where(r, v, true)
	query := `SELECT e.status, COUNT(*), COALESCE(SUM(e.total_hours), 0)::float8` + reportFrom + conditions + `
		GROUP BY e.status ORDER BY e.status`
	rows, err := repo.db.Query(ctx, query, args...)
	if err != nil {
		log.Errorf("failed to query status breakdown: %v", err)
		return nil, err
	}
	defer rows.Close()
	result := make([]StatusCount, 0, 4)
	for rows.Next() {
		var c StatusCount
		var status string
		if err := rows.Scan(&status, &c.Entries, &c.Hours); err != nil {
			log.Errorf("failed to scan status breakdown: %v", err)
			return nil, err
		}
		c.Status = timesheet.Status(status)
		result = append(result, c)
	}
	return result, rows.Err()
}

func (repo *RepositoryImpl) TaskTypeDistribution(ctx context.Context, r Range, v authz.Visibility) ([]TaskTypeShare, error) {
	conditions, args := where(r, v, false)
	query := `SELECT tt.id, COALESCE(tt.name, '` + unclassified + `'), SUM(e.total_hours)::float8` + reportFrom + `
		LEFT JOIN task_type tt ON tt.id = t.task_type_id` + conditions + `
		GROUP BY tt.id, tt.name ORDER BY SUM(e.total_hours) DESC, 2`
	rows, err := repo.db.Query(ctx, query, args...)
	if err != nil {
		log.Errorf("failed to query task type distribution: %v", err)
		return nil, err
	}
	defer rows.Close()
	result := make([]TaskTypeShare, 0, 8)
	for rows.Next() {
		var s TaskTypeShare
		if err := rows.Scan(&s.TaskTypeId, &s.TaskTypeName, &s.Hours); err != nil {
			log.Errorf("failed to scan task type distribution: %v", err)
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func (repo *RepositoryImpl) DetailedEntries(ctx context.Context, r Range, v authz.Visibility, filter DetailFilter) ([]DetailedEntry, error) {
	conditions, args := where(r, v, true)
	if filter.EmployeeId != nil {
		args = append(args, *filter.EmployeeId)
		conditions += fmt.Sprintf(" AND e.employee_id = $%d", len(args))
	}
	if filter.ProjectId != nil {
		args = append(args, *filter.ProjectId)
		conditions += fmt.Sprintf(" AND e.project_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conditions += fmt.Sprintf(" AND e.status = $%d", len(args))
	}
	query := `SELECT e.id, e.employee_id, u.display_name, COALESCE(u.badge_id, ''), p.id, p.name, p.project_number,
			p.billable, t.id, t.name, COALESCE(tt.name, ''), e.week_start, e.hours, e.status, e.notes` + reportFrom + `
		JOIN users u ON u.id = e.employee_id
		LEFT JOIN task_type tt ON tt.id = t.task_type_id` + conditions + `
		ORDER BY e.week_start, u.display_name, p.name, t.name, e.id`
	rows, err := repo.db.Query(ctx, query, args...)
	if err != nil {
		log.Errorf("failed to query detailed entries: %v", err)
		return nil, err
	}
	defer rows.Close()
	result := make([]DetailedEntry, 0, 64)
	for rows.Next() {
		var d DetailedEntry
		var hours []float64
		var status string
		err := rows.Scan(&d.EntryId, &d.EmployeeId, &d.EmployeeName, &d.BadgeId, &d.ProjectId, &d.ProjectName,
			&d.ProjectNumber, &d.Billable, &d.TaskId, &d.TaskName, &d.TaskTypeName, &d.WeekStart, &hours, &status, &d.Notes)
		if err != nil {
			log.Errorf("failed to scan detailed entry: %v", err)
			return nil, err
		}
		copy(d.Hours[:], hours)
		d.Status = timesheet.Status(status)
		result = append(result, d)
	}
	return result, rows.Err()
}
