package report

import (
	"context"
	"testing"
	"time"

	"github.com/klokku/timesheet/pkg/authz"
	"github.com/klokku/timesheet/pkg/timesheet"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var mockRange = Range{
	From: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	To:   time.Date(2024, 1, 29, 0, 0, 0, 0, time.UTC),
}

func TestWhere(t *testing.T) {
	t.Run("should append the visibility after the range", func(t *testing.T) {
		approver := 2

		conditions, args := where(mockRange, authz.Visibility{ApproverId: &approver}, false)

		assert.Contains(t, conditions, "e.week_start BETWEEN $1 AND $2")
		assert.Contains(t, conditions, "e.status <> 'rejected'")
		assert.Contains(t, conditions, "pa.user_id = $3")
		assert.Equal(t, []any{mockRange.From, mockRange.To, 2}, args)
	})

	t.Run("should keep rejected entries when asked", func(t *testing.T) {
		conditions, args := where(mockRange, authz.Visibility{Unrestricted: true}, true)

		assert.NotContains(t, conditions, "rejected")
		assert.Len(t, args, 2)
	})
}

func TestRepositoryImpl_Totals(t *testing.T) {
	t.Run("should compute utilization from billable hours", func(t *testing.T) {
		// given
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		employee := 7
		rows := pgxmock.NewRows([]string{"total", "billable", "employees", "entries"}).AddRow(40.0, 30.0, 1, 2)
		mock.ExpectQuery("SELECT (.+) FROM timesheet_entry e").
			WithArgs(mockRange.From, mockRange.To, 7).
			WillReturnRows(rows)

		// when
		totals, err := NewRepository(mock).Totals(context.Background(), mockRange, authz.Visibility{EmployeeId: &employee})

		// then
		require.NoError(t, err)
		assert.Equal(t, Totals{TotalHours: 40, BillableHours: 30, Utilization: 0.75, Employees: 1, Entries: 2}, totals)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepositoryImpl_DetailedEntries(t *testing.T) {
	t.Run("should number filter placeholders after the visibility", func(t *testing.T) {
		// given
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		department := 3
		employee := 7
		week := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
		rows := pgxmock.NewRows([]string{"id", "employee_id", "display_name", "badge_id", "project_id", "project_name",
			"project_number", "billable", "task_id", "task_name", "task_type", "week_start", "hours", "status", "notes"}).
			AddRow(11, 7, "Jane", "", 2, "Internal", "", false, 20, "Meetings", "", week,
				[]float64{1, 2, 3, 4, 5, 0, 0}, "submitted", "")
		mock.ExpectQuery("SELECT (.+) FROM timesheet_entry e (.+) e.employee_id = \\$4 AND e.status = \\$5").
			WithArgs(mockRange.From, mockRange.To, 3, 7, "submitted").
			WillReturnRows(rows)

		// when
		entries, err := NewRepository(mock).DetailedEntries(context.Background(), mockRange,
			authz.Visibility{DepartmentId: &department},
			DetailFilter{EmployeeId: &employee, Status: timesheet.StatusSubmitted})

		// then
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, 15.0, entries[0].Hours.Total())
		assert.Equal(t, timesheet.StatusSubmitted, entries[0].Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
