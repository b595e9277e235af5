package approval

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/klokku/timesheet/pkg/authz"
	"github.com/klokku/timesheet/pkg/timesheet"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepositoryImpl_LockSubject(t *testing.T) {
	t.Run("should lock the entry row and scan the project scope", func(t *testing.T) {
		// given
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		week := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
		rows := pgxmock.NewRows([]string{"id", "employee_id", "display_name", "email", "project_id", "billable",
			"department_id", "approvers", "project", "task", "week_start", "hours", "status", "version"}).
			AddRow(77, 3, "Jane Doe", "jane@example.com", 1, true, nil, []int{5, 8}, "Apollo", "Design", week,
				[]float64{8, 8, 8, 8, 8, 0, 0}, "submitted", 2)
		mock.ExpectQuery("SELECT (.+) FROM timesheet_entry e (.+) WHERE e.id = \\$1 FOR UPDATE OF e").
			WithArgs(77).
			WillReturnRows(rows)

		// when
		s, err := NewRepository(mock).LockSubject(context.Background(), 77)

		// then
		require.NoError(t, err)
		assert.Equal(t, authz.ProjectScope{ProjectId: 1, Billable: true, ApproverIds: []int{5, 8}}, s.Project)
		assert.Equal(t, timesheet.StatusSubmitted, s.Status)
		assert.Equal(t, 2, s.Version)
		assert.InDelta(t, 40.0, s.Hours.Total(), 0.0001)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("should report missing entries", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		mock.ExpectQuery("SELECT (.+) FROM timesheet_entry e").WithArgs(78).WillReturnError(pgx.ErrNoRows)

		_, err = NewRepository(mock).LockSubject(context.Background(), 78)

		assert.ErrorIs(t, err, ErrEntryNotFound)
	})
}

func TestRepositoryImpl_MarkDecided(t *testing.T) {
	t.Run("should only move submitted entries at the expected version", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		mock.ExpectExec("UPDATE timesheet_entry (.+) WHERE id = \\$2 AND version = \\$3 AND status = 'submitted'").
			WithArgs("approved", 77, 2).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err = NewRepository(mock).MarkDecided(context.Background(), 77, 2, timesheet.StatusApproved)

		assert.ErrorIs(t, err, ErrNotSubmitted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("should succeed when one row changed", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		mock.ExpectExec("UPDATE timesheet_entry").
			WithArgs("rejected", 77, 2).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err = NewRepository(mock).MarkDecided(context.Background(), 77, 2, timesheet.StatusRejected)

		assert.NoError(t, err)
	})
}

func TestRepositoryImpl_ListPending(t *testing.T) {
	// given
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	employee := 3
	mock.ExpectQuery("WHERE e.status = \\$1 AND \\(p.billable AND EXISTS (.+) pa.user_id = \\$2\\)\\) AND e.employee_id = \\$3").
		WithArgs("submitted", 5, 3).
		WillReturnRows(pgxmock.NewRows([]string{"id", "employee_id", "display_name", "project_id", "project", "billable",
			"task_id", "task", "week_start", "hours", "status", "notes", "version", "updated_at"}))
	visibility := authz.VisibilityFor(authz.Actor{UserId: 5, Role: authz.RoleProjectApprover})

	// when
	entries, err := NewRepository(mock).ListPending(context.Background(), visibility,
		PendingFilter{EmployeeId: &employee, Status: timesheet.StatusSubmitted})

	// then
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}
