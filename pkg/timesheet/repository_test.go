package timesheet

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var entryRowColumns = []string{"id", "employee_id", "project_id", "task_id", "assignment_id", "week_start", "hours",
	"status", "notes", "version", "created_at", "updated_at", "project_name", "task_name"}

func TestRepositoryImpl_ListWeek(t *testing.T) {
	// given
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	week := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	created := time.Date(2024, 1, 9, 10, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows(entryRowColumns).
		AddRow(1, 7, 1, 10, nil, week, []float64{8, 8, 8, 8, 8, 0, 0}, "rejected", "", 2, created, created, "Apollo", "Design").
		AddRow(2, 7, 1, 10, ptr(11), week, []float64{8, 8, 8, 8, 7.5, 0, 0}, "submitted", "fixed", 1, created, created, "Apollo", "Design")
	mock.ExpectQuery("SELECT (.+) FROM timesheet_entry e JOIN project p (.+) WHERE e.employee_id = \\$1 AND e.week_start = \\$2").
		WithArgs(7, week).
		WillReturnRows(rows)

	// when
	entries, err := NewRepository(mock).ListWeek(context.Background(), 7, week)

	// then
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Nil(t, entries[0].AssignmentId)
	assert.Equal(t, StatusRejected, entries[0].Status)
	assert.Equal(t, 11, *entries[1].AssignmentId)
	assert.InDelta(t, 39.5, entries[1].Hours.Total(), 0.0001)
	assert.Equal(t, "Apollo", entries[1].ProjectName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryImpl_Update(t *testing.T) {
	t.Run("should report a version mismatch when no row matches", func(t *testing.T) {
		// given
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		mock.ExpectQuery("UPDATE timesheet_entry").
			WithArgs(1, 10, pgxmock.AnyArg(), pgxmock.AnyArg(), "submitted", "", 5, 3).
			WillReturnError(pgx.ErrNoRows)

		// when
		_, err = NewRepository(mock).Update(context.Background(), Entry{Id: 5, ProjectId: 1, TaskId: 10, Status: StatusSubmitted}, 3)

		// then
		assert.ErrorIs(t, err, ErrVersionMismatch)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("should return the bumped version", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		now := time.Now()
		mock.ExpectQuery("UPDATE timesheet_entry").
			WithArgs(1, 10, pgxmock.AnyArg(), pgxmock.AnyArg(), "draft", "", 5, 3).
			WillReturnRows(pgxmock.NewRows([]string{"version", "updated_at"}).AddRow(4, now))

		updated, err := NewRepository(mock).Update(context.Background(), Entry{Id: 5, ProjectId: 1, TaskId: 10, Status: StatusDraft}, 3)

		require.NoError(t, err)
		assert.Equal(t, 4, updated.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func insertArgs() []any {
	args := make([]any, 8)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func TestRepositoryImpl_Insert(t *testing.T) {
	t.Run("should translate a live key violation", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		mock.ExpectQuery("INSERT INTO timesheet_entry").
			WithArgs(insertArgs()...).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "timesheet_entry_live_key_idx"})

		_, err = NewRepository(mock).Insert(context.Background(), Entry{EmployeeId: 7, ProjectId: 1, TaskId: 10, Status: StatusDraft})

		assert.ErrorIs(t, err, ErrLiveEntryExists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("should translate a missing reference", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		mock.ExpectQuery("INSERT INTO timesheet_entry").
			WithArgs(insertArgs()...).
			WillReturnError(&pgconn.PgError{Code: "23503"})

		_, err = NewRepository(mock).Insert(context.Background(), Entry{EmployeeId: 7, ProjectId: 99, TaskId: 10, Status: StatusDraft})

		assert.ErrorIs(t, err, ErrUnknownReference)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepositoryImpl_WithTransaction(t *testing.T) {
	t.Run("should lock the week and commit", func(t *testing.T) {
		// given
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		week := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
		mock.ExpectBegin()
		mock.ExpectExec("SELECT pg_advisory_xact_lock").
			WithArgs(int32(7), int32(week.Unix()/86400)).
			WillReturnResult(pgxmock.NewResult("SELECT", 1))
		mock.ExpectCommit()

		// when
		err = NewRepository(mock).WithTransaction(context.Background(), func(repo Repository) error {
			return repo.LockWeek(context.Background(), 7, week)
		})

		// then
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("should roll back when the callback fails", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		mock.ExpectBegin()
		mock.ExpectRollback()
		failure := errors.New("boom")

		err = NewRepository(mock).WithTransaction(context.Background(), func(repo Repository) error {
			return failure
		})

		assert.ErrorIs(t, err, failure)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepositoryImpl_LatestRejectionReason(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	week := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT a.comment FROM approval").WithArgs(7, week).WillReturnError(pgx.ErrNoRows)

	reason, err := NewRepository(mock).LatestRejectionReason(context.Background(), 7, week)

	require.NoError(t, err)
	assert.Empty(t, reason)
}

func TestRepositoryImpl_RecordApproval(t *testing.T) {
	// given
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	mock.ExpectExec("INSERT INTO approval \\(entry_id, approver_id, decision, comment\\)").
		WithArgs(5, 1, "rejected", "wrong task").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	// when
	err = NewRepository(mock).RecordApproval(context.Background(), 5, 1, StatusRejected, "wrong task")

	// then
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
