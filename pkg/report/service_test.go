package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/klokku/timesheet/internal/apperr"
	"github.com/klokku/timesheet/pkg/authz"
	"github.com/klokku/timesheet/pkg/timesheet"
	"github.com/klokku/timesheet/pkg/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var repoStub *RepositoryStub
var service Service

var engineering = 3
var designTypeId = 1

var adminCtx = user.WithUser(context.Background(), user.User{Id: 1, Username: "admin", Role: authz.RoleAdministrator})
var approverCtx = user.WithUser(context.Background(), user.User{Id: 2, Username: "mark", Role: authz.RoleProjectApprover})
var managerCtx = user.WithUser(context.Background(), user.User{Id: 3, Username: "anna", Role: authz.RoleDepartmentManager, DepartmentId: &engineering})
var employeeCtx = user.WithUser(context.Background(), user.User{Id: 7, Username: "jane", Role: authz.RoleEmployee})

var january = Range{
	From: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	To:   time.Date(2024, 1, 29, 0, 0, 0, 0, time.UTC),
}

func setup(t *testing.T) func() {
	repoStub = NewRepositoryStub()
	service = NewService(repoStub)
	seedEntries()
	return func() {}
}

func week(day int) time.Time {
	return time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC)
}

// seedEntries stores a billable project approved by user 2 and an internal engineering project.
func seedEntries() {
	apollo := authz.ProjectScope{ApproverIds: []int{2}}
	internal := authz.ProjectScope{DepartmentId: &engineering}
	repoStub.Add(StubEntry{
		DetailedEntry: DetailedEntry{EntryId: 1, EmployeeId: 7, EmployeeName: "Jane", ProjectId: 1, ProjectName: "Apollo",
			Billable: true, TaskId: 10, TaskName: "Design", TaskTypeName: "Development", WeekStart: week(8),
			Hours: timesheet.Hours{8, 8, 8, 0, 0, 0, 0}, Status: timesheet.StatusApproved},
		Project: apollo, PlannedHours: 100, TaskTypeId: &designTypeId,
	})
	repoStub.Add(StubEntry{
		DetailedEntry: DetailedEntry{EntryId: 2, EmployeeId: 7, EmployeeName: "Jane", ProjectId: 2, ProjectName: "Internal",
			TaskId: 20, TaskName: "Meetings", WeekStart: week(8),
			Hours: timesheet.Hours{0, 0, 0, 8, 8, 0, 0}, Status: timesheet.StatusSubmitted},
		Project: internal,
	})
	repoStub.Add(StubEntry{
		DetailedEntry: DetailedEntry{EntryId: 3, EmployeeId: 8, EmployeeName: "Bob", ProjectId: 1, ProjectName: "Apollo",
			Billable: true, TaskId: 10, TaskName: "Design", TaskTypeName: "Development", WeekStart: week(15),
			Hours: timesheet.Hours{10, 10, 0, 0, 0, 0, 0}, Status: timesheet.StatusRejected},
		Project: apollo, PlannedHours: 100, TaskTypeId: &designTypeId,
	})
	repoStub.Add(StubEntry{
		DetailedEntry: DetailedEntry{EntryId: 4, EmployeeId: 8, EmployeeName: "Bob", ProjectId: 1, ProjectName: "Apollo",
			Billable: true, TaskId: 10, TaskName: "Design", TaskTypeName: "Development", WeekStart: week(15),
			Hours: timesheet.Hours{4, 4, 0, 0, 0, 0, 0}, Status: timesheet.StatusSubmitted},
		Project: apollo, PlannedHours: 100, TaskTypeId: &designTypeId,
	})
	repoStub.Add(StubEntry{
		DetailedEntry: DetailedEntry{EntryId: 5, EmployeeId: 7, EmployeeName: "Jane", ProjectId: 1, ProjectName: "Apollo",
			Billable: true, TaskId: 10, TaskName: "Design", TaskTypeName: "Development", WeekStart: week(1).AddDate(0, 1, 0),
			Hours: timesheet.Hours{8, 0, 0, 0, 0, 0, 0}, Status: timesheet.StatusDraft},
		Project: apollo, PlannedHours: 100, TaskTypeId: &designTypeId,
	})
}

func TestReportService_Range(t *testing.T) {
	t.Run("should require both dates", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		_, err := service.Totals(adminCtx, Range{From: january.From})

		assert.True(t, apperr.IsValidation(err))
	})

	t.Run("should refuse from after to", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		_, err := service.SummaryByProject(adminCtx, Range{From: january.To, To: january.From})

		assert.True(t, apperr.IsValidation(err))
	})

	t.Run("should include a single week range", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		totals, err := service.Totals(adminCtx, Range{From: week(8), To: week(8)})

		require.NoError(t, err)
		assert.Equal(t, 2, totals.Entries)
		assert.Equal(t, 40.0, totals.TotalHours)
	})
}

func TestReportService_Totals(t *testing.T) {
	t.Run("should leave rejected entries out of hours", func(t *testing.T) {
		// given
		teardown := setup(t)
		defer teardown()

		// when
		totals, err := service.Totals(adminCtx, january)

		// then
		require.NoError(t, err)
		assert.Equal(t, 48.0, totals.TotalHours)
		assert.Equal(t, 32.0, totals.BillableHours)
		assert.InDelta(t, 32.0/48.0, totals.Utilization, 1e-9)
		assert.Equal(t, 2, totals.Employees)
		assert.Equal(t, 3, totals.Entries)
	})

	t.Run("should scope an employee to own entries", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		totals, err := service.Totals(employeeCtx, january)

		require.NoError(t, err)
		assert.Equal(t, 40.0, totals.TotalHours)
		assert.Equal(t, 1, totals.Employees)
	})

	t.Run("should scope an approver to billable projects they approve", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		totals, err := service.Totals(approverCtx, january)

		require.NoError(t, err)
		assert.Equal(t, 32.0, totals.TotalHours)
		assert.Equal(t, 1.0, totals.Utilization)
	})

	t.Run("should scope a manager to internal projects of the department", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		totals, err := service.Totals(managerCtx, january)

		require.NoError(t, err)
		assert.Equal(t, 16.0, totals.TotalHours)
		assert.Equal(t, 0.0, totals.Utilization)
	})

	t.Run("should report zero utilization without hours", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		totals, err := service.Totals(adminCtx, Range{From: week(1).AddDate(1, 0, 0), To: week(29).AddDate(1, 0, 0)})

		require.NoError(t, err)
		assert.Equal(t, Totals{}, totals)
	})

	t.Run("should wrap repository failures", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		repoStub.SetError(errors.New("connection refused"))

		_, err := service.Totals(adminCtx, january)

		assert.True(t, apperr.IsPersistence(err))
	})
}

func TestReportService_SummaryByProject(t *testing.T) {
	t.Run("should order projects by hours", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		summary, err := service.SummaryByProject(adminCtx, january)

		require.NoError(t, err)
		require.Len(t, summary, 2)
		assert.Equal(t, "Apollo", summary[0].ProjectName)
		assert.Equal(t, 32.0, summary[0].Hours)
		assert.Equal(t, 100.0, summary[0].PlannedHours)
		assert.Equal(t, 2, summary[0].Employees)
		assert.Equal(t, "Internal", summary[1].ProjectName)
		assert.Equal(t, 16.0, summary[1].Hours)
	})
}

func TestReportService_StatusBreakdown(t *testing.T) {
	t.Run("should count rejected entries", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		counts, err := service.StatusBreakdown(adminCtx, january)

		require.NoError(t, err)
		assert.Equal(t, []StatusCount{
			{Status: timesheet.StatusApproved, Entries: 1, Hours: 24},
			{Status: timesheet.StatusRejected, Entries: 1, Hours: 20},
			{Status: timesheet.StatusSubmitted, Entries: 2, Hours: 24},
		}, counts)
	})
}

func TestReportService_TaskTypeDistribution(t *testing.T) {
	t.Run("should compute shares and group tasks without type", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		shares, err := service.TaskTypeDistribution(adminCtx, january)

		require.NoError(t, err)
		require.Len(t, shares, 2)
		assert.Equal(t, "Development", shares[0].TaskTypeName)
		assert.Equal(t, &designTypeId, shares[0].TaskTypeId)
		assert.InDelta(t, 32.0/48.0, shares[0].Share, 1e-9)
		assert.Equal(t, unclassified, shares[1].TaskTypeName)
		assert.Nil(t, shares[1].TaskTypeId)
		assert.InDelta(t, 16.0/48.0, shares[1].Share, 1e-9)
	})
}

func TestReportService_DetailedEntries(t *testing.T) {
	t.Run("should list entries in week and employee order", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		entries, err := service.DetailedEntries(adminCtx, january, DetailFilter{})

		require.NoError(t, err)
		ids := make([]int, 0, len(entries))
		for _, e := range entries {
			ids = append(ids, e.EntryId)
		}
		assert.Equal(t, []int{1, 2, 3, 4}, ids)
	})

	t.Run("should apply filters within the scope", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		bob := 8

		entries, err := service.DetailedEntries(approverCtx, january, DetailFilter{EmployeeId: &bob, Status: timesheet.StatusSubmitted})

		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, 4, entries[0].EntryId)
	})

	t.Run("should not widen an employee scope by filter", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		bob := 8

		entries, err := service.DetailedEntries(employeeCtx, january, DetailFilter{EmployeeId: &bob})

		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("should refuse unknown status", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		_, err := service.DetailedEntries(adminCtx, january, DetailFilter{Status: "archived"})

		assert.True(t, apperr.IsValidation(err))
	})
}
