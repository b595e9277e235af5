package assignment

import (
	"context"
	"testing"
	"time"

	"github.com/klokku/timesheet/internal/apperr"
	"github.com/klokku/timesheet/pkg/authz"
	"github.com/klokku/timesheet/pkg/project"
	"github.com/klokku/timesheet/pkg/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var repoStub *RepositoryStub
var projectStub *project.RepositoryStub
var service *ServiceImpl

var adminCtx = user.WithUser(context.Background(), user.User{Id: 1, Role: authz.RoleAdministrator})

func setup(t *testing.T) func() {
	repoStub = NewRepositoryStub()
	projectStub = project.NewRepositoryStub()
	service = NewService(repoStub, project.NewService(projectStub))
	return func() {
		t.Log("Teardown after test")
	}
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T {
	return &v
}

func TestServiceImpl_ListAssignableWork(t *testing.T) {
	t.Run("should list overlapping assignments of active projects in display order", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		// given
		repoStub.Projects[1] = ProjectLabel{Name: "Zeus", Active: true}
		repoStub.Projects[2] = ProjectLabel{Name: "Apollo", Active: true, Billable: true}
		repoStub.Projects[3] = ProjectLabel{Name: "Hermes", Active: false}
		repoStub.Tasks[10] = TaskLabel{Name: "Testing"}
		repoStub.Tasks[11] = TaskLabel{Name: "Design", TypeName: "Engineering"}
		mustCreate(t, Assignment{EmployeeId: 7, ProjectId: 1, TaskId: 10, StartDate: date(2024, 1, 1)})
		openEnded := mustCreate(t, Assignment{EmployeeId: 7, ProjectId: 2, TaskId: 10, StartDate: date(2023, 6, 1)})
		endsMidWeek := mustCreate(t, Assignment{EmployeeId: 7, ProjectId: 2, TaskId: 11, StartDate: date(2023, 6, 1), EndDate: ptr(date(2024, 1, 9))})
		mustCreate(t, Assignment{EmployeeId: 7, ProjectId: 2, TaskId: 11, StartDate: date(2023, 1, 1), EndDate: ptr(date(2024, 1, 7))})
		mustCreate(t, Assignment{EmployeeId: 7, ProjectId: 3, TaskId: 10, StartDate: date(2023, 1, 1)})
		mustCreate(t, Assignment{EmployeeId: 8, ProjectId: 1, TaskId: 10, StartDate: date(2023, 1, 1)})
		mustCreate(t, Assignment{EmployeeId: 7, ProjectId: 1, TaskId: 11, StartDate: date(2024, 1, 15)})

		// when
		views, err := service.ListAssignableWork(adminCtx, 7, date(2024, 1, 8), date(2024, 1, 14))

		// then
		require.NoError(t, err)
		require.Len(t, views, 3)
		assert.Equal(t, endsMidWeek.Id, views[0].AssignmentId)
		assert.Equal(t, "Design", views[0].TaskName)
		assert.Equal(t, openEnded.Id, views[1].AssignmentId)
		assert.Equal(t, "Zeus", views[2].ProjectName)
		assert.True(t, views[0].Covers(date(2024, 1, 9)))
		assert.False(t, views[0].Covers(date(2024, 1, 10)))
	})

	t.Run("should reject a window that is not 7 days", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		_, err := service.ListAssignableWork(adminCtx, 7, date(2024, 1, 8), date(2024, 1, 15))

		assert.True(t, apperr.IsValidation(err))
	})
}

func TestServiceImpl_Create(t *testing.T) {
	t.Run("should default name and status", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		repoStub.Projects[1] = ProjectLabel{Name: "Zeus", Active: true}
		repoStub.Tasks[10] = TaskLabel{Name: "Testing"}

		created, err := service.Create(adminCtx, Assignment{EmployeeId: 7, ProjectId: 1, TaskId: 10, StartDate: date(2024, 1, 1)})

		require.NoError(t, err)
		assert.Equal(t, DefaultName, created.Name)
		assert.Equal(t, project.StatusActive, created.Status)
	})

	t.Run("should allow approver scoped to the project", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		p, err := projectStub.Create(context.Background(), project.Project{Name: "Apollo", Billable: true, Status: project.StatusActive})
		require.NoError(t, err)
		require.NoError(t, projectStub.SetApprovers(context.Background(), p.Id, []int{42}))
		repoStub.Projects[p.Id] = ProjectLabel{Name: "Apollo", Active: true, Billable: true}
		repoStub.Tasks[10] = TaskLabel{Name: "Testing"}
		approverCtx := user.WithUser(context.Background(), user.User{Id: 42, Role: authz.RoleProjectApprover})
		outsiderCtx := user.WithUser(context.Background(), user.User{Id: 43, Role: authz.RoleProjectApprover})
		a := Assignment{EmployeeId: 7, ProjectId: p.Id, TaskId: 10, StartDate: date(2024, 1, 1)}

		_, err = service.Create(approverCtx, a)
		require.NoError(t, err)
		_, err = service.Create(outsiderCtx, a)
		assert.True(t, apperr.IsAuthorization(err))
	})

	t.Run("should reject inverted window", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		_, err := service.Create(adminCtx, Assignment{EmployeeId: 7, ProjectId: 1, TaskId: 10,
			StartDate: date(2024, 1, 10), EndDate: ptr(date(2024, 1, 1))})

		assert.True(t, apperr.IsValidation(err))
	})
}

func TestServiceImpl_List(t *testing.T) {
	teardown := setup(t)
	defer teardown()
	repoStub.Projects[1] = ProjectLabel{Name: "Zeus", Active: true}
	repoStub.Tasks[10] = TaskLabel{Name: "Testing"}
	mustCreate(t, Assignment{EmployeeId: 7, ProjectId: 1, TaskId: 10, StartDate: date(2024, 1, 1)})
	mustCreate(t, Assignment{EmployeeId: 8, ProjectId: 1, TaskId: 10, StartDate: date(2024, 1, 1)})
	employeeCtx := user.WithUser(context.Background(), user.User{Id: 8, Role: authz.RoleEmployee})

	// when
	own, err := service.List(employeeCtx, Filter{})

	// then
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, 8, own[0].EmployeeId)
}

func TestOverlaps(t *testing.T) {
	from, to := date(2024, 1, 8), date(2024, 1, 14)
	assert.True(t, Overlaps(date(2024, 1, 14), nil, from, to))
	assert.True(t, Overlaps(date(2023, 1, 1), ptr(date(2024, 1, 8)), from, to))
	assert.False(t, Overlaps(date(2024, 1, 15), nil, from, to))
	assert.False(t, Overlaps(date(2023, 1, 1), ptr(date(2024, 1, 7)), from, to))
}

func mustCreate(t *testing.T, a Assignment) Assignment {
	t.Helper()
	created, err := service.Create(adminCtx, a)
	require.NoError(t, err)
	return created
}
