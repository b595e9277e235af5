package task

import (
	"context"
	"testing"

	"github.com/klokku/timesheet/internal/apperr"
	"github.com/klokku/timesheet/pkg/authz"
	"github.com/klokku/timesheet/pkg/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var adminCtx = user.WithUser(context.Background(), user.User{Id: 1, Role: authz.RoleAdministrator})

func TestServiceImpl_Tasks(t *testing.T) {
	t.Run("should create task of a global task type", func(t *testing.T) {
		// given
		service := NewService(NewRepositoryStub())
		taskType, err := service.CreateTaskType(adminCtx, TaskType{Name: "Development"})
		require.NoError(t, err)

		// when
		created, err := service.CreateTask(adminCtx, Task{Name: " Code review ", TaskTypeId: &taskType.Id})

		// then
		require.NoError(t, err)
		assert.Equal(t, "Code review", created.Name)
		assert.Nil(t, taskType.DepartmentId)
	})

	t.Run("should refuse unknown task type", func(t *testing.T) {
		service := NewService(NewRepositoryStub())
		missing := 99
		_, err := service.CreateTask(adminCtx, Task{Name: "Review", TaskTypeId: &missing})
		assert.True(t, apperr.IsValidation(err))
	})

	t.Run("should not delete task type used by tasks", func(t *testing.T) {
		service := NewService(NewRepositoryStub())
		taskType, err := service.CreateTaskType(adminCtx, TaskType{Name: "Development"})
		require.NoError(t, err)
		_, err = service.CreateTask(adminCtx, Task{Name: "Review", TaskTypeId: &taskType.Id})
		require.NoError(t, err)

		err = service.DeleteTaskType(adminCtx, taskType.Id)

		assert.True(t, apperr.IsConflict(err))
	})

	t.Run("should refuse employees", func(t *testing.T) {
		service := NewService(NewRepositoryStub())
		ctx := user.WithUser(context.Background(), user.User{Id: 2, Role: authz.RoleEmployee})
		_, err := service.CreateTask(ctx, Task{Name: "Review"})
		assert.True(t, apperr.IsAuthorization(err))
	})
}
