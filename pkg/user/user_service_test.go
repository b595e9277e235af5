package user

import (
	"context"
	"testing"

	"github.com/klokku/timesheet/internal/apperr"
	"github.com/klokku/timesheet/pkg/authz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var repoStub *StubUserRepository
var service *UserServiceImpl

func setup(t *testing.T) func() {
	repoStub = NewStubUserRepository()
	service = NewUserService(repoStub)
	return func() {
		t.Log("Teardown after test")
	}
}

func adminContext() context.Context {
	return WithUser(context.Background(), User{Id: 100, Username: "admin", Role: authz.RoleAdministrator})
}

func employeeContext() context.Context {
	return WithUser(context.Background(), User{Id: 200, Username: "jane", Role: authz.RoleEmployee})
}

func TestUserServiceImpl_CreateUser(t *testing.T) {
	t.Run("should create employee with generated uid", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// when
		created, err := service.CreateUser(adminContext(), User{Username: " jdoe ", DisplayName: "John Doe"})

		// then
		require.NoError(t, err)
		assert.NotZero(t, created.Id)
		assert.NotEmpty(t, created.Uid)
		assert.Equal(t, "jdoe", created.Username)
		assert.Equal(t, authz.RoleEmployee, created.Role)
	})

	t.Run("should refuse non administrators", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// when
		_, err := service.CreateUser(employeeContext(), User{Username: "jdoe", DisplayName: "John Doe"})

		// then
		assert.True(t, apperr.IsAuthorization(err))
	})

	t.Run("should require department for department managers", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// when
		_, err := service.CreateUser(adminContext(), User{Username: "boss", DisplayName: "Boss", Role: authz.RoleDepartmentManager})

		// then
		assert.True(t, apperr.IsValidation(err))
	})

	t.Run("should reject duplicate usernames", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		_, err := service.CreateUser(adminContext(), User{Username: "jdoe", DisplayName: "John Doe"})
		require.NoError(t, err)

		// when
		_, err = service.CreateUser(adminContext(), User{Username: "jdoe", DisplayName: "Other"})

		// then
		assert.True(t, apperr.IsValidation(err))
	})

	t.Run("should reject unknown role", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		_, err := service.CreateUser(adminContext(), User{Username: "x", DisplayName: "X", Role: "manager"})
		assert.True(t, apperr.IsValidation(err))
	})
}

func TestUserServiceImpl_UpdateUser(t *testing.T) {
	t.Run("should change role and department", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		created, err := service.CreateUser(adminContext(), User{Username: "jdoe", DisplayName: "John Doe"})
		require.NoError(t, err)
		dep := 3

		// when
		created.Role = authz.RoleDepartmentManager
		created.DepartmentId = &dep
		updated, err := service.UpdateUser(adminContext(), created)

		// then
		require.NoError(t, err)
		assert.Equal(t, authz.RoleDepartmentManager, updated.Role)
		assert.Equal(t, 3, *updated.DepartmentId)
	})

	t.Run("should report missing user", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		_, err := service.UpdateUser(adminContext(), User{Id: 999, Username: "x", DisplayName: "X"})
		assert.True(t, apperr.IsNotFound(err))
	})
}

func TestUserServiceImpl_DeleteUser(t *testing.T) {
	t.Run("should refuse deleting users with history", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		created, err := service.CreateUser(adminContext(), User{Username: "jdoe", DisplayName: "John Doe"})
		require.NoError(t, err)
		repoStub.InUse[created.Id] = true

		// when
		err = service.DeleteUser(adminContext(), created.Id)

		// then
		assert.True(t, apperr.IsConflict(err))
		_, err = service.GetUser(adminContext(), created.Id)
		assert.NoError(t, err)
	})

	t.Run("should delete unused user", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		created, err := service.CreateUser(adminContext(), User{Username: "jdoe", DisplayName: "John Doe"})
		require.NoError(t, err)

		// when
		err = service.DeleteUser(adminContext(), created.Id)

		// then
		require.NoError(t, err)
		_, err = service.GetUser(adminContext(), created.Id)
		assert.True(t, apperr.IsNotFound(err))
	})
}

func TestUserServiceImpl_GetAllUsers(t *testing.T) {
	teardown := setup(t)
	defer teardown()
	_, err := service.CreateUser(adminContext(), User{Username: "jdoe", DisplayName: "John Doe"})
	require.NoError(t, err)

	users, err := service.GetAllUsers(adminContext())
	require.NoError(t, err)
	assert.Len(t, users, 1)

	_, err = service.GetAllUsers(employeeContext())
	assert.True(t, apperr.IsAuthorization(err))
}

func TestCurrentUser(t *testing.T) {
	_, err := CurrentUser(context.Background())
	assert.ErrorIs(t, err, ErrNoUser)

	actor, err := CurrentActor(employeeContext())
	require.NoError(t, err)
	assert.Equal(t, authz.Actor{UserId: 200, Role: authz.RoleEmployee}, actor)
}
