package project

import (
	"context"
	"testing"
	"time"

	"github.com/klokku/timesheet/internal/apperr"
	"github.com/klokku/timesheet/pkg/authz"
	"github.com/klokku/timesheet/pkg/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var repoStub *RepositoryStub
var service *ServiceImpl

func setup(t *testing.T) func() {
	repoStub = NewRepositoryStub()
	service = NewService(repoStub)
	return func() {
		t.Log("Teardown after test")
	}
}

var adminCtx = user.WithUser(context.Background(), user.User{Id: 1, Role: authz.RoleAdministrator})

func TestServiceImpl_Create(t *testing.T) {
	t.Run("should create active project with approvers", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// when
		created, err := service.Create(adminCtx, Project{Name: " Apollo ", Billable: true, ApproverIds: []int{5, 3, 5}})

		// then
		require.NoError(t, err)
		assert.Equal(t, "Apollo", created.Name)
		assert.Equal(t, StatusActive, created.Status)
		assert.Equal(t, []int{3, 5}, created.ApproverIds)
		assert.True(t, authz.CanApprove(authz.Actor{UserId: 3, Role: authz.RoleProjectApprover}, created.Scope()))
	})

	t.Run("should reject inverted date window", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 0, -1)

		_, err := service.Create(adminCtx, Project{Name: "Apollo", StartDate: &start, EndDate: &end})

		assert.True(t, apperr.IsValidation(err))
	})

	t.Run("should refuse approvers", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		ctx := user.WithUser(context.Background(), user.User{Id: 3, Role: authz.RoleProjectApprover})

		_, err := service.Create(ctx, Project{Name: "Apollo"})

		assert.True(t, apperr.IsAuthorization(err))
	})
}

func TestServiceImpl_Delete(t *testing.T) {
	teardown := setup(t)
	defer teardown()
	created, err := service.Create(adminCtx, Project{Name: "Apollo"})
	require.NoError(t, err)
	repoStub.InUse[created.Id] = true

	err = service.Delete(adminCtx, created.Id)

	assert.True(t, apperr.IsConflict(err))
}
