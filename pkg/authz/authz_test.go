package authz

import (
	"testing"

	"github.com/klokku/timesheet/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int { return &i }

func TestCanApprove(t *testing.T) {
	billable := ProjectScope{ProjectId: 1, Billable: true, DepartmentId: intPtr(10), ApproverIds: []int{5}}
	internal := ProjectScope{ProjectId: 2, Billable: false, DepartmentId: intPtr(10)}

	tests := []struct {
		name    string
		actor   Actor
		project ProjectScope
		want    bool
	}{
		{"administrator on billable", Actor{UserId: 1, Role: RoleAdministrator}, billable, true},
		{"administrator on internal", Actor{UserId: 1, Role: RoleAdministrator}, internal, true},
		{"listed approver on billable", Actor{UserId: 5, Role: RoleProjectApprover}, billable, true},
		{"unlisted approver on billable", Actor{UserId: 6, Role: RoleProjectApprover}, billable, false},
		{"approver on internal", Actor{UserId: 5, Role: RoleProjectApprover}, internal, false},
		{"manager of department on internal", Actor{UserId: 7, Role: RoleDepartmentManager, DepartmentId: intPtr(10)}, internal, true},
		{"manager of other department", Actor{UserId: 7, Role: RoleDepartmentManager, DepartmentId: intPtr(11)}, internal, false},
		{"manager without department", Actor{UserId: 7, Role: RoleDepartmentManager}, internal, false},
		{"manager on billable", Actor{UserId: 7, Role: RoleDepartmentManager, DepartmentId: intPtr(10)}, billable, false},
		{"employee", Actor{UserId: 5, Role: RoleEmployee}, billable, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanApprove(tt.actor, tt.project))
			err := AuthorizeApproval(tt.actor, tt.project)
			if tt.want {
				assert.NoError(t, err)
			} else {
				assert.True(t, apperr.IsAuthorization(err))
			}
		})
	}
}

func TestVisibility(t *testing.T) {
	billable := ProjectScope{ProjectId: 1, Billable: true, DepartmentId: intPtr(10), ApproverIds: []int{5}}
	internal := ProjectScope{ProjectId: 2, Billable: false, DepartmentId: intPtr(10)}

	t.Run("should agree with CanApprove for approvers", func(t *testing.T) {
		approver := Actor{UserId: 5, Role: RoleProjectApprover}
		v := VisibilityFor(approver)
		assert.Equal(t, CanApprove(approver, billable), v.Allows(billable, 99))
		assert.Equal(t, CanApprove(approver, internal), v.Allows(internal, 99))
	})

	t.Run("should restrict employees to own entries", func(t *testing.T) {
		v := VisibilityFor(Actor{UserId: 3, Role: RoleEmployee})
		assert.True(t, v.Allows(billable, 3))
		assert.False(t, v.Allows(billable, 4))
	})

	t.Run("should render SQL with numbered placeholders", func(t *testing.T) {
		where, args := VisibilityFor(Actor{UserId: 7, Role: RoleDepartmentManager, DepartmentId: intPtr(10)}).SQL("p", "e", 3)
		assert.Equal(t, "(NOT p.billable AND p.department_id = $3)", where)
		assert.Equal(t, []any{10}, args)

		where, args = VisibilityFor(Actor{Role: RoleAdministrator}).SQL("p", "e", 1)
		assert.Equal(t, "TRUE", where)
		assert.Empty(t, args)

		where, args = VisibilityFor(Actor{UserId: 3, Role: RoleEmployee}).SQL("p", "e", 2)
		assert.Equal(t, "e.employee_id = $2", where)
		assert.Equal(t, []any{3}, args)
	})
}

func TestParseRole(t *testing.T) {
	role, err := ParseRole(" Department_Manager ")
	require.NoError(t, err)
	assert.Equal(t, RoleDepartmentManager, role)

	_, err = ParseRole("manager")
	assert.Error(t, err)
}

func TestRequireRole(t *testing.T) {
	assert.NoError(t, RequireRole(Actor{Role: RoleAdministrator}, RoleAdministrator))
	assert.True(t, apperr.IsAuthorization(RequireRole(Actor{Role: RoleEmployee}, RoleAdministrator)))
	assert.NoError(t, RequireSelfOrAdmin(Actor{UserId: 4, Role: RoleEmployee}, 4))
	assert.Error(t, RequireSelfOrAdmin(Actor{UserId: 4, Role: RoleEmployee}, 5))
}
