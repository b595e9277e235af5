// Package authz is the single place that decides who may see and decide timesheet entries.
//
// Administrators are unscoped. Project approvers are scoped to billable projects that list them as approver.
// Department managers are scoped to non-billable projects of their own department. Employees only ever see
// their own entries.
package authz

import (
	"fmt"
	"slices"
	"strings"

	"github.com/klokku/timesheet/internal/apperr"
)

type Role string

const (
	RoleEmployee          Role = "employee"
	RoleProjectApprover   Role = "project_approver"
	RoleDepartmentManager Role = "department_manager"
	RoleAdministrator     Role = "administrator"
)

var roles = []Role{RoleEmployee, RoleProjectApprover, RoleDepartmentManager, RoleAdministrator}

func ParseRole(value string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	if !slices.Contains(roles, role) {
		return "", fmt.Errorf("unknown role %q", value)
	}
	return role, nil
}

func (r Role) IsApprover() bool {
	return r == RoleProjectApprover || r == RoleDepartmentManager || r == RoleAdministrator
}

// Actor is the acting user as far as authorization is concerned.
type Actor struct {
	UserId       int
	Role         Role
	DepartmentId *int
}

// ProjectScope carries the project attributes approval scope depends on.
type ProjectScope struct {
	ProjectId    int
	Billable     bool
	DepartmentId *int
	ApproverIds  []int
}

// CanApprove reports whether actor may decide entries of the given project.
func CanApprove(actor Actor, project ProjectScope) bool {
	switch actor.Role {
	case RoleAdministrator:
		return true
	case RoleProjectApprover:
		return project.Billable && slices.Contains(project.ApproverIds, actor.UserId)
	case RoleDepartmentManager:
		return !project.Billable && sameDepartment(actor.DepartmentId, project.DepartmentId)
	default:
		return false
	}
}

// AuthorizeApproval returns an AuthorizationError when CanApprove is false.
func AuthorizeApproval(actor Actor, project ProjectScope) error {
	if !CanApprove(actor, project) {
		return apperr.Unauthorized("user %d has no approval scope over project %d", actor.UserId, project.ProjectId)
	}
	return nil
}

// RequireRole returns an AuthorizationError unless actor has one of the given roles.
func RequireRole(actor Actor, allowed ...Role) error {
	if slices.Contains(allowed, actor.Role) {
		return nil
	}
	return apperr.Unauthorized("role %s may not perform this operation", actor.Role)
}

// RequireSelfOrAdmin allows actors to act on their own records and administrators on anyone's.
func RequireSelfOrAdmin(actor Actor, employeeId int) error {
	if actor.UserId == employeeId || actor.Role == RoleAdministrator {
		return nil
	}
	return apperr.Unauthorized("user %d may not act on behalf of user %d", actor.UserId, employeeId)
}

func sameDepartment(a, b *int) bool {
	return a != nil && b != nil && *a == *b
}

// Visibility is the read scope of an actor over timesheet entries.
type Visibility struct {
	Unrestricted bool
	// ApproverId restricts to billable projects listing this approver.
	ApproverId *int
	// DepartmentId restricts to non-billable projects of this department.
	DepartmentId *int
	// EmployeeId restricts to the employee's own entries.
	EmployeeId *int
}

// VisibilityFor derives the read scope from the same rule CanApprove applies.
func VisibilityFor(actor Actor) Visibility {
	switch actor.Role {
	case RoleAdministrator:
		return Visibility{Unrestricted: true}
	case RoleProjectApprover:
		id := actor.UserId
		return Visibility{ApproverId: &id}
	case RoleDepartmentManager:
		if actor.DepartmentId == nil {
			// a manager without department sees nothing but their own entries
			id := actor.UserId
			return Visibility{EmployeeId: &id}
		}
		dep := *actor.DepartmentId
		return Visibility{DepartmentId: &dep}
	default:
		id := actor.UserId
		return Visibility{EmployeeId: &id}
	}
}

// Allows reports whether an entry of employeeId on project is visible.
func (v Visibility) Allows(project ProjectScope, employeeId int) bool {
	switch {
	case v.Unrestricted:
		return true
	case v.ApproverId != nil:
		return project.Billable && slices.Contains(project.ApproverIds, *v.ApproverId)
	case v.DepartmentId != nil:
		return !project.Billable && sameDepartment(v.DepartmentId, project.DepartmentId)
	case v.EmployeeId != nil:
		return employeeId == *v.EmployeeId
	default:
		return false
	}
}

// SQL renders the visibility as a WHERE fragment over a project alias and an entry alias. Placeholders are
// numbered from firstArg. The returned fragment is "TRUE" when unrestricted.
func (v Visibility) SQL(projectAlias, entryAlias string, firstArg int) (string, []any) {
	switch {
	case v.Unrestricted:
		return "TRUE", nil
	case v.ApproverId != nil:
		return fmt.Sprintf("(%[1]s.billable AND EXISTS (SELECT 1 FROM project_approver pa WHERE pa.project_id = %[1]s.id AND pa.user_id = $%[2]d))",
			projectAlias, firstArg), []any{*v.ApproverId}
	case v.DepartmentId != nil:
		return fmt.Sprintf("(NOT %[1]s.billable AND %[1]s.department_id = $%[2]d)", projectAlias, firstArg), []any{*v.DepartmentId}
	case v.EmployeeId != nil:
		return fmt.Sprintf("%s.employee_id = $%d", entryAlias, firstArg), []any{*v.EmployeeId}
	default:
		return "FALSE", nil
	}
}
