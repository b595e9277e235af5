package user

import "github.com/klokku/timesheet/pkg/authz"

// User is an employee of the company. Every user logs time; the role widens what else they may do.
type User struct {
	Id           int
	Uid          string
	Username     string
	DisplayName  string
	BadgeId      string
	Email        string
	DepartmentId *int
	Role         authz.Role
}

func (u User) Actor() authz.Actor {
	return authz.Actor{UserId: u.Id, Role: u.Role, DepartmentId: u.DepartmentId}
}
