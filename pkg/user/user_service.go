package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/klokku/timesheet/internal/apperr"
	"github.com/klokku/timesheet/pkg/authz"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	GetCurrentUser(ctx context.Context) (User, error)
	GetUser(ctx context.Context, id int) (User, error)
	GetUserByUid(ctx context.Context, uid string) (User, error)
	GetAllUsers(ctx context.Context) ([]User, error)
	CreateUser(ctx context.Context, user User) (User, error)
	UpdateUser(ctx context.Context, user User) (User, error)
	DeleteUser(ctx context.Context, id int) error
	IsUsernameAvailable(ctx context.Context, username string) (bool, error)
}

type UserServiceImpl struct {
	repo Repo
}

func NewUserService(repo Repo) *UserServiceImpl {
	return &UserServiceImpl{repo: repo}
}

func (s *UserServiceImpl) GetCurrentUser(ctx context.Context) (User, error) {
	userId, err := CurrentId(ctx)
	if err != nil {
		return User{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.GetUser(ctx, userId)
}

func (s *UserServiceImpl) GetUser(ctx context.Context, id int) (User, error) {
	u, err := s.repo.GetUser(ctx, id)
	if errors.Is(err, ErrUserNotFound) {
		return User{}, apperr.NotFound("user", id)
	}
	return u, apperr.Persistence("get user", err)
}

// GetUserByUid is used by the identity middleware and returns ErrUserNotFound unwrapped.
func (s *UserServiceImpl) GetUserByUid(ctx context.Context, uid string) (User, error) {
	return s.repo.GetUserByUid(ctx, uid)
}

func (s *UserServiceImpl) GetAllUsers(ctx context.Context) ([]User, error) {
	actor, err := CurrentActor(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	if !actor.Role.IsApprover() {
		return nil, apperr.Unauthorized("role %s may not list users", actor.Role)
	}
	users, err := s.repo.GetAllUsers(ctx)
	return users, apperr.Persistence("list users", err)
}

// CreateUser registers a new employee. Administrators only.
func (s *UserServiceImpl) CreateUser(ctx context.Context, u User) (User, error) {
	if err := s.requireAdministrator(ctx); err != nil {
		return User{}, err
	}
	return s.Register(ctx, u)
}

// Register creates a user without checking the caller. Used by the CLI to bootstrap the first administrator.
func (s *UserServiceImpl) Register(ctx context.Context, u User) (User, error) {
	if err := validateUser(&u); err != nil {
		return User{}, err
	}
	if u.Uid == "" {
		u.Uid = uuid.NewString()
	}
	id, err := s.repo.CreateUser(ctx, u)
	if errors.Is(err, ErrUsernameTaken) {
		return User{}, apperr.Validation("username %s is already taken", u.Username)
	}
	if err != nil {
		return User{}, apperr.Persistence("create user", err)
	}
	u.Id = id
	log.Infof("created user %s (%s) with role %s", u.Username, u.Uid, u.Role)
	return u, nil
}

// UpdateUser changes display data, department or role of a user. Administrators only.
func (s *UserServiceImpl) UpdateUser(ctx context.Context, u User) (User, error) {
	if err := s.requireAdministrator(ctx); err != nil {
		return User{}, err
	}
	if err := validateUser(&u); err != nil {
		return User{}, err
	}
	updated, err := s.repo.UpdateUser(ctx, u)
	if errors.Is(err, ErrUserNotFound) {
		return User{}, apperr.NotFound("user", u.Id)
	}
	return updated, apperr.Persistence("update user", err)
}

// DeleteUser removes a user that has no timesheet history. Administrators only.
func (s *UserServiceImpl) DeleteUser(ctx context.Context, id int) error {
	if err := s.requireAdministrator(ctx); err != nil {
		return err
	}
	err := s.repo.DeleteUser(ctx, id)
	switch {
	case errors.Is(err, ErrUserNotFound):
		return apperr.NotFound("user", id)
	case errors.Is(err, ErrUserInUse):
		return apperr.Conflict("user %d is referenced by timesheet history and cannot be deleted", id)
	}
	return apperr.Persistence("delete user", err)
}

func (s *UserServiceImpl) IsUsernameAvailable(ctx context.Context, username string) (bool, error) {
	available, err := s.repo.IsUsernameAvailable(ctx, username)
	return available, apperr.Persistence("check username", err)
}

func (s *UserServiceImpl) requireAdministrator(ctx context.Context) error {
	actor, err := CurrentActor(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	return authz.RequireRole(actor, authz.RoleAdministrator)
}

func validateUser(u *User) error {
	u.Username = strings.TrimSpace(u.Username)
	u.DisplayName = strings.TrimSpace(u.DisplayName)
	if u.Username == "" {
		return apperr.Validation("username is required")
	}
	if u.DisplayName == "" {
		return apperr.Validation("display name is required")
	}
	if u.Role == "" {
		u.Role = authz.RoleEmployee
	}
	if _, err := authz.ParseRole(string(u.Role)); err != nil {
		return apperr.Validation("%v", err)
	}
	if u.Role == authz.RoleDepartmentManager && u.DepartmentId == nil {
		return apperr.Validation("a department manager needs a department")
	}
	return nil
}
