package user

import (
	"context"
	"errors"

	"github.com/klokku/timesheet/pkg/authz"
	log "github.com/sirupsen/logrus"
)

type contextKey string

const UserKey contextKey = "user"

var ErrNoUser = errors.New("no user in request context")

// CurrentId retrieves the current user's ID from the context. Returns ErrNoUser if not present.
func CurrentId(ctx context.Context) (int, error) {
	u, err := CurrentUser(ctx)
	if err != nil {
		return 0, err
	}
	return u.Id, nil
}

func CurrentUser(ctx context.Context) (User, error) {
	u, ok := ctx.Value(UserKey).(User)
	if !ok {
		log.Trace("user not found in context")
		return User{}, ErrNoUser
	}
	return u, nil
}

// CurrentActor is CurrentUser reduced to what authorization needs.
func CurrentActor(ctx context.Context) (authz.Actor, error) {
	u, err := CurrentUser(ctx)
	if err != nil {
		return authz.Actor{}, err
	}
	return u.Actor(), nil
}

func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, UserKey, u)
}
