package app

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/klokku/timesheet/internal/rest"
	"github.com/klokku/timesheet/pkg/user"
	log "github.com/sirupsen/logrus"
)

const (
	userIdHeader    = "X-User-Id"
	requestIdHeader = "X-Request-Id"
)

// SetupMiddleware wires all HTTP middlewares for the application.
func SetupMiddleware(r *mux.Router, deps *Dependencies) {
	r.Use(requestId)
	r.Use(currentUser(deps.UserService))
}

// requestId echoes the caller's request id or assigns a fresh one, and logs the request with it.
func requestId(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		id := req.Header.Get(requestIdHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIdHeader, id)
		log.WithField("requestId", id).Debugf("%s %s", req.Method, req.URL.Path)
		next.ServeHTTP(w, req)
	})
}

// currentUser propagates the X-User-Id header into the context for downstream services.
func currentUser(users user.Service) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			uid := req.Header.Get(userIdHeader)
			if uid == "" {
				rest.WriteJSON(w, http.StatusUnauthorized, rest.ErrorResponse{Error: "missing " + userIdHeader + " header"})
				return
			}
			ctx := req.Context()
			u, err := users.GetUserByUid(ctx, uid)
			if err != nil {
				if errors.Is(err, user.ErrUserNotFound) {
					log.Debugf("user not found: %s", uid)
					rest.WriteJSON(w, http.StatusForbidden, rest.ErrorResponse{Error: "user not found"})
					return
				}
				log.Errorf("failed to get user: %v", err)
				rest.WriteError(w, err)
				return
			}
			log.Debugf("user found: %s", u.Uid)
			next.ServeHTTP(w, req.WithContext(user.WithUser(ctx, u)))
		})
	}
}
