package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/klokku/timesheet/pkg/authz"
	"github.com/klokku/timesheet/pkg/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T) *mux.Router {
	repo := user.NewStubUserRepository()
	_, err := repo.CreateUser(context.Background(), user.User{Uid: "uid-jane", Username: "jane", Role: authz.RoleEmployee})
	require.NoError(t, err)
	deps := &Dependencies{UserService: user.NewUserService(repo)}

	r := mux.NewRouter()
	SetupMiddleware(r, deps)
	r.HandleFunc("/api/whoami", func(w http.ResponseWriter, req *http.Request) {
		u, err := user.CurrentUser(req.Context())
		require.NoError(t, err)
		_, _ = w.Write([]byte(u.Username))
	}).Methods("GET")
	return r
}

func TestSetupMiddleware(t *testing.T) {
	t.Run("should put the known user into the context", func(t *testing.T) {
		// given
		r := newRouter(t)
		req := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
		req.Header.Set(userIdHeader, "uid-jane")
		rec := httptest.NewRecorder()

		// when
		r.ServeHTTP(rec, req)

		// then
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "jane", rec.Body.String())
		assert.NotEmpty(t, rec.Header().Get(requestIdHeader))
	})

	t.Run("should keep the caller request id", func(t *testing.T) {
		r := newRouter(t)
		req := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
		req.Header.Set(userIdHeader, "uid-jane")
		req.Header.Set(requestIdHeader, "req-42")
		rec := httptest.NewRecorder()

		r.ServeHTTP(rec, req)

		assert.Equal(t, "req-42", rec.Header().Get(requestIdHeader))
	})

	t.Run("should refuse requests without identity", func(t *testing.T) {
		r := newRouter(t)
		rec := httptest.NewRecorder()

		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/whoami", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("should refuse unknown users", func(t *testing.T) {
		r := newRouter(t)
		req := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
		req.Header.Set(userIdHeader, "uid-ghost")
		rec := httptest.NewRecorder()

		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
