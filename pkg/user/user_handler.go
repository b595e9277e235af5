package user

import (
	"errors"
	"net/http"

	"github.com/klokku/timesheet/internal/rest"
	"github.com/klokku/timesheet/pkg/authz"
	log "github.com/sirupsen/logrus"
)

type UserDTO struct {
	Id           int    `json:"id"`
	Uid          string `json:"uid"`
	Username     string `json:"username" validate:"required,max=255"`
	DisplayName  string `json:"displayName" validate:"required,max=255"`
	BadgeId      string `json:"badgeId,omitempty" validate:"max=64"`
	Email        string `json:"email,omitempty" validate:"omitempty,email"`
	DepartmentId *int   `json:"departmentId,omitempty"`
	Role         string `json:"role" validate:"omitempty,oneof=employee project_approver department_manager administrator"`
}

type Handler struct {
	userService Service
}

func NewHandler(userService Service) *Handler {
	return &Handler{userService: userService}
}

// CurrentUser godoc
// @Summary Get current user
// @Tags User
// @Produce json
// @Success 200 {object} UserDTO
// @Failure 403 {string} string "User not found"
// @Router /api/user/current [get]
// @Security XUserId
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	log.Trace("Getting current user")
	currentUser, err := h.userService.GetCurrentUser(r.Context())
	if err != nil {
		if errors.Is(err, ErrNoUser) {
			http.Error(w, "user not found", http.StatusForbidden)
			return
		}
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, userToDTO(currentUser))
}

// GetAvailableUsers godoc
// @Summary List users
// @Description Approvers and administrators only
// @Tags User
// @Produce json
// @Success 200 {array} UserDTO
// @Failure 403 {object} rest.ErrorResponse
// @Router /api/user [get]
// @Security XUserId
func (h *Handler) GetAvailableUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.GetAllUsers(r.Context())
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	dtos := make([]UserDTO, 0, len(users))
	for _, u := range users {
		dtos = append(dtos, userToDTO(u))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

// CreateUser godoc
// @Summary Create a user
// @Tags User
// @Accept json
// @Produce json
// @Param user body UserDTO true "User"
// @Success 201 {object} UserDTO
// @Failure 400 {object} rest.ErrorResponse
// @Failure 403 {object} rest.ErrorResponse
// @Router /api/user [post]
// @Security XUserId
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var dto UserDTO
	if err := rest.DecodeAndValidate(r, &dto); err != nil {
		rest.WriteBadRequest(w, "Invalid user", err.Error())
		return
	}
	created, err := h.userService.CreateUser(r.Context(), dtoToUser(dto))
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, userToDTO(created))
}

// UpdateUser godoc
// @Summary Update a user's data, department or role
// @Tags User
// @Accept json
// @Produce json
// @Param userId path int true "User ID"
// @Param user body UserDTO true "User"
// @Success 200 {object} UserDTO
// @Failure 400 {object} rest.ErrorResponse
// @Failure 404 {object} rest.ErrorResponse
// @Router /api/user/{userId} [put]
// @Security XUserId
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userId, err := rest.PathId(r, "userId")
	if err != nil {
		rest.WriteBadRequest(w, "Invalid user id", err.Error())
		return
	}
	var dto UserDTO
	if err := rest.DecodeAndValidate(r, &dto); err != nil {
		rest.WriteBadRequest(w, "Invalid user", err.Error())
		return
	}
	u := dtoToUser(dto)
	u.Id = userId
	updated, err := h.userService.UpdateUser(r.Context(), u)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, userToDTO(updated))
}

// DeleteUser godoc
// @Summary Delete a user without timesheet history
// @Tags User
// @Param userId path int true "User ID"
// @Success 204 "No Content"
// @Failure 409 {object} rest.ErrorResponse "User has timesheet history"
// @Router /api/user/{userId} [delete]
// @Security XUserId
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userId, err := rest.PathId(r, "userId")
	if err != nil {
		rest.WriteBadRequest(w, "Invalid user id", err.Error())
		return
	}
	if err := h.userService.DeleteUser(r.Context(), userId); err != nil {
		rest.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// IsUsernameAvailable godoc
// @Summary Check whether a username is free
// @Tags User
// @Produce json
// @Param username query string true "Username"
// @Success 200 {object} map[string]bool
// @Router /api/user/name-availability [get]
func (h *Handler) IsUsernameAvailable(w http.ResponseWriter, r *http.Request) {
	available, err := h.userService.IsUsernameAvailable(r.Context(), r.URL.Query().Get("username"))
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, map[string]bool{"available": available})
}

func userToDTO(u User) UserDTO {
	return UserDTO{
		Id:           u.Id,
		Uid:          u.Uid,
		Username:     u.Username,
		DisplayName:  u.DisplayName,
		BadgeId:      u.BadgeId,
		Email:        u.Email,
		DepartmentId: u.DepartmentId,
		Role:         string(u.Role),
	}
}

func dtoToUser(dto UserDTO) User {
	return User{
		Uid:          dto.Uid,
		Username:     dto.Username,
		DisplayName:  dto.DisplayName,
		BadgeId:      dto.BadgeId,
		Email:        dto.Email,
		DepartmentId: dto.DepartmentId,
		Role:         authz.Role(dto.Role),
	}
}
