package department

import (
	"net/http"

	"github.com/klokku/timesheet/internal/rest"
)

type DepartmentDTO struct {
	Id   int    `json:"id"`
	Name string `json:"name" validate:"required,max=255"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// List godoc
// @Summary List departments
// @Tags Department
// @Produce json
// @Success 200 {array} DepartmentDTO
// @Router /api/department [get]
// @Security XUserId
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	departments, err := h.service.List(r.Context())
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	dtos := make([]DepartmentDTO, 0, len(departments))
	for _, d := range departments {
		dtos = append(dtos, DepartmentDTO(d))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

// Create godoc
// @Summary Create a department
// @Tags Department
// @Accept json
// @Produce json
// @Param department body DepartmentDTO true "Department"
// @Success 201 {object} DepartmentDTO
// @Failure 400 {object} rest.ErrorResponse
// @Router /api/department [post]
// @Security XUserId
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var dto DepartmentDTO
	if err := rest.DecodeAndValidate(r, &dto); err != nil {
		rest.WriteBadRequest(w, "Invalid department", err.Error())
		return
	}
	created, err := h.service.Create(r.Context(), dto.Name)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, DepartmentDTO(created))
}

// Update godoc
// @Summary Rename a department
// @Tags Department
// @Accept json
// @Produce json
// @Param departmentId path int true "Department ID"
// @Param department body DepartmentDTO true "Department"
// @Success 200 {object} DepartmentDTO
// @Router /api/department/{departmentId} [put]
// @Security XUserId
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := rest.PathId(r, "departmentId")
	if err != nil {
		rest.WriteBadRequest(w, "Invalid department id", err.Error())
		return
	}
	var dto DepartmentDTO
	if err := rest.DecodeAndValidate(r, &dto); err != nil {
		rest.WriteBadRequest(w, "Invalid department", err.Error())
		return
	}
	updated, err := h.service.Rename(r.Context(), id, dto.Name)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, DepartmentDTO(updated))
}

// Delete godoc
// @Summary Delete an unreferenced department
// @Tags Department
// @Param departmentId path int true "Department ID"
// @Success 204 "No Content"
// @Failure 409 {object} rest.ErrorResponse
// @Router /api/department/{departmentId} [delete]
// @Security XUserId
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := rest.PathId(r, "departmentId")
	if err != nil {
		rest.WriteBadRequest(w, "Invalid department id", err.Error())
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		rest.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
