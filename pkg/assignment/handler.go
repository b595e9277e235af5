package assignment

import (
	"net/http"

	"github.com/klokku/timesheet/internal/rest"
	"github.com/klokku/timesheet/pkg/project"
)

type AssignmentDTO struct {
	Id           int     `json:"id"`
	EmployeeId   int     `json:"employeeId" validate:"required"`
	ProjectId    int     `json:"projectId" validate:"required"`
	TaskId       int     `json:"taskId" validate:"required"`
	Name         string  `json:"name" validate:"max=255"`
	PlannedHours float64 `json:"plannedHours" validate:"gte=0"`
	StartDate    string  `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate      *string `json:"endDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Status       string  `json:"status" validate:"omitempty,oneof=active on_hold completed"`
	Notes        string  `json:"notes"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// List godoc
// @Summary List assignments
// @Description Employees only see their own assignments
// @Tags Assignment
// @Produce json
// @Param employeeId query int false "Employee ID"
// @Param projectId query int false "Project ID"
// @Success 200 {array} AssignmentDTO
// @Router /api/assignment [get]
// @Security XUserId
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	employeeId, err := rest.QueryInt(r, "employeeId")
	if err != nil {
		rest.WriteBadRequest(w, "Invalid employee id", err.Error())
		return
	}
	projectId, err := rest.QueryInt(r, "projectId")
	if err != nil {
		rest.WriteBadRequest(w, "Invalid project id", err.Error())
		return
	}
	assignments, err := h.service.List(r.Context(), Filter{EmployeeId: employeeId, ProjectId: projectId})
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	dtos := make([]AssignmentDTO, 0, len(assignments))
	for _, a := range assignments {
		dtos = append(dtos, assignmentToDTO(a))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

// Get godoc
// @Summary Get an assignment
// @Tags Assignment
// @Produce json
// @Param assignmentId path int true "Assignment ID"
// @Success 200 {object} AssignmentDTO
// @Failure 404 {object} rest.ErrorResponse
// @Router /api/assignment/{assignmentId} [get]
// @Security XUserId
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := rest.PathId(r, "assignmentId")
	if err != nil {
		rest.WriteBadRequest(w, "Invalid assignment id", err.Error())
		return
	}
	a, err := h.service.Get(r.Context(), id)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, assignmentToDTO(a))
}

// Create godoc
// @Summary Assign an employee to a project task
// @Tags Assignment
// @Accept json
// @Produce json
// @Param assignment body AssignmentDTO true "Assignment"
// @Success 201 {object} AssignmentDTO
// @Failure 400 {object} rest.ErrorResponse
// @Failure 403 {object} rest.ErrorResponse
// @Router /api/assignment [post]
// @Security XUserId
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	a, ok := decodeAssignment(w, r)
	if !ok {
		return
	}
	created, err := h.service.Create(r.Context(), a)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, assignmentToDTO(created))
}

// Update godoc
// @Summary Update an assignment
// @Tags Assignment
// @Accept json
// @Produce json
// @Param assignmentId path int true "Assignment ID"
// @Param assignment body AssignmentDTO true "Assignment"
// @Success 200 {object} AssignmentDTO
// @Router /api/assignment/{assignmentId} [put]
// @Security XUserId
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := rest.PathId(r, "assignmentId")
	if err != nil {
		rest.WriteBadRequest(w, "Invalid assignment id", err.Error())
		return
	}
	a, ok := decodeAssignment(w, r)
	if !ok {
		return
	}
	a.Id = id
	updated, err := h.service.Update(r.Context(), a)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, assignmentToDTO(updated))
}

// Delete godoc
// @Summary Delete an assignment without entries
// @Tags Assignment
// @Param assignmentId path int true "Assignment ID"
// @Success 204 "No Content"
// @Failure 409 {object} rest.ErrorResponse
// @Router /api/assignment/{assignmentId} [delete]
// @Security XUserId
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := rest.PathId(r, "assignmentId")
	if err != nil {
		rest.WriteBadRequest(w, "Invalid assignment id", err.Error())
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		rest.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeAssignment(w http.ResponseWriter, r *http.Request) (Assignment, bool) {
	var dto AssignmentDTO
	if err := rest.DecodeAndValidate(r, &dto); err != nil {
		rest.WriteBadRequest(w, "Invalid assignment", err.Error())
		return Assignment{}, false
	}
	start, err := rest.ParseDate(dto.StartDate)
	if err != nil {
		rest.WriteBadRequest(w, "Invalid start date", err.Error())
		return Assignment{}, false
	}
	a := Assignment{
		EmployeeId:   dto.EmployeeId,
		ProjectId:    dto.ProjectId,
		TaskId:       dto.TaskId,
		Name:         dto.Name,
		PlannedHours: dto.PlannedHours,
		StartDate:    start,
		Status:       project.Status(dto.Status),
		Notes:        dto.Notes,
	}
	if dto.EndDate != nil {
		if a.EndDate, err = rest.ParseOptionalDate(*dto.EndDate); err != nil {
			rest.WriteBadRequest(w, "Invalid end date", err.Error())
			return Assignment{}, false
		}
	}
	return a, true
}

func assignmentToDTO(a Assignment) AssignmentDTO {
	return AssignmentDTO{
		Id:           a.Id,
		EmployeeId:   a.EmployeeId,
		ProjectId:    a.ProjectId,
		TaskId:       a.TaskId,
		Name:         a.Name,
		PlannedHours: a.PlannedHours,
		StartDate:    a.StartDate.Format(rest.DateLayout),
		EndDate:      rest.FormatOptionalDate(a.EndDate),
		Status:       string(a.Status),
		Notes:        a.Notes,
	}
}
