package project

import (
	"net/http"

	"github.com/klokku/timesheet/internal/rest"
)

type ProjectDTO struct {
	Id           int     `json:"id"`
	Name         string  `json:"name" validate:"required,max=255"`
	Client       string  `json:"client" validate:"max=255"`
	Number       string  `json:"number" validate:"max=64"`
	DepartmentId *int    `json:"departmentId,omitempty"`
	Billable     bool    `json:"billable"`
	PlannedHours float64 `json:"plannedHours" validate:"gte=0"`
	Status       string  `json:"status" validate:"omitempty,oneof=active on_hold completed"`
	StartDate    *string `json:"startDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate      *string `json:"endDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ApproverIds  []int   `json:"approverIds"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// List godoc
// @Summary List projects
// @Tags Project
// @Produce json
// @Success 200 {array} ProjectDTO
// @Router /api/project [get]
// @Security XUserId
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.service.List(r.Context())
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	dtos := make([]ProjectDTO, 0, len(projects))
	for _, p := range projects {
		dtos = append(dtos, projectToDTO(p))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

// Get godoc
// @Summary Get a project
// @Tags Project
// @Produce json
// @Param projectId path int true "Project ID"
// @Success 200 {object} ProjectDTO
// @Failure 404 {object} rest.ErrorResponse
// @Router /api/project/{projectId} [get]
// @Security XUserId
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := rest.PathId(r, "projectId")
	if err != nil {
		rest.WriteBadRequest(w, "Invalid project id", err.Error())
		return
	}
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, projectToDTO(p))
}

// Create godoc
// @Summary Create a project
// @Tags Project
// @Accept json
// @Produce json
// @Param project body ProjectDTO true "Project"
// @Success 201 {object} ProjectDTO
// @Failure 400 {object} rest.ErrorResponse
// @Failure 403 {object} rest.ErrorResponse
// @Router /api/project [post]
// @Security XUserId
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := decodeProject(w, r)
	if !ok {
		return
	}
	created, err := h.service.Create(r.Context(), p)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, projectToDTO(created))
}

// Update godoc
// @Summary Update a project and its approvers
// @Tags Project
// @Accept json
// @Produce json
// @Param projectId path int true "Project ID"
// @Param project body ProjectDTO true "Project"
// @Success 200 {object} ProjectDTO
// @Router /api/project/{projectId} [put]
// @Security XUserId
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := rest.PathId(r, "projectId")
	if err != nil {
		rest.WriteBadRequest(w, "Invalid project id", err.Error())
		return
	}
	p, ok := decodeProject(w, r)
	if !ok {
		return
	}
	p.Id = id
	updated, err := h.service.Update(r.Context(), p)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, projectToDTO(updated))
}

// Delete godoc
// @Summary Delete an unreferenced project
// @Tags Project
// @Param projectId path int true "Project ID"
// @Success 204 "No Content"
// @Failure 409 {object} rest.ErrorResponse
// @Router /api/project/{projectId} [delete]
// @Security XUserId
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := rest.PathId(r, "projectId")
	if err != nil {
		rest.WriteBadRequest(w, "Invalid project id", err.Error())
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		rest.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeProject(w http.ResponseWriter, r *http.Request) (Project, bool) {
	var dto ProjectDTO
	if err := rest.DecodeAndValidate(r, &dto); err != nil {
		rest.WriteBadRequest(w, "Invalid project", err.Error())
		return Project{}, false
	}
	p := Project{
		Name:         dto.Name,
		Client:       dto.Client,
		Number:       dto.Number,
		DepartmentId: dto.DepartmentId,
		Billable:     dto.Billable,
		PlannedHours: dto.PlannedHours,
		Status:       Status(dto.Status),
		ApproverIds:  dto.ApproverIds,
	}
	var err error
	if dto.StartDate != nil {
		if p.StartDate, err = rest.ParseOptionalDate(*dto.StartDate); err != nil {
			rest.WriteBadRequest(w, "Invalid start date", err.Error())
			return Project{}, false
		}
	}
	if dto.EndDate != nil {
		if p.EndDate, err = rest.ParseOptionalDate(*dto.EndDate); err != nil {
			rest.WriteBadRequest(w, "Invalid end date", err.Error())
			return Project{}, false
		}
	}
	return p, true
}

func projectToDTO(p Project) ProjectDTO {
	approvers := p.ApproverIds
	if approvers == nil {
		approvers = []int{}
	}
	return ProjectDTO{
		Id:           p.Id,
		Name:         p.Name,
		Client:       p.Client,
		Number:       p.Number,
		DepartmentId: p.DepartmentId,
		Billable:     p.Billable,
		PlannedHours: p.PlannedHours,
		Status:       string(p.Status),
		StartDate:    rest.FormatOptionalDate(p.StartDate),
		EndDate:      rest.FormatOptionalDate(p.EndDate),
		ApproverIds:  approvers,
	}
}
