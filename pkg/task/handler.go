package task

import (
	"net/http"

	"github.com/klokku/timesheet/internal/rest"
)

type TaskTypeDTO struct {
	Id           int    `json:"id"`
	Name         string `json:"name" validate:"required,max=255"`
	DepartmentId *int   `json:"departmentId,omitempty"`
}

type TaskDTO struct {
	Id          int    `json:"id"`
	Name        string `json:"name" validate:"required,max=255"`
	TaskTypeId  *int   `json:"taskTypeId,omitempty"`
	Description string `json:"description"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// ListTaskTypes godoc
// @Summary List task types
// @Tags Task
// @Produce json
// @Success 200 {array} TaskTypeDTO
// @Router /api/tasktype [get]
// @Security XUserId
func (h *Handler) ListTaskTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.service.ListTaskTypes(r.Context())
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	dtos := make([]TaskTypeDTO, 0, len(types))
	for _, t := range types {
		dtos = append(dtos, TaskTypeDTO(t))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

// CreateTaskType godoc
// @Summary Create a task type
// @Tags Task
// @Accept json
// @Produce json
// @Param taskType body TaskTypeDTO true "Task type"
// @Success 201 {object} TaskTypeDTO
// @Router /api/tasktype [post]
// @Security XUserId
func (h *Handler) CreateTaskType(w http.ResponseWriter, r *http.Request) {
	var dto TaskTypeDTO
	if err := rest.DecodeAndValidate(r, &dto); err != nil {
		rest.WriteBadRequest(w, "Invalid task type", err.Error())
		return
	}
	created, err := h.service.CreateTaskType(r.Context(), TaskType(dto))
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, TaskTypeDTO(created))
}

// UpdateTaskType godoc
// @Summary Update a task type
// @Tags Task
// @Accept json
// @Produce json
// @Param taskTypeId path int true "Task type ID"
// @Param taskType body TaskTypeDTO true "Task type"
// @Success 200 {object} TaskTypeDTO
// @Router /api/tasktype/{taskTypeId} [put]
// @Security XUserId
func (h *Handler) UpdateTaskType(w http.ResponseWriter, r *http.Request) {
	id, err := rest.PathId(r, "taskTypeId")
	if err != nil {
		rest.WriteBadRequest(w, "Invalid task type id", err.Error())
		return
	}
	var dto TaskTypeDTO
	if err := rest.DecodeAndValidate(r, &dto); err != nil {
		rest.WriteBadRequest(w, "Invalid task type", err.Error())
		return
	}
	dto.Id = id
	updated, err := h.service.UpdateTaskType(r.Context(), TaskType(dto))
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, TaskTypeDTO(updated))
}

// DeleteTaskType godoc
// @Summary Delete an unreferenced task type
// @Tags Task
// @Param taskTypeId path int true "Task type ID"
// @Success 204 "No Content"
// @Router /api/tasktype/{taskTypeId} [delete]
// @Security XUserId
func (h *Handler) DeleteTaskType(w http.ResponseWriter, r *http.Request) {
	id, err := rest.PathId(r, "taskTypeId")
	if err != nil {
		rest.WriteBadRequest(w, "Invalid task type id", err.Error())
		return
	}
	if err := h.service.DeleteTaskType(r.Context(), id); err != nil {
		rest.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListTasks godoc
// @Summary List tasks
// @Tags Task
// @Produce json
// @Success 200 {array} TaskDTO
// @Router /api/task [get]
// @Security XUserId
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.service.ListTasks(r.Context())
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	dtos := make([]TaskDTO, 0, len(tasks))
	for _, t := range tasks {
		dtos = append(dtos, TaskDTO(t))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

// CreateTask godoc
// @Summary Create a task
// @Tags Task
// @Accept json
// @Produce json
// @Param task body TaskDTO true "Task"
// @Success 201 {object} TaskDTO
// @Router /api/task [post]
// @Security XUserId
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var dto TaskDTO
	if err := rest.DecodeAndValidate(r, &dto); err != nil {
		rest.WriteBadRequest(w, "Invalid task", err.Error())
		return
	}
	created, err := h.service.CreateTask(r.Context(), Task(dto))
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, TaskDTO(created))
}

// UpdateTask godoc
// @Summary Update a task
// @Tags Task
// @Accept json
// @Produce json
// @Param taskId path int true "Task ID"
// @Param task body TaskDTO true "Task"
// @Success 200 {object} TaskDTO
// @Router /api/task/{taskId} [put]
// @Security XUserId
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := rest.PathId(r, "taskId")
	if err != nil {
		rest.WriteBadRequest(w, "Invalid task id", err.Error())
		return
	}
	var dto TaskDTO
	if err := rest.DecodeAndValidate(r, &dto); err != nil {
		rest.WriteBadRequest(w, "Invalid task", err.Error())
		return
	}
	dto.Id = id
	updated, err := h.service.UpdateTask(r.Context(), Task(dto))
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, TaskDTO(updated))
}

// DeleteTask godoc
// @Summary Delete an unreferenced task
// @Tags Task
// @Param taskId path int true "Task ID"
// @Success 204 "No Content"
// @Router /api/task/{taskId} [delete]
// @Security XUserId
func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := rest.PathId(r, "taskId")
	if err != nil {
		rest.WriteBadRequest(w, "Invalid task id", err.Error())
		return
	}
	if err := h.service.DeleteTask(r.Context(), id); err != nil {
		rest.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
