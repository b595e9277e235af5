package approval

import (
	"errors"
	"net/http"
	"time"

	"github.com/klokku/timesheet/internal/rest"
	"github.com/klokku/timesheet/pkg/timesheet"
	"github.com/klokku/timesheet/pkg/user"
)

type DecisionRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approved rejected"`
	Comment  string `json:"comment" validate:"required_if=Decision rejected,max=2000"`
}

type ApprovalDTO struct {
	Id           int    `json:"id"`
	EntryId      int    `json:"entryId"`
	ApproverId   int    `json:"approverId"`
	ApproverName string `json:"approverName,omitempty"`
	Decision     string `json:"decision"`
	Comment      string `json:"comment,omitempty"`
	DecidedAt    string `json:"decidedAt"`
}

type PendingEntryDTO struct {
	EntryId      int       `json:"entryId"`
	EmployeeId   int       `json:"employeeId"`
	EmployeeName string    `json:"employeeName"`
	ProjectId    int       `json:"projectId"`
	ProjectName  string    `json:"projectName"`
	Billable     bool      `json:"billable"`
	TaskId       int       `json:"taskId"`
	TaskName     string    `json:"taskName"`
	WeekStart    string    `json:"weekStart"`
	Hours        []float64 `json:"hours"`
	Total        float64   `json:"total"`
	Status       string    `json:"status"`
	Notes        string    `json:"notes,omitempty"`
	Version      int       `json:"version"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// ListPending godoc
// @Summary List entries awaiting a decision in the caller's approval scope
// @Tags Approval
// @Produce json
// @Param employeeId query int false "Employee ID"
// @Param projectId query int false "Project ID"
// @Param status query string false "Entry status, submitted by default"
// @Success 200 {array} PendingEntryDTO
// @Failure 403 {object} rest.ErrorResponse
// @Router /api/approval/pending [get]
// @Security XUserId
func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	employeeId, err := rest.QueryInt(r, "employeeId")
	if err != nil {
		rest.WriteBadRequest(w, "Invalid employeeId", err.Error())
		return
	}
	projectId, err := rest.QueryInt(r, "projectId")
	if err != nil {
		rest.WriteBadRequest(w, "Invalid projectId", err.Error())
		return
	}
	filter := PendingFilter{
		EmployeeId: employeeId,
		ProjectId:  projectId,
		Status:     timesheet.Status(r.URL.Query().Get("status")),
	}
	entries, err := h.service.ListPending(r.Context(), filter)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	dtos := make([]PendingEntryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, PendingEntryDTO{
			EntryId:      e.EntryId,
			EmployeeId:   e.EmployeeId,
			EmployeeName: e.EmployeeName,
			ProjectId:    e.ProjectId,
			ProjectName:  e.ProjectName,
			Billable:     e.Billable,
			TaskId:       e.TaskId,
			TaskName:     e.TaskName,
			WeekStart:    e.WeekStart.Format(rest.DateLayout),
			Hours:        e.Hours[:],
			Total:        e.Hours.Total(),
			Status:       string(e.Status),
			Notes:        e.Notes,
			Version:      e.Version,
		})
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

// Decide godoc
// @Summary Approve or reject a submitted entry
// @Description A comment is required for rejections. Deciding an entry that is no longer submitted fails with 409.
// @Tags Approval
// @Accept json
// @Produce json
// @Param entryId path int true "Entry ID"
// @Param decision body DecisionRequest true "Decision"
// @Success 201 {object} ApprovalDTO
// @Failure 400 {object} rest.ErrorResponse
// @Failure 403 {object} rest.ErrorResponse
// @Failure 404 {object} rest.ErrorResponse
// @Failure 409 {object} rest.ErrorResponse
// @Router /api/approval/entry/{entryId}/decision [post]
// @Security XUserId
func (h *Handler) Decide(w http.ResponseWriter, r *http.Request) {
	entryId, err := rest.PathId(r, "entryId")
	if err != nil {
		rest.WriteBadRequest(w, "Invalid entry id", err.Error())
		return
	}
	var req DecisionRequest
	if err := rest.DecodeAndValidate(r, &req); err != nil {
		rest.WriteBadRequest(w, "Invalid decision", err.Error())
		return
	}
	approverId, err := user.CurrentId(r.Context())
	if err != nil {
		if errors.Is(err, user.ErrNoUser) {
			http.Error(w, "user not found", http.StatusForbidden)
			return
		}
		rest.WriteError(w, err)
		return
	}
	recorded, err := h.service.Decide(r.Context(), entryId, approverId, Decision(req.Decision), req.Comment)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, approvalToDTO(recorded))
}

// History godoc
// @Summary List decisions on an entry, oldest first
// @Tags Approval
// @Produce json
// @Param entryId path int true "Entry ID"
// @Success 200 {array} ApprovalDTO
// @Failure 403 {object} rest.ErrorResponse
// @Failure 404 {object} rest.ErrorResponse
// @Router /api/approval/entry/{entryId}/history [get]
// @Security XUserId
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	entryId, err := rest.PathId(r, "entryId")
	if err != nil {
		rest.WriteBadRequest(w, "Invalid entry id", err.Error())
		return
	}
	approvals, err := h.service.History(r.Context(), entryId)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	dtos := make([]ApprovalDTO, 0, len(approvals))
	for _, a := range approvals {
		dtos = append(dtos, approvalToDTO(a))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

func approvalToDTO(a Approval) ApprovalDTO {
	return ApprovalDTO{
		Id:           a.Id,
		EntryId:      a.EntryId,
		ApproverId:   a.ApproverId,
		ApproverName: a.ApproverName,
		Decision:     string(a.Decision),
		Comment:      a.Comment,
		DecidedAt:    a.DecidedAt.Format(time.RFC3339),
	}
}
