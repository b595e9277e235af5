package report

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/klokku/timesheet/internal/rest"
	"github.com/klokku/timesheet/pkg/timesheet"
	log "github.com/sirupsen/logrus"
)

type TotalsDTO struct {
	TotalHours    float64 `json:"totalHours"`
	BillableHours float64 `json:"billableHours"`
	Utilization   float64 `json:"utilization"`
	Employees     int     `json:"employees"`
	Entries       int     `json:"entries"`
}

type ProjectSummaryDTO struct {
	ProjectId     int     `json:"projectId"`
	ProjectName   string  `json:"projectName"`
	ProjectNumber string  `json:"projectNumber,omitempty"`
	Client        string  `json:"client,omitempty"`
	Billable      bool    `json:"billable"`
	PlannedHours  float64 `json:"plannedHours"`
	Hours         float64 `json:"hours"`
	Employees     int     `json:"employees"`
}

type StatusCountDTO struct {
	Status  string  `json:"status"`
	Entries int     `json:"entries"`
	Hours   float64 `json:"hours"`
}

type TaskTypeShareDTO struct {
	TaskTypeId   *int    `json:"taskTypeId,omitempty"`
	TaskTypeName string  `json:"taskTypeName"`
	Hours        float64 `json:"hours"`
	Share        float64 `json:"share"`
}

type DetailedEntryDTO struct {
	EntryId       int       `json:"entryId"`
	EmployeeId    int       `json:"employeeId"`
	EmployeeName  string    `json:"employeeName"`
	BadgeId       string    `json:"badgeId,omitempty"`
	ProjectId     int       `json:"projectId"`
	ProjectName   string    `json:"projectName"`
	ProjectNumber string    `json:"projectNumber,omitempty"`
	Billable      bool      `json:"billable"`
	TaskId        int       `json:"taskId"`
	TaskName      string    `json:"taskName"`
	TaskTypeName  string    `json:"taskTypeName,omitempty"`
	WeekStart     string    `json:"weekStart"`
	Hours         []float64 `json:"hours"`
	Total         float64   `json:"total"`
	Status        string    `json:"status"`
	Notes         string    `json:"notes,omitempty"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func parseRange(r *http.Request) (Range, error) {
	from, err := rest.ParseDate(r.URL.Query().Get("from"))
	if err != nil {
		return Range{}, fmt.Errorf("from: %w", err)
	}
	to, err := rest.ParseDate(r.URL.Query().Get("to"))
	if err != nil {
		return Range{}, fmt.Errorf("to: %w", err)
	}
	return Range{From: from, To: to}, nil
}

// Totals godoc
// @Summary Total and billable hours in the caller's scope
// @Tags Report
// @Produce json
// @Param from query string true "First week start (YYYY-MM-DD)"
// @Param to query string true "Last week start (YYYY-MM-DD)"
// @Success 200 {object} TotalsDTO
// @Failure 400 {object} rest.ErrorResponse
// @Router /api/report/totals [get]
// @Security XUserId
func (h *Handler) Totals(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r)
	if err != nil {
		rest.WriteBadRequest(w, "Invalid date range", err.Error())
		return
	}
	totals, err := h.service.Totals(r.Context(), rng)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, TotalsDTO(totals))
}

// SummaryByProject godoc
// @Summary Hours per project
// @Tags Report
// @Produce json
// @Param from query string true "First week start (YYYY-MM-DD)"
// @Param to query string true "Last week start (YYYY-MM-DD)"
// @Success 200 {array} ProjectSummaryDTO
// @Router /api/report/projects [get]
// @Security XUserId
func (h *Handler) SummaryByProject(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r)
	if err != nil {
		rest.WriteBadRequest(w, "Invalid date range", err.Error())
		return
	}
	summary, err := h.service.SummaryByProject(r.Context(), rng)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	dtos := make([]ProjectSummaryDTO, 0, len(summary))
	for _, s := range summary {
		dtos = append(dtos, ProjectSummaryDTO(s))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

// StatusBreakdown godoc
// @Summary Entry count and hours per status
// @Tags Report
// @Produce json
// @Param from query string true "First week start (YYYY-MM-DD)"
// @Param to query string true "Last week start (YYYY-MM-DD)"
// @Success 200 {array} StatusCountDTO
// @Router /api/report/statuses [get]
// @Security XUserId
func (h *Handler) StatusBreakdown(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r)
	if err != nil {
		rest.WriteBadRequest(w, "Invalid date range", err.Error())
		return
	}
	counts, err := h.service.StatusBreakdown(r.Context(), rng)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	dtos := make([]StatusCountDTO, 0, len(counts))
	for _, c := range counts {
		dtos = append(dtos, StatusCountDTO{Status: string(c.Status), Entries: c.Entries, Hours: c.Hours})
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

// TaskTypeDistribution godoc
// @Summary Hours per task type
// @Tags Report
// @Produce json
// @Param from query string true "First week start (YYYY-MM-DD)"
// @Param to query string true "Last week start (YYYY-MM-DD)"
// @Success 200 {array} TaskTypeShareDTO
// @Router /api/report/tasktypes [get]
// @Security XUserId
func (h *Handler) TaskTypeDistribution(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r)
	if err != nil {
		rest.WriteBadRequest(w, "Invalid date range", err.Error())
		return
	}
	shares, err := h.service.TaskTypeDistribution(r.Context(), rng)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	dtos := make([]TaskTypeShareDTO, 0, len(shares))
	for _, s := range shares {
		dtos = append(dtos, TaskTypeShareDTO(s))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

// DetailedEntries godoc
// @Summary Entries in the caller's scope
// @Tags Report
// @Produce json
// @Param from query string true "First week start (YYYY-MM-DD)"
// @Param to query string true "Last week start (YYYY-MM-DD)"
// @Param employeeId query int false "Employee ID"
// @Param projectId query int false "Project ID"
// @Param status query string false "Entry status"
// @Success 200 {array} DetailedEntryDTO
// @Router /api/report/entries [get]
// @Security XUserId
func (h *Handler) DetailedEntries(w http.ResponseWriter, r *http.Request) {
	entries, ok := h.detailedEntries(w, r)
	if !ok {
		return
	}
	dtos := make([]DetailedEntryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, DetailedEntryDTO{
			EntryId:       e.EntryId,
			EmployeeId:    e.EmployeeId,
			EmployeeName:  e.EmployeeName,
			BadgeId:       e.BadgeId,
			ProjectId:     e.ProjectId,
			ProjectName:   e.ProjectName,
			ProjectNumber: e.ProjectNumber,
			Billable:      e.Billable,
			TaskId:        e.TaskId,
			TaskName:      e.TaskName,
			TaskTypeName:  e.TaskTypeName,
			WeekStart:     e.WeekStart.Format(rest.DateLayout),
			Hours:         e.Hours[:],
			Total:         e.Hours.Total(),
			Status:        string(e.Status),
			Notes:         e.Notes,
		})
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

// ExportEntries godoc
// @Summary Download entries in the caller's scope
// @Tags Report
// @Produce text/csv
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param from query string true "First week start (YYYY-MM-DD)"
// @Param to query string true "Last week start (YYYY-MM-DD)"
// @Param format query string false "csv (default) or xlsx"
// @Success 200 {file} file
// @Router /api/report/entries/export [get]
// @Security XUserId
func (h *Handler) ExportEntries(w http.ResponseWriter, r *http.Request) {
	renderer, err := NewRenderer(r.URL.Query().Get("format"))
	if err != nil {
		rest.WriteBadRequest(w, "Invalid format", err.Error())
		return
	}
	entries, ok := h.detailedEntries(w, r)
	if !ok {
		return
	}
	content, err := renderer.Render(entries)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	filename := fmt.Sprintf("timesheet-%s.%s", time.Now().Format("20060102"), renderer.Extension())
	w.Header().Set("Content-Type", renderer.ContentType())
	w.Header().Set("Content-Disposition", "attachment; filename=\""+filename+"\"")
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(content); err != nil {
		log.Errorf("failed to write export: %v", err)
	}
}

func (h *Handler) detailedEntries(w http.ResponseWriter, r *http.Request) ([]DetailedEntry, bool) {
	rng, err := parseRange(r)
	if err != nil {
		rest.WriteBadRequest(w, "Invalid date range", err.Error())
		return nil, false
	}
	employeeId, err := rest.QueryInt(r, "employeeId")
	if err != nil {
		rest.WriteBadRequest(w, "Invalid employeeId", err.Error())
		return nil, false
	}
	projectId, err := rest.QueryInt(r, "projectId")
	if err != nil {
		rest.WriteBadRequest(w, "Invalid projectId", err.Error())
		return nil, false
	}
	filter := DetailFilter{EmployeeId: employeeId, ProjectId: projectId, Status: timesheet.Status(r.URL.Query().Get("status"))}
	entries, err := h.service.DetailedEntries(r.Context(), rng, filter)
	if err != nil {
		rest.WriteError(w, err)
		return nil, false
	}
	return entries, true
}
