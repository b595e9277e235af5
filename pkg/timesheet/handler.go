package timesheet

import (
	"net/http"
	"time"

	"github.com/klokku/timesheet/internal/rest"
	"github.com/klokku/timesheet/pkg/assignment"
	"github.com/klokku/timesheet/pkg/user"
)

type WeekRowDTO struct {
	ProjectId       int       `json:"projectId"`
	ProjectName     string    `json:"projectName"`
	Billable        bool      `json:"billable"`
	TaskId          int       `json:"taskId"`
	TaskName        string    `json:"taskName"`
	TaskTypeName    string    `json:"taskTypeName,omitempty"`
	AssignmentId    *int      `json:"assignmentId,omitempty"`
	Assignment      string    `json:"assignment,omitempty"`
	AssignmentNotes string    `json:"assignmentNotes,omitempty"`
	ValidFrom       *string   `json:"validFrom,omitempty"`
	ValidTo         *string   `json:"validTo,omitempty"`
	EntryId         *int      `json:"entryId,omitempty"`
	Version         *int      `json:"version,omitempty"`
	Status          *string   `json:"status,omitempty"`
	Hours           []float64 `json:"hours"`
	Notes           string    `json:"notes"`
	Legacy          bool      `json:"legacy"`
}

type WeekDTO struct {
	EmployeeId      int          `json:"employeeId"`
	WeekStart       string       `json:"weekStart"`
	WeekEnd         string       `json:"weekEnd"`
	Status          string       `json:"status"`
	Editable        bool         `json:"editable"`
	Total           float64      `json:"total"`
	RejectionReason string       `json:"rejectionReason,omitempty"`
	SubmissionBlock string       `json:"submissionBlock,omitempty"`
	Rows            []WeekRowDTO `json:"rows"`
}

type RowDTO struct {
	ProjectId    int       `json:"projectId"`
	TaskId       int       `json:"taskId"`
	AssignmentId *int      `json:"assignmentId,omitempty"`
	Hours        []float64 `json:"hours" validate:"len=7,dive,gte=0"`
	Notes        string    `json:"notes" validate:"max=2000"`
	Version      *int      `json:"version,omitempty"`
}

type SaveWeekRequest struct {
	Status string   `json:"status" validate:"required,oneof=draft submitted"`
	Rows   []RowDTO `json:"rows" validate:"dive"`
}

type WeekStatusDTO struct {
	Status string `json:"status"`
}

type AssignableWorkDTO struct {
	AssignmentId int     `json:"assignmentId"`
	ProjectId    int     `json:"projectId"`
	ProjectName  string  `json:"projectName"`
	Client       string  `json:"client,omitempty"`
	Billable     bool    `json:"billable"`
	TaskId       int     `json:"taskId"`
	TaskName     string  `json:"taskName"`
	TaskTypeName string  `json:"taskTypeName,omitempty"`
	Name         string  `json:"name"`
	Status       string  `json:"status"`
	Notes        string  `json:"notes,omitempty"`
	StartDate    string  `json:"startDate"`
	EndDate      *string `json:"endDate,omitempty"`
}

type EntryDTO struct {
	Id           int       `json:"id"`
	EmployeeId   int       `json:"employeeId" validate:"required"`
	ProjectId    int       `json:"projectId" validate:"required"`
	TaskId       int       `json:"taskId" validate:"required"`
	AssignmentId *int      `json:"assignmentId,omitempty"`
	WeekStart    string    `json:"weekStart" validate:"required,datetime=2006-01-02"`
	Hours        []float64 `json:"hours" validate:"len=7,dive,gte=0"`
	Status       string    `json:"status" validate:"omitempty,oneof=draft submitted approved rejected"`
	Notes        string    `json:"notes" validate:"max=2000"`
	Version      int       `json:"version"`
	// Comment goes to the approval ledger when an administrator approves or rejects the entry.
	Comment string `json:"comment,omitempty" validate:"max=2000"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// GetWeek godoc
// @Summary Load a timesheet week
// @Description Rows for every assignable task of the week merged with saved entries
// @Tags Timesheet
// @Produce json
// @Param date query string false "Any day of the week (YYYY-MM-DD), today when omitted"
// @Param employeeId query int false "Employee ID, administrators only"
// @Success 200 {object} WeekDTO
// @Failure 400 {object} rest.ErrorResponse
// @Failure 403 {object} rest.ErrorResponse
// @Router /api/timesheet/week [get]
// @Security XUserId
func (h *Handler) GetWeek(w http.ResponseWriter, r *http.Request) {
	employeeId, date, ok := weekParams(w, r)
	if !ok {
		return
	}
	week, err := h.service.LoadWeek(r.Context(), employeeId, date)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, weekToDTO(week))
}

// SaveWeek godoc
// @Summary Save or submit a timesheet week
// @Tags Timesheet
// @Accept json
// @Produce json
// @Param date query string false "Any day of the week (YYYY-MM-DD), today when omitted"
// @Param employeeId query int false "Employee ID, administrators only"
// @Param week body SaveWeekRequest true "Rows and target status"
// @Success 200 {object} WeekDTO
// @Failure 400 {object} rest.ErrorResponse "Validation failed, e.g. more than 40 hours"
// @Failure 409 {object} rest.ErrorResponse "Concurrent modification"
// @Failure 503 {object} rest.ErrorResponse
// @Router /api/timesheet/week [put]
// @Security XUserId
func (h *Handler) SaveWeek(w http.ResponseWriter, r *http.Request) {
	employeeId, date, ok := weekParams(w, r)
	if !ok {
		return
	}
	var req SaveWeekRequest
	if err := rest.DecodeAndValidate(r, &req); err != nil {
		rest.WriteBadRequest(w, "Invalid timesheet", err.Error())
		return
	}
	rows := make([]Row, 0, len(req.Rows))
	for _, dto := range req.Rows {
		row := Row{
			ProjectId:       dto.ProjectId,
			TaskId:          dto.TaskId,
			AssignmentId:    dto.AssignmentId,
			Notes:           dto.Notes,
			ExpectedVersion: dto.Version,
		}
		copy(row.Hours[:], dto.Hours)
		rows = append(rows, row)
	}
	if err := h.service.Save(r.Context(), employeeId, date, rows, Status(req.Status)); err != nil {
		rest.WriteError(w, err)
		return
	}
	week, err := h.service.LoadWeek(r.Context(), employeeId, date)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, weekToDTO(week))
}

// GetWeekStatus godoc
// @Summary Get the derived status of a week
// @Tags Timesheet
// @Produce json
// @Param date query string false "Any day of the week (YYYY-MM-DD)"
// @Param employeeId query int false "Employee ID, administrators only"
// @Success 200 {object} WeekStatusDTO
// @Router /api/timesheet/week/status [get]
// @Security XUserId
func (h *Handler) GetWeekStatus(w http.ResponseWriter, r *http.Request) {
	employeeId, date, ok := weekParams(w, r)
	if !ok {
		return
	}
	status, err := h.service.WeekStatus(r.Context(), employeeId, date)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, WeekStatusDTO{Status: string(status)})
}

// GetAssignableWork godoc
// @Summary List the work an employee may log time against in a week
// @Tags Timesheet
// @Produce json
// @Param date query string false "Any day of the week (YYYY-MM-DD)"
// @Param employeeId query int false "Employee ID, administrators only"
// @Success 200 {array} AssignableWorkDTO
// @Router /api/timesheet/assignable [get]
// @Security XUserId
func (h *Handler) GetAssignableWork(w http.ResponseWriter, r *http.Request) {
	employeeId, date, ok := weekParams(w, r)
	if !ok {
		return
	}
	views, err := h.service.ListAssignableWork(r.Context(), employeeId, date)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	dtos := make([]AssignableWorkDTO, 0, len(views))
	for _, v := range views {
		dtos = append(dtos, viewToDTO(v))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

// CreateEntry godoc
// @Summary Create an approved entry on behalf of an employee
// @Tags Timesheet
// @Accept json
// @Produce json
// @Param entry body EntryDTO true "Entry"
// @Success 201 {object} EntryDTO
// @Failure 409 {object} rest.ErrorResponse "A live entry exists for the key"
// @Router /api/admin/entry [post]
// @Security XUserId
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	e, _, ok := decodeEntry(w, r)
	if !ok {
		return
	}
	created, err := h.service.AdminCreateEntry(r.Context(), e)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, entryToDTO(created))
}

// UpdateEntry godoc
// @Summary Edit any entry
// @Tags Timesheet
// @Accept json
// @Produce json
// @Param entryId path int true "Entry ID"
// @Param entry body EntryDTO true "Entry"
// @Success 200 {object} EntryDTO
// @Failure 404 {object} rest.ErrorResponse
// @Failure 409 {object} rest.ErrorResponse
// @Router /api/admin/entry/{entryId} [put]
// @Security XUserId
func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	id, err := rest.PathId(r, "entryId")
	if err != nil {
		rest.WriteBadRequest(w, "Invalid entry id", err.Error())
		return
	}
	e, comment, ok := decodeEntry(w, r)
	if !ok {
		return
	}
	e.Id = id
	updated, err := h.service.AdminUpdateEntry(r.Context(), e, comment)
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, entryToDTO(updated))
}

// weekParams reads the optional date and employeeId query parameters. The employee defaults to the caller.
func weekParams(w http.ResponseWriter, r *http.Request) (int, time.Time, bool) {
	date, err := rest.ParseOptionalDate(r.URL.Query().Get("date"))
	if err != nil {
		rest.WriteBadRequest(w, "Incorrect date format", err.Error())
		return 0, time.Time{}, false
	}
	employeeId, err := rest.QueryInt(r, "employeeId")
	if err != nil {
		rest.WriteBadRequest(w, "Invalid employee id", err.Error())
		return 0, time.Time{}, false
	}
	if employeeId == nil {
		currentId, err := user.CurrentId(r.Context())
		if err != nil {
			http.Error(w, "User not found", http.StatusForbidden)
			return 0, time.Time{}, false
		}
		employeeId = &currentId
	}
	var day time.Time
	if date != nil {
		day = *date
	}
	return *employeeId, day, true
}

func decodeEntry(w http.ResponseWriter, r *http.Request) (Entry, string, bool) {
	var dto EntryDTO
	if err := rest.DecodeAndValidate(r, &dto); err != nil {
		rest.WriteBadRequest(w, "Invalid entry", err.Error())
		return Entry{}, "", false
	}
	weekStart, err := rest.ParseDate(dto.WeekStart)
	if err != nil {
		rest.WriteBadRequest(w, "Invalid week start", err.Error())
		return Entry{}, "", false
	}
	e := Entry{
		EmployeeId:   dto.EmployeeId,
		ProjectId:    dto.ProjectId,
		TaskId:       dto.TaskId,
		AssignmentId: dto.AssignmentId,
		WeekStart:    weekStart,
		Status:       Status(dto.Status),
		Notes:        dto.Notes,
		Version:      dto.Version,
	}
	copy(e.Hours[:], dto.Hours)
	return e, dto.Comment, true
}

func weekToDTO(week Week) WeekDTO {
	rows := make([]WeekRowDTO, 0, len(week.Rows))
	for _, row := range week.Rows {
		dto := WeekRowDTO{
			ProjectId:       row.ProjectId,
			ProjectName:     row.ProjectName,
			Billable:        row.Billable,
			TaskId:          row.TaskId,
			TaskName:        row.TaskName,
			TaskTypeName:    row.TaskTypeName,
			AssignmentId:    row.AssignmentId,
			Assignment:      row.Assignment,
			AssignmentNotes: row.AssignmentNotes,
			ValidFrom:       rest.FormatOptionalDate(row.ValidFrom),
			ValidTo:         rest.FormatOptionalDate(row.ValidTo),
			EntryId:         row.EntryId,
			Version:         row.Version,
			Hours:           row.Hours[:],
			Notes:           row.Notes,
			Legacy:          row.Legacy,
		}
		if row.Status != nil {
			status := string(*row.Status)
			dto.Status = &status
		}
		rows = append(rows, dto)
	}
	return WeekDTO{
		EmployeeId:      week.EmployeeId,
		WeekStart:       week.Start.Format(rest.DateLayout),
		WeekEnd:         week.End.Format(rest.DateLayout),
		Status:          string(week.Status),
		Editable:        week.Editable,
		Total:           week.Total,
		RejectionReason: week.RejectionReason,
		SubmissionBlock: week.SubmissionBlock,
		Rows:            rows,
	}
}

func viewToDTO(v assignment.View) AssignableWorkDTO {
	return AssignableWorkDTO{
		AssignmentId: v.AssignmentId,
		ProjectId:    v.ProjectId,
		ProjectName:  v.ProjectName,
		Client:       v.Client,
		Billable:     v.Billable,
		TaskId:       v.TaskId,
		TaskName:     v.TaskName,
		TaskTypeName: v.TaskTypeName,
		Name:         v.Name,
		Status:       string(v.Status),
		Notes:        v.Notes,
		StartDate:    v.StartDate.Format(rest.DateLayout),
		EndDate:      rest.FormatOptionalDate(v.EndDate),
	}
}

func entryToDTO(e Entry) EntryDTO {
	return EntryDTO{
		Id:           e.Id,
		EmployeeId:   e.EmployeeId,
		ProjectId:    e.ProjectId,
		TaskId:       e.TaskId,
		AssignmentId: e.AssignmentId,
		WeekStart:    e.WeekStart.Format(rest.DateLayout),
		Hours:        e.Hours[:],
		Status:       string(e.Status),
		Notes:        e.Notes,
		Version:      e.Version,
	}
}
