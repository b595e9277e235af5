package timesheet

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gorilla/mux"
	"github.com/klokku/timesheet/internal/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func saveWeekRequest(t *testing.T, body any) *http.Request {
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPut, "/api/timesheet/week?date=2024-01-10", bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	return req.WithContext(ctx)
}

func TestHandler_SaveWeek(t *testing.T) {
	t.Run("should map every hour of the row onto its weekday", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		handler := NewHandler(service)
		body := SaveWeekRequest{Status: "draft", Rows: []RowDTO{
			{ProjectId: 1, TaskId: 10, Hours: []float64{1, 2, 3, 4, 5, 6, 7}, Notes: "release"},
		}}

		// when
		w := httptest.NewRecorder()
		handler.SaveWeek(w, saveWeekRequest(t, body))

		// then
		assert.Equal(t, http.StatusOK, w.Code)
		entries := repoStub.GetAllEntries()
		require.Len(t, entries, 1)
		assert.Equal(t, hours(1, 2, 3, 4, 5, 6, 7), entries[0].Hours)
		assert.Equal(t, "release", entries[0].Notes)
		assert.Equal(t, weekW, entries[0].WeekStart)

		var week WeekDTO
		require.NoError(t, json.NewDecoder(w.Body).Decode(&week))
		assert.Equal(t, "2024-01-08", week.WeekStart)
		assert.Equal(t, "draft", week.Status)
		assert.InDelta(t, 28.0, week.Total, 0.0001)
	})

	t.Run("should return 400 when a row does not carry seven days", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		handler := NewHandler(service)
		body := SaveWeekRequest{Status: "submitted", Rows: []RowDTO{
			{ProjectId: 1, TaskId: 10, Hours: []float64{8, 8, 8, 8, 8, 0}},
		}}

		w := httptest.NewRecorder()
		handler.SaveWeek(w, saveWeekRequest(t, body))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, repoStub.GetAllEntries())
	})

	t.Run("should return 400 for an unknown target status", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		handler := NewHandler(service)
		body := SaveWeekRequest{Status: "approved", Rows: []RowDTO{
			{ProjectId: 1, TaskId: 10, Hours: []float64{8, 0, 0, 0, 0, 0, 0}},
		}}

		w := httptest.NewRecorder()
		handler.SaveWeek(w, saveWeekRequest(t, body))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("should return 400 with the reason when the week goes over 40 hours", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		handler := NewHandler(service)
		body := SaveWeekRequest{Status: "submitted", Rows: []RowDTO{
			{ProjectId: 1, TaskId: 10, Hours: []float64{8, 8, 8, 8, 9, 0, 0}},
		}}

		// when
		w := httptest.NewRecorder()
		handler.SaveWeek(w, saveWeekRequest(t, body))

		// then
		assert.Equal(t, http.StatusBadRequest, w.Code)
		var errResponse rest.ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&errResponse))
		assert.Equal(t, "Validation failed", errResponse.Error)
		assert.Contains(t, errResponse.Details, "41.00")
		assert.Empty(t, repoStub.GetAllEntries())
	})

	t.Run("should return 409 when the row version is stale", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		handler := NewHandler(service)
		existing := seed(1, 10, weekW, StatusDraft, hours(8))
		stale := existing.Version + 4
		body := SaveWeekRequest{Status: "draft", Rows: []RowDTO{
			{ProjectId: 1, TaskId: 10, Hours: []float64{4, 0, 0, 0, 0, 0, 0}, Version: &stale},
		}}

		w := httptest.NewRecorder()
		handler.SaveWeek(w, saveWeekRequest(t, body))

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func updateEntryRequest(t *testing.T, id int, dto EntryDTO) *http.Request {
	payload, err := json.Marshal(dto)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPut, "/api/admin/entry/"+strconv.Itoa(id), bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	req = mux.SetURLVars(req, map[string]string{"entryId": strconv.Itoa(id)})
	return req.WithContext(adminCtx)
}

func TestHandler_UpdateEntry(t *testing.T) {
	t.Run("should return 400 when rejecting without a comment", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		handler := NewHandler(service)
		submitted := seed(1, 10, weekW, StatusSubmitted, hours(8))

		w := httptest.NewRecorder()
		handler.UpdateEntry(w, updateEntryRequest(t, submitted.Id, EntryDTO{EmployeeId: employeeId, ProjectId: 1,
			TaskId: 10, WeekStart: "2024-01-08", Hours: []float64{8, 0, 0, 0, 0, 0, 0}, Status: "rejected"}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, repoStub.Approvals())
	})

	t.Run("should pass the comment to the approval ledger", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		handler := NewHandler(service)
		submitted := seed(1, 10, weekW, StatusSubmitted, hours(8))

		// when
		w := httptest.NewRecorder()
		handler.UpdateEntry(w, updateEntryRequest(t, submitted.Id, EntryDTO{EmployeeId: employeeId, ProjectId: 1,
			TaskId: 10, WeekStart: "2024-01-08", Hours: []float64{8, 0, 0, 0, 0, 0, 0}, Status: "rejected",
			Comment: "wrong task"}))

		// then
		assert.Equal(t, http.StatusOK, w.Code)
		var dto EntryDTO
		require.NoError(t, json.NewDecoder(w.Body).Decode(&dto))
		assert.Equal(t, "rejected", dto.Status)
		assert.Equal(t, []StubApproval{{EntryId: submitted.Id, ApproverId: 1, Decision: StatusRejected, Comment: "wrong task"}},
			repoStub.Approvals())
	})

	t.Run("should return 404 for an unknown entry", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		handler := NewHandler(service)

		w := httptest.NewRecorder()
		handler.UpdateEntry(w, updateEntryRequest(t, 999, EntryDTO{EmployeeId: employeeId, ProjectId: 1,
			TaskId: 10, WeekStart: "2024-01-08", Hours: []float64{8, 0, 0, 0, 0, 0, 0}, Status: "draft"}))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
