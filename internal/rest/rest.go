package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/klokku/timesheet/internal/apperr"
	log "github.com/sirupsen/logrus"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

const DateLayout = "2006-01-02"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// WriteJSON encodes body with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Errorf("failed to encode response: %v", err)
	}
}

// WriteBadRequest writes a 400 with an ErrorResponse body.
func WriteBadRequest(w http.ResponseWriter, message string, details string) {
	WriteJSON(w, http.StatusBadRequest, ErrorResponse{Error: message, Details: details})
}

// WriteError maps the error kinds of internal/apperr to HTTP statuses. Anything unknown is a 500.
func WriteError(w http.ResponseWriter, err error) {
	var (
		validationErr    *apperr.ValidationError
		authorizationErr *apperr.AuthorizationError
		notFoundErr      *apperr.NotFoundError
		conflictErr      *apperr.ConflictError
		persistenceErr   *apperr.PersistenceError
	)
	switch {
	case errors.As(err, &validationErr):
		WriteJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Validation failed", Details: validationErr.Reason})
	case errors.As(err, &authorizationErr):
		WriteJSON(w, http.StatusForbidden, ErrorResponse{Error: "Forbidden", Details: authorizationErr.Reason})
	case errors.As(err, &notFoundErr):
		WriteJSON(w, http.StatusNotFound, ErrorResponse{Error: "Not found", Details: notFoundErr.Error()})
	case errors.As(err, &conflictErr):
		WriteJSON(w, http.StatusConflict, ErrorResponse{Error: "Conflict", Details: conflictErr.Reason})
	case errors.As(err, &persistenceErr):
		log.Errorf("persistence failure: %v", err)
		WriteJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error:   "Storage temporarily unavailable",
			Details: "The operation was not applied, please retry",
		})
	default:
		log.Errorf("unexpected error: %v", err)
		WriteJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
	}
}

// DecodeAndValidate reads a JSON body into dst and runs struct validation on it.
// The returned error is already formatted for an ErrorResponse.
func DecodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.New(FormatValidationError(err))
	}
	if err := validate.Struct(dst); err != nil {
		return errors.New(FormatValidationError(err))
	}
	return nil
}

func FormatValidationError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, io.EOF) {
		return "Request body is empty"
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return fmt.Sprintf("Invalid JSON at byte offset %d", syntaxErr.Offset)
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Sprintf("Field '%s' should be of type %s", typeErr.Field, typeErr.Type.String())
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		out := make([]string, 0, len(ve))
		for _, fe := range ve {
			out = append(out, formatFieldError(fe))
		}
		return strings.Join(out, ", ")
	}
	return err.Error()
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("Field '%s' is required", fe.Field())
	case "email":
		return fmt.Sprintf("Field '%s' must be a valid email", fe.Field())
	case "min", "gte":
		return fmt.Sprintf("Field '%s' must be at least %s", fe.Field(), fe.Param())
	case "max", "lte":
		return fmt.Sprintf("Field '%s' must be at most %s", fe.Field(), fe.Param())
	case "len":
		return fmt.Sprintf("Field '%s' must have length %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("Field '%s' must be one of [%s]", fe.Field(), fe.Param())
	case "datetime":
		return fmt.Sprintf("Field '%s' must be a date in format %s", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("Field '%s' failed validation for '%s'", fe.Field(), fe.Tag())
}

// ParseDate accepts a plain date (2006-01-02) or an RFC3339 timestamp and returns the UTC calendar day.
func ParseDate(value string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be in %s or RFC3339 format", DateLayout)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// ParseOptionalDate parses value when present, nil otherwise.
func ParseOptionalDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := ParseDate(value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FormatOptionalDate renders t with DateLayout, or nil.
func FormatOptionalDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(DateLayout)
	return &s
}

// PathId reads an integer route variable.
func PathId(r *http.Request, name string) (int, error) {
	value, ok := mux.Vars(r)[name]
	if !ok {
		return 0, fmt.Errorf("missing path parameter %s", name)
	}
	id, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("path parameter %s must be a number", name)
	}
	return id, nil
}

// QueryInt reads an optional integer query parameter.
func QueryInt(r *http.Request, name string) (*int, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return nil, nil
	}
	id, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("query parameter %s must be a number", name)
	}
	return &id, nil
}
