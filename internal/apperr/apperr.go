// Package apperr holds the error kinds shared by every service. Handlers map them to HTTP statuses in
// internal/rest; services wrap storage failures in PersistenceError so that callers never see driver errors.
package apperr

import (
	"errors"
	"fmt"
)

// ValidationError reports caller supplied data that breaks a business rule.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

func Validation(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// AuthorizationError reports that the acting user has no scope over the target.
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string {
	return "not authorized: " + e.Reason
}

func Unauthorized(format string, args ...any) error {
	return &AuthorizationError{Reason: fmt.Sprintf(format, args...)}
}

// PersistenceError wraps a failed storage operation.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Persistence wraps err unless it already is one of the kinds in this package.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsKnown(err) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// NotificationError reports a failed best-effort notification.
type NotificationError struct {
	Recipient string
	Err       error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("failed to notify %s: %v", e.Recipient, e.Err)
}

func (e *NotificationError) Unwrap() error {
	return e.Err
}

// ConflictError reports a lost race: the target changed since the caller read it.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return "conflict: " + e.Reason
}

func Conflict(format string, args ...any) error {
	return &ConflictError{Reason: fmt.Sprintf(format, args...)}
}

type NotFoundError struct {
	Resource string
	Id       any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Resource, e.Id)
}

func NotFound(resource string, id any) error {
	return &NotFoundError{Resource: resource, Id: id}
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsAuthorization(err error) bool {
	var target *AuthorizationError
	return errors.As(err, &target)
}

func IsPersistence(err error) bool {
	var target *PersistenceError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsNotification(err error) bool {
	var target *NotificationError
	return errors.As(err, &target)
}

// IsKnown reports whether err already carries one of the kinds above.
func IsKnown(err error) bool {
	return IsValidation(err) || IsAuthorization(err) || IsPersistence(err) ||
		IsConflict(err) || IsNotFound(err) || IsNotification(err)
}
