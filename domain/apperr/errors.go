// Package apperr defines the error kinds shared by every module and the
// HTTP boundary. Domain outcomes (not found, forbidden, invalid transition)
// are *Error values; anything else is an unexpected failure.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is the stable, machine-readable error kind.
type Code string

const (
	CodeUnauthorized      Code = "UNAUTHORIZED"
	CodeForbidden         Code = "FORBIDDEN"
	CodeNotFound          Code = "NOT_FOUND"
	CodeInvalidTransition Code = "INVALID_TRANSITION"
	CodeConflict          Code = "CONFLICT"
	CodeValidation        Code = "VALIDATION_ERROR"
	CodeInternal          Code = "INTERNAL_ERROR"
)

// HTTPStatus returns the transport status for the code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidTransition:
		return http.StatusBadRequest
	case CodeConflict:
		return http.StatusConflict
	case CodeValidation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Error is an application error. It is JSON-serializable so it can travel
// inside request-reply responses between modules.
type Error struct {
	Code    Code           `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches any *Error with the same code, so errors.Is(err, apperr.Forbidden(""))
// style checks work without comparing messages.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// FieldError is one entry of a validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates an error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Unauthorized reports a missing, invalid or expired credential, or an
// inactive subject.
func Unauthorized(message string) *Error {
	return New(CodeUnauthorized, message)
}

// Forbidden reports an authenticated actor without permission.
func Forbidden(message string) *Error {
	if message == "" {
		message = "You don't have permission to perform this action"
	}
	return New(CodeForbidden, message)
}

// NotFound reports a missing resource, e.g. NotFound("Task", 42).
func NotFound(resource string, identifier any) *Error {
	return &Error{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with id '%v' not found", resource, identifier),
		Details: map[string]any{
			"resource":   resource,
			"identifier": fmt.Sprint(identifier),
		},
	}
}

// InvalidTransition reports a status change outside the workflow graph.
func InvalidTransition(current, target string) *Error {
	return &Error{
		Code:    CodeInvalidTransition,
		Message: fmt.Sprintf("Cannot transition from '%s' to '%s'", current, target),
		Details: map[string]any{
			"current_state": current,
			"target_state":  target,
		},
	}
}

// Conflict reports a duplicate unique field.
func Conflict(message string) *Error {
	return New(CodeConflict, message)
}

// Validation reports malformed input with per-field messages.
func Validation(message string, fields ...FieldError) *Error {
	if message == "" {
		message = "Request validation failed"
	}
	e := New(CodeValidation, message)
	if len(fields) > 0 {
		e.Details = map[string]any{"errors": fields}
	}
	return e
}

// Internal is the client-facing form of any unexpected failure.
func Internal() *Error {
	return New(CodeInternal, "An unexpected error occurred")
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CodeOf classifies any error. Non-application errors are INTERNAL_ERROR.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return CodeInternal
}

// Split separates a domain outcome from an unexpected failure: exactly one
// of the returned values is non-nil when err is non-nil.
func Split(err error) (*Error, error) {
	if err == nil {
		return nil, nil
	}
	if appErr, ok := As(err); ok {
		return appErr, nil
	}
	return nil, err
}

// Public returns the error as it may be shown to a client: application
// errors unchanged, everything else collapsed to Internal().
func Public(err error) *Error {
	if appErr, ok := As(err); ok {
		return appErr
	}
	return Internal()
}
