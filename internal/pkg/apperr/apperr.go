// Package apperr provides the structured error type returned by services and
// rendered by the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes.
const (
	CodeValidation     = "VALIDATION_ERROR"
	CodeUnauthorized   = "AUTHENTICATION_FAILED"
	CodeForbidden      = "PERMISSION_DENIED"
	CodeNotFound       = "NOT_FOUND"
	CodeConflict       = "CONFLICT"
	CodeInternal       = "INTERNAL_ERROR"
	CodeInvalidRequest = "INVALID_REQUEST"
)

// AppError is an application error carrying its HTTP status.
type AppError struct {
	Code        string       `json:"code"`
	Message     string       `json:"message"`
	HTTPStatus  int          `json:"-"`
	FieldErrors []FieldError `json:"field_errors,omitempty"`
	Err         error        `json:"-"`
}

// FieldError describes a field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithFieldErrors attaches field-level errors.
func (e *AppError) WithFieldErrors(fieldErrors []FieldError) *AppError {
	if e == nil || len(fieldErrors) == 0 {
		return e
	}
	e.FieldErrors = fieldErrors
	return e
}

// New creates a new AppError.
func New(code, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus}
}

// Wrap wraps err into an AppError.
func Wrap(err error, code, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus, Err: err}
}

// Validation creates a 400 error.
func Validation(message string) *AppError {
	return New(CodeValidation, message, http.StatusBadRequest)
}

// FieldValidation creates a 400 error for a single field.
func FieldValidation(field, message string) *AppError {
	return Validation(message).WithFieldErrors([]FieldError{{Field: field, Message: message}})
}

// Unauthorized creates a 401 error.
func Unauthorized(message string) *AppError {
	return New(CodeUnauthorized, message, http.StatusUnauthorized)
}

// Forbidden creates a 403 error.
func Forbidden(message string) *AppError {
	if message == "" {
		message = "You do not have permission to perform this action."
	}
	return New(CodeForbidden, message, http.StatusForbidden)
}

// NotFound creates a 404 error.
func NotFound(message string) *AppError {
	if message == "" {
		message = "Not found."
	}
	return New(CodeNotFound, message, http.StatusNotFound)
}

// Conflict creates a 409 error.
func Conflict(message string) *AppError {
	return New(CodeConflict, message, http.StatusConflict)
}

// Internal creates a 500 error.
func Internal(message string) *AppError {
	return New(CodeInternal, message, http.StatusInternalServerError)
}

// As reports whether err is (or wraps) an AppError and returns it.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// StatusOf returns the HTTP status for err, 500 for anything that is not an AppError.
func StatusOf(err error) int {
	if appErr, ok := As(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}
