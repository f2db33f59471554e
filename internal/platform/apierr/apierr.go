package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced in response bodies.
const (
	CodeValidation         = "validation_error"
	CodeNotFound           = "not_found"
	CodeServiceUnavailable = "service_unavailable"
	CodePersistence        = "persistence_error"
	CodeInternal           = "internal_error"
	CodePayloadTooLarge    = "payload_too_large"
)

type Error struct {
	Status  int
	Code    string
	Err     error
	Details map[string]any
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

// WithDetail attaches an extra response field and returns e.
func (e *Error) WithDetail(key string, val any) *Error {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	e.Details[key] = val
	return e
}

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func Validation(format string, args ...any) *Error {
	return New(http.StatusBadRequest, CodeValidation, fmt.Errorf(format, args...))
}

func NotFound(format string, args ...any) *Error {
	return New(http.StatusNotFound, CodeNotFound, fmt.Errorf(format, args...))
}

// Unavailable marks a failed call to an upstream dependency. It maps to a
// 500 so callers see the same status the widget already handles.
func Unavailable(err error) *Error {
	return New(http.StatusInternalServerError, CodeServiceUnavailable, err)
}

func Persistence(op string, err error) *Error {
	return New(http.StatusInternalServerError, CodePersistence, fmt.Errorf("%s: %w", op, err))
}

func TooLarge(limit int64) *Error {
	return New(http.StatusRequestEntityTooLarge, CodePayloadTooLarge, fmt.Errorf("request body exceeds %d bytes", limit))
}

// Is reports whether err carries an *Error with the given code.
func Is(err error, code string) bool {
	var ae *Error
	if !errors.As(err, &ae) {
		return false
	}
	return ae.Code == code
}

// From extracts an *Error from err, falling back to a generic 500.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) && ae != nil {
		return ae
	}
	return New(http.StatusInternalServerError, CodeInternal, err)
}
