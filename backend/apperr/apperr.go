package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error carries the HTTP status and a stable machine code next to the cause.
type Error struct {
	Status int
	Code   string
	Err    error
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
	return fmt.Sprintf("app error (%d)", e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

var (
	ErrNotFound             = New(http.StatusNotFound, "not_found", errors.New("not found"))
	ErrAlreadyEnrolled      = New(http.StatusConflict, "already_enrolled", errors.New("already enrolled"))
	ErrNotEnrolled          = New(http.StatusConflict, "not_enrolled", errors.New("not enrolled"))
	ErrIncompleteSubmission = New(http.StatusUnprocessableEntity, "incomplete_submission", errors.New("all questions must be answered"))
	ErrPersistence          = New(http.StatusBadGateway, "persistence_failure", errors.New("could not save changes"))
	ErrConflict             = New(http.StatusConflict, "version_conflict", errors.New("document was modified concurrently"))
	ErrIndexOutOfRange      = New(http.StatusBadRequest, "index_out_of_range", errors.New("index out of range"))
	ErrValidation           = New(http.StatusUnprocessableEntity, "validation_error", errors.New("validation failed"))
	ErrUnauthorized         = New(http.StatusUnauthorized, "unauthorized", errors.New("unauthorized"))
	ErrForbidden            = New(http.StatusForbidden, "forbidden", errors.New("forbidden"))
	ErrAttemptsExhausted    = New(http.StatusForbidden, "attempts_exhausted", errors.New("no attempts left"))
	ErrEmailTaken           = New(http.StatusConflict, "email_taken", errors.New("email already registered"))
)

// StatusOf walks the chain for the first *Error and returns its status,
// or 500 when nothing in the chain carries one.
func StatusOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) && ae.Status != 0 {
		return ae.Status
	}
	return http.StatusInternalServerError
}

func CodeOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Code != "" {
		return ae.Code
	}
	return "internal_error"
}

// ValidationError lists the offending fields of a rejected payload.
type ValidationError struct {
	Fields map[string]string
}

func (v *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(v.Fields))
}

func (v *ValidationError) Unwrap() error { return ErrValidation }

func NewValidation(fields map[string]string) error {
	return &ValidationError{Fields: fields}
}
