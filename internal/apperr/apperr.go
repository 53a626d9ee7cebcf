// Package apperr classifies failures so transports can map them to a status.
package apperr

import (
	"errors"
	"net/http"
)

// Kind identifies the category of a failure.
type Kind string

const (
	Validation           Kind = "validation"
	NotFound             Kind = "not_found"
	GeneratorUnavailable Kind = "generator_unavailable"
	Internal             Kind = "internal"
)

// Error carries a Kind, a client-facing message and optional per-field detail.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same Kind, so errors.Is(err, apperr.ErrNotFound) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == ""
}

// Sentinels for errors.Is comparisons.
var (
	ErrValidation           = &Error{Kind: Validation}
	ErrNotFound             = &Error{Kind: NotFound}
	ErrGeneratorUnavailable = &Error{Kind: GeneratorUnavailable}
)

// NewValidation builds a validation error. fields may be nil.
func NewValidation(message string, fields map[string]string) *Error {
	return &Error{Kind: Validation, Message: message, Fields: fields}
}

// NewNotFound builds a not-found error.
func NewNotFound(message string) *Error {
	return &Error{Kind: NotFound, Message: message}
}

// NewGeneratorUnavailable wraps a generator failure.
func NewGeneratorUnavailable(message string, err error) *Error {
	return &Error{Kind: GeneratorUnavailable, Message: message, Err: err}
}

// KindOf reports the Kind of err, or Internal when err carries none.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Internal
}

// HTTPStatus maps err to a response status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case Validation:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case GeneratorUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
