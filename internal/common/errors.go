package common

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds shared by the realtime core. Concrete failures wrap one of these,
// so callers branch with errors.Is.
var (
	// ErrTransport the event channel or the HTTP transport is unreachable or dropped
	ErrTransport = errors.New("transport unavailable")
	// ErrConflict the server rejected a transition because of a concurrent state change
	ErrConflict = errors.New("conflicting state change")
	// ErrValidation the input was rejected before (or by) the server
	ErrValidation = errors.New("invalid input")
	// ErrNotFound the post or conversation no longer exists
	ErrNotFound = errors.New("resource not found")

	ErrUnauthorized  = errors.New("unauthorized")
	ErrRequestFailed = errors.New("request failed")
	ErrNotConfirmed  = errors.New("action not confirmed")
	ErrClosed        = errors.New("closed")
)

// APIError describes a failed REST call
type APIError struct {
	Op      string
	Status  int
	Message string
	Kind    error
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %d %s: %s", e.Op, e.Status, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %d %s", e.Op, e.Status, e.Kind)
}

func (e *APIError) Unwrap() error {
	return e.Kind
}

// KindForStatus maps an HTTP status to an error kind
func KindForStatus(status int) error {
	switch status {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ErrValidation
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	default:
		return ErrRequestFailed
	}
}

// StatusForError maps an error kind back to an HTTP status (server side)
func StatusForError(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Validation returns an ErrValidation wrapping a field message
func Validation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}
