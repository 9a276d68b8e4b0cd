package types

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Use errors.Is against these to classify a failure.
var (
	ErrValidation   = errors.New("validation error")
	ErrAuthRequired = errors.New("authentication required")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidState = errors.New("invalid state")
	ErrNotFound     = errors.New("not found")
	ErrCollaborator = errors.New("collaborator failure")

	ErrVotingClosed     = fmt.Errorf("%w: voting closed", ErrInvalidState)
	ErrWindowNotElapsed = fmt.Errorf("%w: voting window not elapsed", ErrInvalidState)
)

// CustomError is the user-visible failure returned by services and rendered by the API.
type CustomError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type"`
	Err     error  `json:"-"`
}

func (e *CustomError) Error() string {
	return fmt.Sprintf("%d: %s [type: %s]", e.Code, e.Message, e.Type)
}

// Unwrap exposes the error kind so callers can use errors.Is.
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewError builds a CustomError for the given kind. Code and Type derive from the kind.
func NewError(kind error, format string, args ...any) *CustomError {
	return &CustomError{
		Code:    StatusCode(kind),
		Message: fmt.Sprintf(format, args...),
		Type:    TypeOf(kind),
		Err:     kind,
	}
}

// Validation reports malformed input.
func Validation(format string, args ...any) *CustomError {
	return NewError(ErrValidation, format, args...)
}

// Collaborator wraps a storage or network failure from an external collaborator.
func Collaborator(op string, err error) *CustomError {
	return &CustomError{
		Code:    http.StatusInternalServerError,
		Message: fmt.Sprintf("%s: %v", op, err),
		Type:    TypeOf(ErrCollaborator),
		Err:     fmt.Errorf("%w: %w", ErrCollaborator, err),
	}
}

// StatusCode maps an error kind to an HTTP status.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrAuthRequired):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidState):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// TypeOf maps an error kind to the machine readable type string of the error envelope.
func TypeOf(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrAuthRequired):
		return "auth.required"
	case errors.Is(err, ErrForbidden):
		return "auth.forbidden"
	case errors.Is(err, ErrNotFound):
		return "notfound"
	case errors.Is(err, ErrVotingClosed):
		return "state.votingClosed"
	case errors.Is(err, ErrWindowNotElapsed):
		return "state.windowNotElapsed"
	case errors.Is(err, ErrInvalidState):
		return "state.invalid"
	case errors.Is(err, ErrCollaborator):
		return "collaborator"
	}
	return "unknown"
}
