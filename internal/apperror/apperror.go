// Package apperror defines the application error taxonomy.
//
// Storage and service code return these typed errors; the HTTP layer maps
// them to status codes in one place (handler.writeError). Classification is
// done with errors.Is against the sentinels below, extraction of the
// human-readable message with errors.As against *AppError.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrVersionConflict = errors.New("version conflict")
)

type AppError struct {
	Err     error  // sentinel, for errors.Is classification
	Message string // human-readable, safe to return to clients
	Field   string // optional: field causing a validation error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

func Unauthenticated(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: message,
	}
}

// Forbidden is part of the taxonomy for completeness. Ownership checks in
// the repositories are query filters, so a row owned by another user
// surfaces as NotFound rather than Forbidden: an absent row and a
// forbidden row are indistinguishable to the caller.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// VersionConflict is returned when an optimistic-concurrency save loses the
// race. It carries both version numbers so the client can offer a
// reload-or-overwrite choice; no merge is attempted server-side.
type VersionConflict struct {
	ServerVersion int
	ClientVersion int
}

func (e *VersionConflict) Error() string {
	return fmt.Sprintf("version conflict: server has version %d, client sent %d",
		e.ServerVersion, e.ClientVersion)
}

func (e *VersionConflict) Unwrap() error {
	return ErrVersionConflict
}
