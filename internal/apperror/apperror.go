// Package apperror defines the error kinds the core surfaces to its callers.
//
// Every error the services return for an expected outcome (missing record,
// wrong actor, full collection, bad input) is an *AppError wrapping one of the
// sentinels below. Callers inspect it with errors.Is and map it to whatever
// their transport needs; the core never speaks HTTP.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("Validation Error")
	ErrConflict         = errors.New("conflict")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrCapacityExceeded = errors.New("capacity exceeded")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
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

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Unauthorized returns an AppError indicating the actor does not own or did
// not author the target. It is distinct from NotFound so callers can tell
// "exists but not yours" apart from "does not exist".
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// CapacityExceeded reports that a capped collection already holds its
// maximum number of live entries.
func CapacityExceeded(collection string, limit int) *AppError {
	return &AppError{
		Err:     ErrCapacityExceeded,
		Message: fmt.Sprintf("%s is limited to %d entries", collection, limit),
		Field:   collection,
	}
}
