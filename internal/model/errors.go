package model

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by a service wraps exactly one of these,
// and the API layer maps kinds to status codes.
var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("not found")
	ErrStorage      = errors.New("storage failure")
)

// Specific errors used across the application
var (
	// User errors
	ErrUserNotFound       = fmt.Errorf("user %w", ErrNotFound)
	ErrEmailTaken         = fmt.Errorf("%w: email already registered", ErrConflict)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	ErrInvalidToken       = fmt.Errorf("%w: invalid or expired token", ErrUnauthorized)

	// Room errors
	ErrRoomNotFound  = fmt.Errorf("room %w", ErrNotFound)
	ErrRoomCodeTaken = fmt.Errorf("%w: room code already in use", ErrConflict)

	// ErrCodeSpaceExhausted is returned when no free room code was found within the retry budget
	ErrCodeSpaceExhausted = &StorageError{Op: "allocate room code", Err: errors.New("retries exhausted")}
)

// ValidationError describes malformed or out-of-range input
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a ValidationError for the given field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Is reports the error as a validation failure
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// StorageError wraps an unclassified failure of the underlying store
type StorageError struct {
	Op  string
	Err error
}

// WrapStorage wraps err as a StorageError unless it already carries a known kind
func WrapStorage(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range []error{ErrValidation, ErrUnauthorized, ErrConflict, ErrNotFound, ErrStorage} {
		if errors.Is(err, kind) {
			return err
		}
	}
	return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is reports the error as a storage failure
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}
