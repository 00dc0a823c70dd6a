// Package domain contains the core business entities for the theory forum.
package domain

import (
	"errors"
	"fmt"
)

// Domain errors - these represent business rule violations.
// They are distinct from infrastructure errors (database, network, etc.).

var (
	// ===========================================
	// Error Classes
	// ===========================================

	// ErrNotFound indicates a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates the acting identity may not perform the operation.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrValidation indicates input failed a length or shape rule.
	ErrValidation = errors.New("validation failed")

	// ErrConflict indicates the operation collides with existing state.
	ErrConflict = errors.New("conflict")

	// ===========================================
	// Not Found Errors
	// ===========================================

	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)

	// ErrTheoryNotFound indicates the requested theory does not exist.
	ErrTheoryNotFound = fmt.Errorf("theory %w", ErrNotFound)

	// ErrCommentNotFound indicates the requested comment does not exist.
	ErrCommentNotFound = fmt.Errorf("comment %w", ErrNotFound)

	// ===========================================
	// Authentication/Authorization Errors
	// ===========================================

	// ErrUnauthenticated indicates no identity was resolved where one is required.
	ErrUnauthenticated = fmt.Errorf("%w: authentication required", ErrUnauthorized)

	// ErrForbidden indicates the caller does not own the entity being mutated.
	ErrForbidden = fmt.Errorf("%w: caller is not the author", ErrUnauthorized)

	// ErrInvalidCredentials indicates the username/secret pair did not match.
	ErrInvalidCredentials = fmt.Errorf("%w: invalid username or secret code", ErrUnauthorized)

	// ===========================================
	// Conflict Errors
	// ===========================================

	// ErrUserAlreadyExists indicates a user with the same username (ignoring case) exists.
	ErrUserAlreadyExists = fmt.Errorf("%w: user already exists", ErrConflict)
)

// ValidationError describes a single rejected input field.
type ValidationError struct {
	// Field is the name of the rejected input.
	Field string

	// Message is a human-readable explanation.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// Unwrap returns ErrValidation for errors.Is.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// Authorize checks that callerID may mutate an entity owned by ownerID.
// It must be evaluated before any mutation is applied.
func Authorize(ownerID, callerID int64) error {
	if callerID == 0 {
		return ErrUnauthenticated
	}
	if ownerID != callerID {
		return ErrForbidden
	}
	return nil
}
