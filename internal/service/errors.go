// Package service provides business logic services for the theory forum.
package service

import (
	"errors"
	"fmt"

	"github.com/prn-tf/theory-forum/internal/domain"
	"github.com/prn-tf/theory-forum/internal/metrics"
)

// Common service errors.
var (
	// ErrTokenExhausted indicates no unique token could be generated.
	ErrTokenExhausted = errors.New("could not generate a unique token")

	// ErrInternalError wraps infrastructure failures.
	ErrInternalError = errors.New("internal server error")
)

// isDomainError reports whether err belongs to the caller-visible taxonomy.
func isDomainError(err error) bool {
	return errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrUnauthorized) ||
		errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrConflict)
}

// wrapInternal passes domain errors through and wraps anything else as ErrInternalError.
func wrapInternal(err error) error {
	if err == nil || isDomainError(err) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrInternalError, err)
}

// resultOf maps an operation outcome to its metrics label.
func resultOf(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.Is(err, domain.ErrNotFound):
		return metrics.ResultNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		return metrics.ResultUnauthorized
	case errors.Is(err, domain.ErrValidation):
		return metrics.ResultInvalid
	default:
		return metrics.ResultError
	}
}
