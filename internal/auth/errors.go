package auth

import "errors"

// Authorization header errors.
var (
	// ErrMissingAuthorizationHeader indicates the request carries no credentials.
	ErrMissingAuthorizationHeader = errors.New("missing authorization header")

	// ErrInvalidAuthorizationHeader indicates the Authorization header is malformed.
	ErrInvalidAuthorizationHeader = errors.New("invalid authorization header")
)
