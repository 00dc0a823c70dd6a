// Package auth resolves bearer tokens on incoming requests.
package auth

const (
	// AuthorizationHeader carries the bearer credential.
	AuthorizationHeader = "Authorization"

	// BearerScheme is the only accepted authorization scheme.
	BearerScheme = "Bearer"
)

// AuthType represents the type of authentication used in a request.
type AuthType int

const (
	// AuthTypeUnknown indicates an unrecognized or malformed credential.
	AuthTypeUnknown AuthType = iota

	// AuthTypeAnonymous indicates no credential was presented.
	AuthTypeAnonymous

	// AuthTypeBearer indicates a bearer token in the Authorization header.
	AuthTypeBearer
)

// String returns the string representation of the auth type.
func (at AuthType) String() string {
	switch at {
	case AuthTypeAnonymous:
		return "Anonymous"
	case AuthTypeBearer:
		return "Bearer"
	default:
		return "Unknown"
	}
}

// =============================================================================
// Context Types
// =============================================================================

// AuthContext contains the identity resolved for a request.
// It is only attached when a presented token resolved to a user.
type AuthContext struct {
	// UserID is the authenticated user's ID.
	UserID int64

	// Token is the presented bearer token, kept so logout can revoke it.
	Token string
}

// authContextKey is the context key for AuthContext.
type authContextKey struct{}
