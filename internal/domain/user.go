// Package domain contains the core business entities for the theory forum.
// These are pure Go structs with no external dependencies, representing
// the fundamental concepts of the discussion board.
package domain

import (
	"strings"
	"time"
)

// AnonymousDisplayName is shown instead of the author for anonymous posts.
const AnonymousDisplayName = "Anonymous Agent"

// User represents a registered forum member.
// Users are never deleted; theories and comments reference them by ID.
type User struct {
	// ID is the unique identifier for the user (auto-generated).
	ID int64 `json:"id"`

	// Username is the display name, unique case-insensitively.
	Username string `json:"username"`

	// PasswordHash is the bcrypt hash of the user's secret code.
	// This should never be exposed in API responses.
	PasswordHash string `json:"-"`

	// Anonymous is the user's default for hiding authorship of new posts.
	Anonymous bool `json:"anonymous"`

	// CreatedAt is the timestamp when the user registered.
	CreatedAt time.Time `json:"created_at"`
}

// NewUser creates a new User with default values.
func NewUser(username, passwordHash string, anonymous bool) *User {
	return &User{
		Username:     username,
		PasswordHash: passwordHash,
		Anonymous:    anonymous,
		CreatedAt:    time.Now().UTC(),
	}
}

// NormalizeUsername returns the key used for case-insensitive username lookups.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Clone returns a copy of the user.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
