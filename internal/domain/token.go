package domain

import "time"

// Token binds an opaque bearer string to a user.
type Token struct {
	// Value is the opaque bearer string handed to the client.
	Value string `json:"value"`

	// UserID is the user the token authenticates.
	UserID int64 `json:"user_id"`

	// IssuedAt is the issuance timestamp.
	IssuedAt time.Time `json:"issued_at"`

	// ExpiresAt is the optional expiration time. Nil means the token never expires.
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// IsExpired returns true if the token has an expiration time in the past.
func (t *Token) IsExpired() bool {
	if t.ExpiresAt == nil {
		return false
	}
	return time.Now().After(*t.ExpiresAt)
}
