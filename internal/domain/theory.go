package domain

import (
	"fmt"
	"strings"
	"time"
)

// Status is the verification state of a theory.
type Status string

const (
	// StatusUnverified is the default status of a new theory.
	StatusUnverified Status = "UNVERIFIED"

	// StatusVerified marks a theory backed by accepted evidence.
	StatusVerified Status = "VERIFIED"

	// StatusDebunked marks a theory that has been disproven.
	StatusDebunked Status = "DEBUNKED"
)

// IsValid returns true if the status is one of the known values.
func (s Status) IsValid() bool {
	switch s {
	case StatusUnverified, StatusVerified, StatusDebunked:
		return true
	}
	return false
}

// String returns the string representation.
func (s Status) String() string {
	return string(s)
}

// ParseStatus parses a status name case-insensitively.
func ParseStatus(s string) (Status, error) {
	status := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", NewValidationError("status", fmt.Sprintf("unknown status %q: must be one of UNVERIFIED, VERIFIED, DEBUNKED", s))
	}
	return status, nil
}

// Theory represents a forum post.
type Theory struct {
	// ID is the unique identifier for the theory (auto-generated).
	ID int64 `json:"id"`

	// Title is the headline of the theory.
	Title string `json:"title"`

	// Content is the body text.
	Content string `json:"content"`

	// Status is the verification state.
	Status Status `json:"status"`

	// AuthorID references the user who posted the theory.
	AuthorID int64 `json:"author_id"`

	// EvidenceURLs is the ordered list of supporting links. Duplicates are allowed.
	EvidenceURLs []string `json:"evidence_urls"`

	// PostedAt is the creation timestamp.
	PostedAt time.Time `json:"posted_at"`

	// UpdatedAt is the timestamp of the last modification.
	UpdatedAt time.Time `json:"updated_at"`

	// Anonymous hides the author from readers.
	Anonymous bool `json:"anonymous"`

	// CommentIDs lists the live comments of this theory in creation order.
	// It is maintained by the store and never written by callers.
	CommentIDs []int64 `json:"comment_ids"`
}

// NewTheory creates a new Theory with default values.
func NewTheory(authorID int64, title, content string, status Status, evidenceURLs []string, anonymous bool, now time.Time) *Theory {
	if status == "" {
		status = StatusUnverified
	}
	if evidenceURLs == nil {
		evidenceURLs = []string{}
	}
	return &Theory{
		Title:        title,
		Content:      content,
		Status:       status,
		AuthorID:     authorID,
		EvidenceURLs: evidenceURLs,
		PostedAt:     now,
		UpdatedAt:    now,
		Anonymous:    anonymous,
		CommentIDs:   []int64{},
	}
}

// CommentCount returns the number of live comments.
func (t *Theory) CommentCount() int {
	return len(t.CommentIDs)
}

// IsOwnedBy returns true if the user is the author of the theory.
func (t *Theory) IsOwnedBy(userID int64) bool {
	return userID != 0 && t.AuthorID == userID
}

// MatchesKeyword reports whether keyword appears in the title or content, ignoring case.
// The keyword must already be lower-cased.
func (t *Theory) MatchesKeyword(lowerKeyword string) bool {
	if lowerKeyword == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Title), lowerKeyword) ||
		strings.Contains(strings.ToLower(t.Content), lowerKeyword)
}

// Clone returns a deep copy of the theory.
func (t *Theory) Clone() *Theory {
	if t == nil {
		return nil
	}
	c := *t
	c.EvidenceURLs = append(make([]string, 0, len(t.EvidenceURLs)), t.EvidenceURLs...)
	c.CommentIDs = append(make([]int64, 0, len(t.CommentIDs)), t.CommentIDs...)
	return &c
}

// TheoryPage is one page of a filtered theory listing.
type TheoryPage struct {
	Items      []*Theory `json:"items"`
	TotalCount int       `json:"total_count"`
	TotalPages int       `json:"total_pages"`
	Page       int       `json:"page"`
	Size       int       `json:"size"`
}
