package domain

import "time"

// Comment represents a reply attached to a theory.
// The parent linkage is fixed at creation.
type Comment struct {
	// ID is the unique identifier for the comment (auto-generated).
	ID int64 `json:"id"`

	// TheoryID references the parent theory.
	TheoryID int64 `json:"theory_id"`

	// AuthorID references the user who wrote the comment.
	AuthorID int64 `json:"author_id"`

	// Content is the comment text.
	Content string `json:"content"`

	// PostedAt is the creation timestamp.
	PostedAt time.Time `json:"posted_at"`

	// UpdatedAt is the timestamp of the last edit.
	UpdatedAt time.Time `json:"updated_at"`

	// Anonymous hides the author from readers.
	Anonymous bool `json:"anonymous"`
}

// NewComment creates a new Comment.
func NewComment(theoryID, authorID int64, content string, anonymous bool, now time.Time) *Comment {
	return &Comment{
		TheoryID:  theoryID,
		AuthorID:  authorID,
		Content:   content,
		PostedAt:  now,
		UpdatedAt: now,
		Anonymous: anonymous,
	}
}

// IsOwnedBy returns true if the user wrote the comment.
func (c *Comment) IsOwnedBy(userID int64) bool {
	return userID != 0 && c.AuthorID == userID
}

// Clone returns a copy of the comment.
func (c *Comment) Clone() *Comment {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}
