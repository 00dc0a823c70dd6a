// Package repository defines data access interfaces for the theory forum.
// These interfaces abstract storage operations, allowing for different implementations
// (in-memory, SQLite, PostgreSQL) while keeping the service layer clean.
package repository

import (
	"context"

	"github.com/prn-tf/theory-forum/internal/domain"
)

// =============================================================================
// User Repository
// =============================================================================

// UserRepository defines the interface for user data access.
type UserRepository interface {
	// Create creates a new user and assigns its ID.
	// Returns domain.ErrUserAlreadyExists if the username is taken (ignoring case).
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id int64) (*domain.User, error)

	// GetByUsername retrieves a user by username, ignoring case.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// Update updates the mutable fields of an existing user.
	Update(ctx context.Context, user *domain.User) error

	// Count returns the number of users.
	Count(ctx context.Context) (int64, error)
}

// =============================================================================
// Theory Repository
// =============================================================================

// TheoryRepository defines the interface for theory data access.
type TheoryRepository interface {
	// Create creates a new theory and assigns its ID.
	// Returns domain.ErrUserNotFound if the author does not exist.
	Create(ctx context.Context, theory *domain.Theory) error

	// GetByID retrieves a theory by ID, including its comment IDs.
	GetByID(ctx context.Context, id int64) (*domain.Theory, error)

	// Update updates title, content, status, evidence URLs, anonymity and UpdatedAt.
	// The comment list and authorship are never changed.
	Update(ctx context.Context, theory *domain.Theory) error

	// Delete removes a theory together with all of its comments as one atomic step.
	// Returns the number of comments removed.
	Delete(ctx context.Context, id int64) (int, error)

	// ListAll returns a consistent snapshot of all theories ordered by ID.
	ListAll(ctx context.Context) ([]*domain.Theory, error)

	// ListByAuthor returns all theories posted by a user, ordered by ID.
	ListByAuthor(ctx context.Context, authorID int64) ([]*domain.Theory, error)

	// Count returns the number of theories.
	Count(ctx context.Context) (int64, error)
}

// =============================================================================
// Comment Repository
// =============================================================================

// CommentRepository defines the interface for comment data access.
// Implementations keep the parent theory's comment list in sync.
type CommentRepository interface {
	// Create creates a new comment and links it to its theory.
	// Returns domain.ErrTheoryNotFound if the parent theory does not exist.
	Create(ctx context.Context, comment *domain.Comment) error

	// GetByID retrieves a comment by ID.
	GetByID(ctx context.Context, id int64) (*domain.Comment, error)

	// Update updates content, anonymity and UpdatedAt. Parent linkage is immutable.
	Update(ctx context.Context, comment *domain.Comment) error

	// Delete removes a comment and unlinks it from its theory as one atomic step.
	Delete(ctx context.Context, id int64) error

	// ListByTheory returns the comments of a theory in creation order.
	// Returns domain.ErrTheoryNotFound if the theory does not exist.
	ListByTheory(ctx context.Context, theoryID int64) ([]*domain.Comment, error)

	// Count returns the number of comments.
	Count(ctx context.Context) (int64, error)
}

// =============================================================================
// Repository Set
// =============================================================================

// Repositories holds all repository instances of one backend.
type Repositories struct {
	User    UserRepository
	Theory  TheoryRepository
	Comment CommentRepository
}

// DatabaseHealth is an interface for backend health checks.
type DatabaseHealth interface {
	Ping(ctx context.Context) error
	Close() error
}
