package memory

import (
	"context"

	"github.com/prn-tf/theory-forum/internal/domain"
	"github.com/prn-tf/theory-forum/internal/repository"
)

// commentRepository implements repository.CommentRepository on the memory store.
type commentRepository struct {
	store *Store
}

// NewCommentRepository creates a new in-memory comment repository.
func NewCommentRepository(store *Store) repository.CommentRepository {
	return &commentRepository{store: store}
}

// Create creates a new comment and links it to its theory.
func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	if err := r.store.check(ctx); err != nil {
		return err
	}
	if !r.store.users.exists(comment.AuthorID) {
		return domain.ErrUserNotFound
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	return r.store.attachComment(comment)
}

// GetByID retrieves a comment by ID.
func (r *commentRepository) GetByID(ctx context.Context, id int64) (*domain.Comment, error) {
	if err := r.store.check(ctx); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	comment, ok := r.store.comments.get(id)
	if !ok {
		return nil, domain.ErrCommentNotFound
	}
	return comment, nil
}

// Update replaces the content, anonymity and UpdatedAt of a comment.
func (r *commentRepository) Update(ctx context.Context, comment *domain.Comment) error {
	if err := r.store.check(ctx); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	_, ok := r.store.comments.update(comment.ID, func(c *domain.Comment) {
		c.Content = comment.Content
		c.Anonymous = comment.Anonymous
		c.UpdatedAt = comment.UpdatedAt
	})
	if !ok {
		return domain.ErrCommentNotFound
	}
	return nil
}

// Delete removes a comment and unlinks it from its theory.
func (r *commentRepository) Delete(ctx context.Context, id int64) error {
	if err := r.store.check(ctx); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	return r.store.detachComment(id)
}

// ListByTheory returns the comments of a theory in creation order.
func (r *commentRepository) ListByTheory(ctx context.Context, theoryID int64) ([]*domain.Comment, error) {
	if err := r.store.check(ctx); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	theory, ok := r.store.theories.get(theoryID)
	if !ok {
		return nil, domain.ErrTheoryNotFound
	}

	comments := make([]*domain.Comment, 0, len(theory.CommentIDs))
	for _, id := range theory.CommentIDs {
		if c, ok := r.store.comments.get(id); ok {
			comments = append(comments, c)
		}
	}
	return comments, nil
}

// Count returns the number of comments.
func (r *commentRepository) Count(ctx context.Context) (int64, error) {
	if err := r.store.check(ctx); err != nil {
		return 0, err
	}
	return int64(r.store.comments.len()), nil
}

var _ repository.CommentRepository = (*commentRepository)(nil)
