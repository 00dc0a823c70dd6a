package memory

import (
	"context"

	"github.com/prn-tf/theory-forum/internal/domain"
	"github.com/prn-tf/theory-forum/internal/repository"
)

// theoryRepository implements repository.TheoryRepository on the memory store.
type theoryRepository struct {
	store *Store
}

// NewTheoryRepository creates a new in-memory theory repository.
func NewTheoryRepository(store *Store) repository.TheoryRepository {
	return &theoryRepository{store: store}
}

// Create creates a new theory and assigns its ID.
func (r *theoryRepository) Create(ctx context.Context, theory *domain.Theory) error {
	if err := r.store.check(ctx); err != nil {
		return err
	}
	if !r.store.users.exists(theory.AuthorID) {
		return domain.ErrUserNotFound
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	theory.CommentIDs = []int64{}
	if theory.EvidenceURLs == nil {
		theory.EvidenceURLs = []string{}
	}
	r.store.theories.insert(theory, func(t *domain.Theory) int64 {
		t.ID = r.store.seq.Next(KindTheory)
		return t.ID
	})
	return nil
}

// GetByID retrieves a theory by ID.
func (r *theoryRepository) GetByID(ctx context.Context, id int64) (*domain.Theory, error) {
	if err := r.store.check(ctx); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	theory, ok := r.store.theories.get(id)
	if !ok {
		return nil, domain.ErrTheoryNotFound
	}
	return theory, nil
}

// Update replaces the mutable fields of a theory. The comment list,
// author and posting time are kept from the stored record.
func (r *theoryRepository) Update(ctx context.Context, theory *domain.Theory) error {
	if err := r.store.check(ctx); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	updated, ok := r.store.theories.update(theory.ID, func(t *domain.Theory) {
		t.Title = theory.Title
		t.Content = theory.Content
		t.Status = theory.Status
		t.EvidenceURLs = append(make([]string, 0, len(theory.EvidenceURLs)), theory.EvidenceURLs...)
		t.Anonymous = theory.Anonymous
		t.UpdatedAt = theory.UpdatedAt
	})
	if !ok {
		return domain.ErrTheoryNotFound
	}
	theory.CommentIDs = updated.CommentIDs
	return nil
}

// Delete removes a theory and all of its comments.
func (r *theoryRepository) Delete(ctx context.Context, id int64) (int, error) {
	if err := r.store.check(ctx); err != nil {
		return 0, err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	return r.store.cascadeTheory(id)
}

// ListAll returns a consistent snapshot of all theories ordered by ID.
func (r *theoryRepository) ListAll(ctx context.Context) ([]*domain.Theory, error) {
	if err := r.store.check(ctx); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return r.store.theories.snapshot(), nil
}

// ListByAuthor returns all theories posted by a user, ordered by ID.
func (r *theoryRepository) ListByAuthor(ctx context.Context, authorID int64) ([]*domain.Theory, error) {
	if err := r.store.check(ctx); err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return r.store.theories.filter(func(t *domain.Theory) bool {
		return t.AuthorID == authorID
	}), nil
}

// Count returns the number of theories.
func (r *theoryRepository) Count(ctx context.Context) (int64, error) {
	if err := r.store.check(ctx); err != nil {
		return 0, err
	}
	return int64(r.store.theories.len()), nil
}

var _ repository.TheoryRepository = (*theoryRepository)(nil)
