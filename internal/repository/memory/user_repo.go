package memory

import (
	"context"

	"github.com/prn-tf/theory-forum/internal/domain"
	"github.com/prn-tf/theory-forum/internal/repository"
)

// userRepository implements repository.UserRepository on the memory store.
// Users take no part in the theory/comment graph and rely on the table lock alone.
type userRepository struct {
	store *Store
}

// NewUserRepository creates a new in-memory user repository.
func NewUserRepository(store *Store) repository.UserRepository {
	return &userRepository{store: store}
}

// Create creates a new user and assigns its ID.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if err := r.store.check(ctx); err != nil {
		return err
	}

	_, ok := r.store.users.insert(user, func(u *domain.User) int64 {
		u.ID = r.store.seq.Next(KindUser)
		return u.ID
	})
	if !ok {
		return domain.ErrUserAlreadyExists
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if err := r.store.check(ctx); err != nil {
		return nil, err
	}

	user, ok := r.store.users.get(id)
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

// GetByUsername retrieves a user by username, ignoring case.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if err := r.store.check(ctx); err != nil {
		return nil, err
	}

	user, ok := r.store.users.lookup(domain.NormalizeUsername(username))
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

// Update updates the mutable fields of an existing user.
func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	if err := r.store.check(ctx); err != nil {
		return err
	}

	_, ok := r.store.users.update(user.ID, func(u *domain.User) {
		u.PasswordHash = user.PasswordHash
		u.Anonymous = user.Anonymous
	})
	if !ok {
		return domain.ErrUserNotFound
	}
	return nil
}

// Count returns the number of users.
func (r *userRepository) Count(ctx context.Context) (int64, error) {
	if err := r.store.check(ctx); err != nil {
		return 0, err
	}
	return int64(r.store.users.len()), nil
}

var _ repository.UserRepository = (*userRepository)(nil)
