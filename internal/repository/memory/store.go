package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/prn-tf/theory-forum/internal/domain"
	"github.com/prn-tf/theory-forum/internal/repository"
)

// ErrStoreClosed is returned by every operation after the store is closed.
var ErrStoreClosed = errors.New("memory store is closed")

// Store owns the users, theories and comments tables.
// It is constructed once at startup and handed to the repositories.
type Store struct {
	// mu guards the theory/comment graph. Operations that write either
	// table hold it exclusively, reads hold it shared. Table locks nest inside.
	mu sync.RWMutex

	seq      *Sequencer
	users    *table[domain.User]
	theories *table[domain.Theory]
	comments *table[domain.Comment]

	closed atomic.Bool
	logger zerolog.Logger
}

// NewStore creates an empty store.
func NewStore(logger zerolog.Logger) *Store {
	return &Store{
		seq: NewSequencer(),
		users: newUniqueTable((*domain.User).Clone, func(u *domain.User) string {
			return domain.NormalizeUsername(u.Username)
		}),
		theories: newTable((*domain.Theory).Clone),
		comments: newTable((*domain.Comment).Clone),
		logger:   logger.With().Str("component", "memory_store").Logger(),
	}
}

// Repositories returns the repository set backed by this store.
func (s *Store) Repositories() *repository.Repositories {
	return &repository.Repositories{
		User:    NewUserRepository(s),
		Theory:  NewTheoryRepository(s),
		Comment: NewCommentRepository(s),
	}
}

// Sequencer returns the store's identifier sequencer.
func (s *Store) Sequencer() *Sequencer {
	return s.seq
}

// Ping reports whether the store is usable.
func (s *Store) Ping(ctx context.Context) error {
	return s.check(ctx)
}

// Close releases the store. Subsequent operations fail with ErrStoreClosed.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.logger.Debug().
		Int("users", s.users.len()).
		Int("theories", s.theories.len()).
		Int("comments", s.comments.len()).
		Msg("memory store closed")
	return nil
}

// check is run at the entry of every operation.
func (s *Store) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.closed.Load() {
		return ErrStoreClosed
	}
	return nil
}

var _ repository.DatabaseHealth = (*Store)(nil)
