package memory

import (
	"fmt"
	"slices"

	"github.com/prn-tf/theory-forum/internal/domain"
)

// The functions in this file maintain the theory/comment graph.
// Callers must hold s.mu exclusively. Every precondition is checked
// before the first mutation so a failure never leaves partial state.

// attachComment inserts c and appends its identifier to the parent theory.
func (s *Store) attachComment(c *domain.Comment) error {
	if !s.theories.exists(c.TheoryID) {
		return domain.ErrTheoryNotFound
	}

	s.comments.insert(c, func(c *domain.Comment) int64 {
		c.ID = s.seq.Next(KindComment)
		return c.ID
	})
	s.theories.update(c.TheoryID, func(t *domain.Theory) {
		t.CommentIDs = append(t.CommentIDs, c.ID)
	})
	return nil
}

// detachComment removes the comment and unlinks it from its theory.
func (s *Store) detachComment(id int64) error {
	c, ok := s.comments.get(id)
	if !ok {
		return domain.ErrCommentNotFound
	}

	s.comments.remove(id)
	s.theories.update(c.TheoryID, func(t *domain.Theory) {
		t.CommentIDs = slices.DeleteFunc(t.CommentIDs, func(cid int64) bool {
			return cid == id
		})
	})
	return nil
}

// cascadeTheory removes the theory and every comment attached to it.
// It returns the number of comments removed.
func (s *Store) cascadeTheory(id int64) (int, error) {
	t, ok := s.theories.get(id)
	if !ok {
		return 0, domain.ErrTheoryNotFound
	}

	s.theories.remove(id)
	removed := 0
	for _, cid := range t.CommentIDs {
		if _, ok := s.comments.remove(cid); ok {
			removed++
		}
	}
	return removed, nil
}

// Verify checks that every comment references a live theory and that
// every theory's comment list matches the comments that reference it.
func (s *Store) Verify() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	theories := s.theories.snapshot()
	comments := s.comments.snapshot()

	byTheory := make(map[int64][]int64, len(theories))
	for _, c := range comments {
		byTheory[c.TheoryID] = append(byTheory[c.TheoryID], c.ID)
	}

	live := make(map[int64]bool, len(theories))
	for _, t := range theories {
		live[t.ID] = true
		want := byTheory[t.ID]
		if !slices.Equal(want, t.CommentIDs) {
			return fmt.Errorf("theory %d: comment list %v does not match comments %v", t.ID, t.CommentIDs, want)
		}
	}
	for _, c := range comments {
		if !live[c.TheoryID] {
			return fmt.Errorf("comment %d: references missing theory %d", c.ID, c.TheoryID)
		}
	}
	return nil
}
