// Package memory provides the in-memory content store for the theory forum.
// It holds users, theories and comments in process memory and enforces
// the referential integrity a relational engine would otherwise provide.
package memory

import "sync/atomic"

// Kind identifies an entity table for identifier sequencing.
type Kind int

const (
	// KindUser sequences user identifiers.
	KindUser Kind = iota

	// KindTheory sequences theory identifiers.
	KindTheory

	// KindComment sequences comment identifiers.
	KindComment

	kindCount
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindUser:
		return "user"
	case KindTheory:
		return "theory"
	case KindComment:
		return "comment"
	default:
		return "unknown"
	}
}

// Sequencer issues monotonically increasing identifiers per entity kind,
// starting at 1. Identifiers are never reused, even after deletion.
type Sequencer struct {
	counters [kindCount]atomic.Int64
}

// NewSequencer creates a new Sequencer with all counters at zero.
func NewSequencer() *Sequencer {
	return &Sequencer{}
}

// Next returns the next identifier for kind. It is lock-free and safe for
// any number of concurrent callers. Next panics on an unknown kind.
func (s *Sequencer) Next(kind Kind) int64 {
	return s.counters[kind].Add(1)
}

// Current returns the last identifier issued for kind, or 0 if none.
func (s *Sequencer) Current(kind Kind) int64 {
	return s.counters[kind].Load()
}
