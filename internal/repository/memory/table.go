package memory

import (
	"maps"
	"slices"
	"sync"
)

// table is a concurrent key/value table of entities keyed by identifier.
// Rows are copied on the way in and on the way out, so callers never share
// memory with the stored record and no reader observes a half-written row.
type table[T any] struct {
	mu    sync.RWMutex
	rows  map[int64]*T
	clone func(*T) *T

	// unique optionally derives a key that must be unique across rows.
	unique func(*T) string
	keys   map[string]int64
}

// newTable creates an empty table.
func newTable[T any](clone func(*T) *T) *table[T] {
	return &table[T]{
		rows:  make(map[int64]*T),
		clone: clone,
	}
}

// newUniqueTable creates an empty table with a unique secondary key.
func newUniqueTable[T any](clone func(*T) *T, unique func(*T) string) *table[T] {
	t := newTable(clone)
	t.unique = unique
	t.keys = make(map[string]int64)
	return t
}

// insert stores a copy of v under the identifier returned by assign.
// assign runs while the table is locked, so identifiers enter the table
// in the order they are issued. It returns false without calling assign
// if v's unique key is already taken.
func (t *table[T]) insert(v *T, assign func(*T) int64) (int64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var key string
	if t.unique != nil {
		key = t.unique(v)
		if _, taken := t.keys[key]; taken {
			return 0, false
		}
	}

	id := assign(v)
	t.rows[id] = t.clone(v)
	if t.unique != nil {
		t.keys[key] = id
	}
	return id, true
}

// get returns a copy of the row with the given identifier.
func (t *table[T]) get(id int64) (*T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	row, ok := t.rows[id]
	if !ok {
		return nil, false
	}
	return t.clone(row), true
}

// lookup returns a copy of the row with the given unique key.
func (t *table[T]) lookup(key string) (*T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	id, ok := t.keys[key]
	if !ok {
		return nil, false
	}
	return t.clone(t.rows[id]), true
}

// exists reports whether a row with the given identifier is stored.
func (t *table[T]) exists(id int64) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	_, ok := t.rows[id]
	return ok
}

// update applies fn to the stored row in place and returns a copy of the result.
// The unique key of a row must not be changed by fn.
func (t *table[T]) update(id int64, fn func(*T)) (*T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	row, ok := t.rows[id]
	if !ok {
		return nil, false
	}
	next := t.clone(row)
	fn(next)
	t.rows[id] = next
	return t.clone(next), true
}

// remove deletes the row with the given identifier and returns it.
func (t *table[T]) remove(id int64) (*T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	row, ok := t.rows[id]
	if !ok {
		return nil, false
	}
	delete(t.rows, id)
	if t.unique != nil {
		delete(t.keys, t.unique(row))
	}
	return row, true
}

// len returns the number of rows.
func (t *table[T]) len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.rows)
}

// snapshot returns copies of all rows ordered by identifier.
func (t *table[T]) snapshot() []*T {
	return t.filter(nil)
}

// filter returns copies of the rows matching keep, ordered by identifier.
// A nil keep matches every row.
func (t *table[T]) filter(keep func(*T) bool) []*T {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ids := slices.Sorted(maps.Keys(t.rows))
	out := make([]*T, 0, len(ids))
	for _, id := range ids {
		row := t.rows[id]
		if keep != nil && !keep(row) {
			continue
		}
		out = append(out, t.clone(row))
	}
	return out
}
