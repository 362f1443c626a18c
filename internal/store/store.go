// Package store holds the in-memory identity maps for every entity kind.
//
// A Store never validates references into other stores and has no opinion on
// add versus replace; Add and Update implement that policy for callers that
// need it.
package store

import (
	"fmt"
	"slices"

	"github.com/gosuda/rentals/internal/domain"
)

// Store is an identity map keyed by entity ID that iterates in insertion
// order. It is not safe for concurrent use.
type Store[T domain.Entity] struct {
	kind  domain.Kind
	items map[string]T
	order []string
}

func New[T domain.Entity](kind domain.Kind) *Store[T] {
	return &Store[T]{
		kind:  kind,
		items: make(map[string]T),
	}
}

func (s *Store[T]) Kind() domain.Kind { return s.kind }

// Upsert stores e. A new ID is appended to the iteration order; an existing
// ID is replaced in place.
func (s *Store[T]) Upsert(e T) {
	id := e.EntityID()
	if _, ok := s.items[id]; !ok {
		s.order = append(s.order, id)
	}
	s.items[id] = e
}

func (s *Store[T]) Get(id string) (T, bool) {
	e, ok := s.items[id]
	return e, ok
}

func (s *Store[T]) Has(id string) bool {
	_, ok := s.items[id]
	return ok
}

// All returns the entities in insertion order.
func (s *Store[T]) All() []T {
	out := make([]T, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id])
	}
	return out
}

// Remove deletes the entity with the given ID and reports whether it existed.
func (s *Store[T]) Remove(id string) bool {
	if _, ok := s.items[id]; !ok {
		return false
	}
	delete(s.items, id)
	if i := slices.Index(s.order, id); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
	return true
}

func (s *Store[T]) Len() int { return len(s.order) }

// Add inserts e only if its ID is not already present.
func Add[T domain.Entity](s *Store[T], e T) error {
	if s.Has(e.EntityID()) {
		return fmt.Errorf("store.Add: %s %q: %w", s.kind, e.EntityID(), domain.ErrConflict)
	}
	s.Upsert(e)
	return nil
}

// Update replaces an existing entity, keeping its position.
func Update[T domain.Entity](s *Store[T], e T) error {
	if !s.Has(e.EntityID()) {
		return fmt.Errorf("store.Update: %s %q: %w", s.kind, e.EntityID(), domain.ErrNotFound)
	}
	s.Upsert(e)
	return nil
}
