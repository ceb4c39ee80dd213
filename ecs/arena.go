package ecs

import (
	"errors"
	"fmt"
	"sort"
)

var ErrStaleHandle = errors.New("ecs: stale handle")

// Arena owns values addressed by Handle. Removing a value invalidates every
// handle to it; lookups through a stale handle fail instead of aliasing the
// slot's next occupant.
type Arena[T any] struct {
	store  handleStore
	values SparseSet[T]
}

func NewArena[T any]() *Arena[T] {
	return &Arena[T]{}
}

// Insert stores v and returns its handle.
func (a *Arena[T]) Insert(v T) Handle {
	if a == nil {
		return 0
	}
	h := a.store.create()
	a.values.Set(h.id(), v)
	return h
}

// Get returns the value for h, or false if h is stale.
func (a *Arena[T]) Get(h Handle) (T, bool) {
	if a == nil || !a.store.isAlive(h) {
		var zero T
		return zero, false
	}
	return a.values.Get(h.id())
}

// Lookup is Get for callers that want an error.
func (a *Arena[T]) Lookup(h Handle) (T, error) {
	v, ok := a.Get(h)
	if !ok {
		return v, fmt.Errorf("ecs: lookup %s: %w", h, ErrStaleHandle)
	}
	return v, nil
}

// Set replaces the value for a live handle.
func (a *Arena[T]) Set(h Handle, v T) error {
	if a == nil || !a.store.isAlive(h) {
		return fmt.Errorf("ecs: set %s: %w", h, ErrStaleHandle)
	}
	a.values.Set(h.id(), v)
	return nil
}

// Remove deletes the value for h. It returns false if h was already stale.
func (a *Arena[T]) Remove(h Handle) bool {
	if a == nil || !a.store.destroy(h) {
		return false
	}
	a.values.Remove(h.id())
	return true
}

func (a *Arena[T]) Alive(h Handle) bool {
	return a != nil && a.store.isAlive(h)
}

func (a *Arena[T]) Len() int {
	if a == nil {
		return 0
	}
	return a.values.Len()
}

// Handles returns every live handle in slot order.
func (a *Arena[T]) Handles() []Handle {
	if a == nil {
		return nil
	}
	out := make([]Handle, 0, len(a.values.denseIDs))
	for _, id := range a.values.denseIDs {
		out = append(out, makeHandle(id, a.store.gen[id-1]))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id() < out[j].id() })
	return out
}

// Each calls fn for every live value in slot order.
func (a *Arena[T]) Each(fn func(Handle, T)) {
	for _, h := range a.Handles() {
		v, _ := a.values.Get(h.id())
		fn(h, v)
	}
}
