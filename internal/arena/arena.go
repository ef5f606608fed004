// Package arena provides generation-indexed slots for objects that are
// referenced weakly.
//
// A Ref stays valid until the object it names is removed. After that, Get on
// the Ref fails even if the slot has been reused for another object, because
// the slot's generation has moved on.
package arena

import "sync"

// Ref is a weak reference into an Arena. The zero Ref is never valid.
type Ref struct {
	index uint32
	gen   uint32
}

// IsZero reports whether r is the zero Ref.
func (r Ref) IsZero() bool { return r.gen == 0 }

type slot[T any] struct {
	gen   uint32
	live  bool
	value T
}

// Arena stores values of type T behind weak references.
//
// Thread-safe.
type Arena[T any] struct {
	mu    sync.RWMutex
	slots []slot[T]
	free  []uint32
	live  int
}

// New returns an empty arena.
func New[T any]() *Arena[T] {
	return &Arena[T]{}
}

// Insert stores v and returns a reference to it.
func (a *Arena[T]) Insert(v T) Ref {
	a.mu.Lock()
	defer a.mu.Unlock()

	var idx uint32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		idx = uint32(len(a.slots))
		a.slots = append(a.slots, slot[T]{})
	}

	s := &a.slots[idx]
	s.gen++
	s.live = true
	s.value = v
	a.live++
	return Ref{index: idx, gen: s.gen}
}

// Get returns the value r refers to. ok is false if the value was removed.
func (a *Arena[T]) Get(r Ref) (v T, ok bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if r.IsZero() || int(r.index) >= len(a.slots) {
		return v, false
	}
	s := &a.slots[r.index]
	if !s.live || s.gen != r.gen {
		return v, false
	}
	return s.value, true
}

// Remove deletes the value r refers to and returns it. ok is false if r was
// already stale.
func (a *Arena[T]) Remove(r Ref) (v T, ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if r.IsZero() || int(r.index) >= len(a.slots) {
		return v, false
	}
	s := &a.slots[r.index]
	if !s.live || s.gen != r.gen {
		return v, false
	}

	v = s.value
	var zero T
	s.value = zero
	s.live = false
	a.free = append(a.free, r.index)
	a.live--
	return v, true
}

// Len returns the number of live values.
func (a *Arena[T]) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.live
}
