package strata

import (
	"sync"
	"sync/atomic"
)

// Lazy is a create-once slot with double-checked initialization: reads after the
// first write take no lock, and the factory runs at most once per Lazy even under
// concurrent first access. A factory that panics leaves the slot empty.
//
// Each slot owns its own mutex. Generated scopes keep one Lazy per accessor so a
// factory may call sibling accessors of the same scope.
type Lazy[T any] struct {
	ready atomic.Bool
	mu    sync.Mutex
	value T
}

// Get returns the cached value, running factory on the first call
func (l *Lazy[T]) Get(factory func() T) T {
	if l.ready.Load() {
		return l.value
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.ready.Load() {
		l.value = factory()
		l.ready.Store(true)
	}
	return l.value
}

// Peek returns the value if it has been materialized
func (l *Lazy[T]) Peek() (T, bool) {
	if l.ready.Load() {
		return l.value, true
	}
	var zero T
	return zero, false
}
