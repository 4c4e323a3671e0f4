// Package types contains small reusable container types.
package types

import (
	"iter"
	"sync"
)

// CallbackManager is a registry of callbacks that preserves registration
// order and hands out removal functions bound to each registration.
// The zero value is ready to use.
type CallbackManager[T any] struct {
	mu     sync.RWMutex
	order  []int
	cbs    map[int]T
	nextID int
}

func (m *CallbackManager[T]) Len() int {
	if m == nil {
		return 0
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.cbs)
}

// Add registers cb and returns a function that removes this registration.
// The returned function is idempotent.
func (m *CallbackManager[T]) Add(cb T) (remove func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++

	if m.cbs == nil {
		m.cbs = make(map[int]T)
	}
	m.order = append(m.order, id)
	m.cbs[id] = cb
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.cbs, id)
			for i, v := range m.order {
				if v == id {
					m.order = append(m.order[:i], m.order[i+1:]...)
					break
				}
			}
			m.mu.Unlock()
		})
	}
}

// All iterates over a snapshot of the registered callbacks in registration
// order. Callbacks registered or removed during iteration do not affect it.
func (m *CallbackManager[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		if m == nil {
			return
		}

		m.mu.RLock()
		callbacks := make([]T, 0, len(m.order))
		for _, id := range m.order {
			if cb, ok := m.cbs[id]; ok {
				callbacks = append(callbacks, cb)
			}
		}
		m.mu.RUnlock()

		for _, cb := range callbacks {
			if !yield(cb) {
				return
			}
		}
	}
}

// Range calls fn for each registered callback, see [CallbackManager.All].
func (m *CallbackManager[T]) Range(fn func(cb T)) {
	for cb := range m.All() {
		fn(cb)
	}
}
