// Package types contains common types used across the gograce package.
package types

import (
	"container/list"
	"sync"
)

// CallbackManager keeps registered callbacks in registration order.
// Registrations return a remove func so callers can unsubscribe; a one-shot
// event drains the whole set so every callback is delivered at most once.
type CallbackManager[T any] struct {
	mu     sync.RWMutex
	cbs    map[int]*list.Element
	order  *list.List
	nextID int
}

type callback[T any] struct {
	id int
	cb T
}

func (m *CallbackManager[T]) Len() int {
	if m == nil {
		return 0
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.cbs)
}

func (m *CallbackManager[T]) Add(cb T) (remove func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++

	if m.cbs == nil {
		m.cbs = make(map[int]*list.Element)
	}
	if m.order == nil {
		m.order = list.New()
	}
	el := m.order.PushBack(&callback[T]{id, cb})
	m.cbs[id] = el
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			if el, ok := m.cbs[id]; ok {
				m.order.Remove(el)
				delete(m.cbs, id)
			}
			m.mu.Unlock()
		})
	}
}

// Drain removes all registered callbacks and returns them in registration
// order. Remove funcs of drained registrations become no-ops.
func (m *CallbackManager[T]) Drain() []T {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.order == nil || m.order.Len() == 0 {
		return nil
	}

	callbacks := make([]T, 0, m.order.Len())
	for el := m.order.Front(); el != nil; el = el.Next() {
		entry := el.Value.(*callback[T]) //nolint:forcetypeassert
		callbacks = append(callbacks, entry.cb)
	}

	m.order.Init()
	m.cbs = nil
	return callbacks
}
