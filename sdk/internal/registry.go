package internal

import (
	"fmt"
	"reflect"
	"sync"
)

// registry is the lookup used to resolve an invocation's activity name to
// a concrete function at submission time.
type registry interface {
	get(k string) (any, error)
	set(k string, v any) error
	size() int64
}

func newInMemoryRegistry() *hashMapRegistry {
	return &hashMapRegistry{
		entries: make(map[string]any),
	}
}

type hashMapRegistry struct {
	mu      sync.RWMutex
	entries map[string]any
}

func (m *hashMapRegistry) get(k string) (any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[k]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrActivityNotRegistered, k)
	}

	return entry, nil
}

func (m *hashMapRegistry) set(k string, v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[k]; ok {
		return fmt.Errorf("%w: %v", ErrDuplicateRegistration, k)
	}

	fnType := reflect.TypeOf(v)
	if fnType == nil || fnType.Kind() != reflect.Func {
		return fmt.Errorf("%w: entry %q", ErrInvalidFunction, k)
	}

	m.entries[k] = v

	return nil
}

func (m *hashMapRegistry) size() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.entries))
}
