package storage

import "sync"

// MemStore is an in-memory KV backend. It backs tests and ephemeral runs
// where nothing should touch disk. Thread-safe.
type MemStore struct {
	mu           sync.RWMutex
	values       map[string]string
	maxValueSize int
}

// NewMemStore creates an empty in-memory store. maxValueSize of 0 disables
// the size limit.
func NewMemStore(maxValueSize int) *MemStore {
	return &MemStore{
		values:       make(map[string]string),
		maxValueSize: maxValueSize,
	}
}

func (m *MemStore) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.values[key]
	if !ok {
		return "", false, nil
	}
	if m.maxValueSize > 0 && len(value) > m.maxValueSize {
		return "", true, ErrValueTooLarge
	}
	return value, true, nil
}

func (m *MemStore) Set(key, value string) error {
	if m.maxValueSize > 0 && len(value) > m.maxValueSize {
		return ErrValueTooLarge
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = value
	return nil
}

func (m *MemStore) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)
	return nil
}

func (m *MemStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values = make(map[string]string)
	return nil
}

func (m *MemStore) Close() error { return nil }

// Len returns the number of stored records.
func (m *MemStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.values)
}
