package store

import (
	"sync"
	"time"
)

// Memory is an in-process Store backed by a map.
// Entries live for the lifetime of the process.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]Entry),
	}
}

func (m *Memory) Get(key string) (Entry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[key]
	return entry, ok, nil
}

func (m *Memory) Put(key string, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry
	return nil
}

func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]Entry)
	return nil
}

func (m *Memory) Evict(olderThan time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var evicted int
	for key, entry := range m.entries {
		if entry.Timestamp.Before(olderThan) {
			delete(m.entries, key)
			evicted++
		}
	}
	return evicted, nil
}
