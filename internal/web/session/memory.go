package session

import (
	"sync"
	"time"
)

type entry struct {
	val []byte
	exp time.Time // zero means no expiry
}

// Memory is an in-process fiber.Storage.
type Memory struct {
	mu   sync.RWMutex
	data map[string]entry
	now  func() time.Time
}

// NewMemory creates an empty memory storage.
func NewMemory() *Memory {
	return &Memory{
		data: make(map[string]entry),
		now:  time.Now,
	}
}

// Get returns a copy of the value stored under key, nil when missing or expired.
func (m *Memory) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.data[key]
	if !ok || (!e.exp.IsZero() && !m.now().Before(e.exp)) {
		return nil, nil
	}

	out := make([]byte, len(e.val))
	copy(out, e.val)

	return out, nil
}

// Set stores val under key for exp, zero means forever.
func (m *Memory) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}

	buf := make([]byte, len(val))
	copy(buf, val)

	e := entry{val: buf}
	if exp > 0 {
		e.exp = m.now().Add(exp)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.gc()
	m.data[key] = e

	return nil
}

// Delete removes key.
func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)

	return nil
}

// Reset removes everything.
func (m *Memory) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = make(map[string]entry)

	return nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

// gc drops expired entries. The caller holds the write lock.
func (m *Memory) gc() {
	now := m.now()

	for k, e := range m.data {
		if !e.exp.IsZero() && !now.Before(e.exp) {
			delete(m.data, k)
		}
	}
}
