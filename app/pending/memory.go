package pending

import (
	"context"
	"sync"
	"time"
)

// Memory is a process-local Store.
type Memory struct {
	mu      sync.Mutex
	entries map[string]Entry
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{entries: map[string]Entry{}}
}

func (m *Memory) Put(_ context.Context, email string, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[email] = e
	return nil
}

func (m *Memory) Get(_ context.Context, email string) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[email]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

func (m *Memory) Delete(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, email)
	return nil
}

func (m *Memory) SweepExpired(_ context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for email, e := range m.entries {
		if e.Expired(now) {
			delete(m.entries, email)
			n++
		}
	}
	return n, nil
}

// Len returns the number of held entries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
