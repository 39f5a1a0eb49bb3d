// internal/session/mock.go
package session

import (
	"context"
	"sync"
)

// Mock is an in-memory test double for the session store.
type Mock struct {
	mu        sync.Mutex
	current   Session
	has       bool
	saveCount int
	closed    bool
}

// NewMock creates a new mock store for testing.
func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Load(_ context.Context) Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.has {
		return Default()
	}
	return m.current
}

func (m *Mock) Save(_ context.Context, s Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = s
	m.has = true
	m.saveCount++
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Test helpers

// Set seeds the store with a persisted session, as if written by a
// previous daemon process.
func (m *Mock) Set(s Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = s
	m.has = true
}

func (m *Mock) SaveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveCount
}

func (m *Mock) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Verify Mock implements Store at compile time.
var _ Store = (*Mock)(nil)
