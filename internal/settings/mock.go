package settings

import (
	"context"
	"sync"
)

// Mock is an in-memory settings store for tests.
type Mock struct {
	mu      sync.Mutex
	current Settings
	set     bool
}

var _ Store = (*Mock)(nil)

func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Load(_ context.Context) Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return Default()
	}
	return m.current
}

func (m *Mock) Save(_ context.Context, s Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = s
	m.set = true
	return nil
}
