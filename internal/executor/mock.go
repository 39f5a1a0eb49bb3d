// internal/executor/mock.go
package executor

import (
	"context"
	"sync"
)

// Mock is a test double for Executor. It records every call.
type Mock struct {
	mu           sync.Mutex
	readyResult  bool
	playResult   bool
	playCalls    []string
	stopCalls    int
	releaseCalls int
}

// NewMock creates a mock executor that reports ready and accepts plays.
func NewMock() *Mock {
	return &Mock{readyResult: true, playResult: true}
}

func (m *Mock) EnsureReady(_ context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.readyResult
}

func (m *Mock) Play(_ context.Context, locator string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.readyResult {
		return false
	}
	m.playCalls = append(m.playCalls, locator)
	return m.playResult
}

func (m *Mock) Stop(_ context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopCalls++
}

func (m *Mock) Release(_ context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseCalls++
}

// Test helpers

func (m *Mock) SetReady(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readyResult = ok
}

func (m *Mock) SetPlayResult(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playResult = ok
}

func (m *Mock) PlayCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.playCalls...)
}

func (m *Mock) StopCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopCalls
}

func (m *Mock) ReleaseCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.releaseCalls
}

// Verify Mock implements Executor at compile time.
var _ Executor = (*Mock)(nil)
