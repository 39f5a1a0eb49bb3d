// Package executor hides the fact that audio decoding happens in a
// separate, independently-lifecycled process. The process is created
// lazily, takes a bounded time to become ready, and can disappear at any
// moment; every command here degrades to "treat as not playing" instead of
// propagating a transport failure.
package executor

import (
	"context"
	"errors"
)

// EventKind classifies a lifecycle event reported by the audio process.
type EventKind int

const (
	Started EventKind = iota
	Ended
	Error
)

// String returns the event kind's wire tag.
func (k EventKind) String() string {
	switch k {
	case Started:
		return "started"
	case Ended:
		return "ended"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Event is a lifecycle report from the audio process.
type Event struct {
	Kind   EventKind
	Detail string // error detail, empty otherwise
}

// Executor issues playback commands to the remote audio process.
type Executor interface {
	// EnsureReady makes sure the audio process exists and is ready.
	// Idempotent. Returns false only on unrecoverable creation failure;
	// a readiness signal that never arrives degrades to assume-ready.
	EnsureReady(ctx context.Context) bool
	// Play ensures readiness and sends a fire-and-forget play command.
	// Returns false if the process could not be readied or the command
	// could not be delivered.
	Play(ctx context.Context, locator string) bool
	// Stop sends a stop command. Delivery failure is swallowed.
	Stop(ctx context.Context)
	// Release tears the audio process down to free resources. Failure is
	// swallowed; local readiness is reset regardless.
	Release(ctx context.Context)
}

// ErrAlreadyExists is returned by Transport.Create when the audio process
// is already running; callers treat it as success.
var ErrAlreadyExists = errors.New("executor: process already exists")

// Transport is the low-level port to the audio process.
type Transport interface {
	// Exists reports whether the process is already running.
	Exists(ctx context.Context) (bool, error)
	// Create starts the process. ErrAlreadyExists means a concurrent
	// creation won the race.
	Create(ctx context.Context) error
	// SendPlay delivers a play command.
	SendPlay(ctx context.Context, locator string) error
	// SendStop delivers a stop command.
	SendStop(ctx context.Context) error
	// Destroy asks the process to exit.
	Destroy(ctx context.Context) error
}
