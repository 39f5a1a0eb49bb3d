// internal/session/interface.go
package session

import "context"

// Store persists the playback session.
//
// Load never fails: an unreadable or missing record yields Default(), so a
// storage outage degrades to "no session" rather than an error. Save is
// best-effort; losing a write only weakens resume-after-restart behaviour,
// never the correctness of the in-flight playback flow.
type Store interface {
	Load(ctx context.Context) Session
	Save(ctx context.Context, s Session)
	Close() error
}

// Verify Manager implements Store at compile time.
var _ Store = (*Manager)(nil)
