// Package session holds the single persisted record of current playback
// intent: what is audible right now, and where a "play all" traversal
// stands. The daemon process may be torn down at any point, so this record
// is the source of truth and in-memory copies are only a cache of it.
package session

// Item is one entry of a playback queue, derived from the content catalog
// when the queue is started. Immutable once queued.
type Item struct {
	Locator       string `json:"locator"`       // audio URL, may be empty
	Label         string `json:"label"`         // display text for UI correlation
	OriginalIndex int    `json:"originalIndex"` // index in the source category
}

// Session is the playback/queue state persisted between daemon restarts
// within one login session.
type Session struct {
	Playing       bool   `json:"playing"`
	QueueActive   bool   `json:"queueActive"`
	QueueIndex    int    `json:"queueIndex"`
	QueueItems    []Item `json:"queueItems"`
	QueueCategory string `json:"queueCategory"`
	SingleIndex   int    `json:"singleIndex"` // single-play item index, -1 when none
}

// Default returns the all-idle session.
func Default() Session {
	return Session{SingleIndex: -1}
}

// CurrentOriginalIndex returns the OriginalIndex of the queue item at
// QueueIndex, or -1 when no queue item is current.
func (s Session) CurrentOriginalIndex() int {
	if s.QueueActive && s.QueueIndex >= 0 && s.QueueIndex < len(s.QueueItems) {
		return s.QueueItems[s.QueueIndex].OriginalIndex
	}
	return -1
}

// QueueDone reports whether the traversal has run past the last item.
func (s Session) QueueDone() bool {
	return s.QueueIndex >= len(s.QueueItems)
}

// ResetQueue clears every queue field back to its default.
func (s *Session) ResetQueue() {
	s.QueueActive = false
	s.QueueIndex = 0
	s.QueueItems = nil
	s.QueueCategory = ""
}
