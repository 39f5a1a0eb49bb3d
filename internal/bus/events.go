// Package bus fans playback and reminder events out to any number of UI
// observers. Broadcasting with zero observers is the common case (no UI
// surface open at all) and always succeeds.
package bus

// Event is the tagged union of everything the daemon broadcasts.
type Event interface {
	eventType() string
}

// StateUpdate is a flattened snapshot of the playback session, emitted
// after every state transition. It deliberately carries totals instead of
// the internal queue item list to keep payloads small.
type StateUpdate struct {
	Playing              bool   `json:"playing"`
	QueueActive          bool   `json:"queueActive"`
	QueueIndex           int    `json:"queueIndex"`
	QueueTotal           int    `json:"queueTotal"`
	QueueCategory        string `json:"queueCategoryKey"`
	SingleIndex          int    `json:"singleItemIndex"`
	CurrentOriginalIndex int    `json:"currentOriginalIndex"`
}

func (StateUpdate) eventType() string { return "stateUpdate" }

// QueueFinished is emitted exactly once when a queue traversal completes.
type QueueFinished struct{}

func (QueueFinished) eventType() string { return "queueFinished" }

// Reminder carries the dhikr chosen for a periodic reminder, so an open UI
// can render it as an overlay alongside the desktop notification.
type Reminder struct {
	ID              string `json:"id"`
	Arabic          string `json:"arabic"`
	Transliteration string `json:"transliteration,omitempty"`
	Translation     string `json:"translation,omitempty"`
	Source          string `json:"source,omitempty"`
	Times           int    `json:"times,omitempty"`
	Category        string `json:"category,omitempty"`
}

func (Reminder) eventType() string { return "reminder" }

// Type returns the wire tag for an event.
func Type(e Event) string { return e.eventType() }
