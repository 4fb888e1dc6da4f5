package pipeline

import "time"

// EventType represents the type of pipeline event
type EventType string

const (
	EventPhase     EventType = "phase"     // State.Phase changed
	EventPage      EventType = "page"      // one page extracted
	EventCancelled EventType = "cancelled" // attempt abandoned, back to Idle
)

// Event is emitted while an attempt runs.
type Event struct {
	Type       EventType
	State      State
	Page       int
	TotalPages int
	Timestamp  time.Time
}
