package ir

import "time"

// EventAction is the kind of change recorded in the override history.
type EventAction string

const (
	EventSet   EventAction = "set"
	EventClear EventAction = "clear"
)

// OverrideEvent is one append-only history entry.
// Seq is the logical clock; RecordedAt is informational only.
type OverrideEvent struct {
	ID         string      `json:"id"`
	Seq        int64       `json:"seq"`
	SessionID  string      `json:"session_id"`
	Action     EventAction `json:"action"`
	Status     Status      `json:"status,omitempty"`
	Reason     string      `json:"reason,omitempty"`
	RecordedAt time.Time   `json:"recorded_at"`
}
