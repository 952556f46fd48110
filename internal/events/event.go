// Package events carries library changes between components and keeps an
// audit trail of them.
package events

import "time"

// Event is a single change to a movie or a scan run.
type Event interface {
	EventType() string  // e.g. "movie.added"
	EntityType() string // EntityMovie or EntityScan
	EntityID() int64    // movie id, or scan run number
	OccurredAt() time.Time
}

// BaseEvent is embedded by every concrete event. Its JSON fields are the
// columns shared by all rows of the events table.
type BaseEvent struct {
	Type      string    `json:"type"`
	Entity    string    `json:"entity_type"`
	ID        int64     `json:"entity_id"`
	Timestamp time.Time `json:"occurred_at"`
}

// NewBaseEvent returns a BaseEvent stamped with the current UTC time.
func NewBaseEvent(eventType, entityType string, entityID int64) BaseEvent {
	return BaseEvent{Type: eventType, Entity: entityType, ID: entityID, Timestamp: time.Now().UTC()}
}

func (e BaseEvent) EventType() string     { return e.Type }
func (e BaseEvent) EntityType() string    { return e.Entity }
func (e BaseEvent) EntityID() int64       { return e.ID }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }
