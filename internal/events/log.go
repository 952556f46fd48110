package events

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const rawEventColumns = `id, event_type, entity_type, entity_id, payload, occurred_at, created_at`

// EventLog persists events to the events table.
type EventLog struct {
	db *sqlx.DB
}

// NewEventLog creates an event log on an open database.
func NewEventLog(db *sql.DB) *EventLog {
	return &EventLog{db: sqlx.NewDb(db, "sqlite3")}
}

// Append persists an event and returns its ID.
func (l *EventLog) Append(e Event) (int64, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return 0, fmt.Errorf("marshal event: %w", err)
	}

	result, err := l.db.Exec(`
		INSERT INTO events (event_type, entity_type, entity_id, payload, occurred_at)
		VALUES (?, ?, ?, ?, ?)`,
		e.EventType(), e.EntityType(), e.EntityID(), string(payload), e.OccurredAt().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert event: %w", err)
	}
	return result.LastInsertId()
}

// RawEvent is a persisted event with its JSON payload.
type RawEvent struct {
	ID         int64     `db:"id" json:"id"`
	EventType  string    `db:"event_type" json:"type"`
	EntityType string    `db:"entity_type" json:"entity_type"`
	EntityID   int64     `db:"entity_id" json:"entity_id"`
	Payload    string    `db:"payload" json:"-"`
	OccurredAt time.Time `db:"occurred_at" json:"occurred_at"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

func (l *EventLog) query(where string, args ...any) ([]RawEvent, error) {
	var events []RawEvent
	if err := l.db.Select(&events, "SELECT "+rawEventColumns+" FROM events "+where, args...); err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	return events, nil
}

// Since returns events that occurred at or after t, oldest first.
func (l *EventLog) Since(t time.Time) ([]RawEvent, error) {
	return l.query("WHERE occurred_at >= ? ORDER BY id ASC", t.UTC())
}

// ForEntity returns the history of one entity, oldest first.
func (l *EventLog) ForEntity(entityType string, entityID int64) ([]RawEvent, error) {
	return l.query("WHERE entity_type = ? AND entity_id = ? ORDER BY id ASC", entityType, entityID)
}

// Recent returns up to limit events, newest first.
func (l *EventLog) Recent(limit int) ([]RawEvent, error) {
	if limit <= 0 {
		return nil, nil
	}
	return l.query("ORDER BY id DESC LIMIT ?", limit)
}

// Prune removes events older than the given duration.
func (l *EventLog) Prune(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	result, err := l.db.Exec(`DELETE FROM events WHERE occurred_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune events: %w", err)
	}
	return result.RowsAffected()
}
