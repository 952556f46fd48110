package events

import (
	"context"
	"log/slog"
	"sync"
)

type subscription struct {
	ch    chan Event
	match func(Event) bool
	label string
}

// Bus fans events out to subscribers and optionally persists them.
// Delivery never blocks: a full subscriber channel drops the event.
type Bus struct {
	mu     sync.RWMutex
	subs   []*subscription
	log    *EventLog // may be nil
	logger *slog.Logger
	closed bool
}

// NewBus creates a new event bus. log may be nil to disable persistence.
func NewBus(log *EventLog, logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{log: log, logger: logger.With("component", "events")}
}

// Log returns the persistence log, or nil.
func (b *Bus) Log() *EventLog { return b.log }

// Publish persists e and delivers it to every matching subscriber.
// Publishing on a closed bus is a no-op.
func (b *Bus) Publish(ctx context.Context, e Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil
	}

	if b.log != nil {
		if _, err := b.log.Append(e); err != nil {
			// delivery still happens
			b.logger.Error("failed to persist event", "type", e.EventType(), "error", err)
		}
	}

	for _, s := range b.subs {
		if !s.match(e) {
			continue
		}
		select {
		case s.ch <- e:
		default:
			b.logger.Warn("subscriber channel full, dropping event",
				"subscription", s.label,
				"type", e.EventType(),
				"entity_type", e.EntityType(),
				"entity_id", e.EntityID())
		}
	}
	return nil
}

func (b *Bus) subscribe(label string, bufferSize int, match func(Event) bool) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, bufferSize)
	if b.closed {
		close(ch)
		return ch
	}
	b.subs = append(b.subs, &subscription{ch: ch, match: match, label: label})
	return ch
}

// Subscribe returns a channel for events of one type.
func (b *Bus) Subscribe(eventType string, bufferSize int) <-chan Event {
	return b.subscribe(eventType, bufferSize, func(e Event) bool {
		return e.EventType() == eventType
	})
}

// SubscribeAll returns a channel for every event.
func (b *Bus) SubscribeAll(bufferSize int) <-chan Event {
	return b.subscribe("*", bufferSize, func(Event) bool { return true })
}

// SubscribeEntity returns a channel for the events of one entity.
func (b *Bus) SubscribeEntity(entityType string, entityID int64, bufferSize int) <-chan Event {
	return b.subscribe(entityType, bufferSize, func(e Event) bool {
		return e.EntityType() == entityType && e.EntityID() == entityID
	})
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Bus) Unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s.ch == ch {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			close(s.ch)
			return
		}
	}
}

// Close shuts down the bus and closes all subscriber channels.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for _, s := range b.subs {
		close(s.ch)
	}
	b.subs = nil
	return nil
}
