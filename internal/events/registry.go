package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
)

// ErrUnknownEvent is returned by Registry.Unmarshal for unregistered types.
var ErrUnknownEvent = errors.New("unknown event type")

// Registry turns stored payloads back into concrete events. Each event
// type maps to a constructor returning a pointer to its zero value.
type Registry struct {
	factories map[string]func() Event
}

func NewRegistry() *Registry {
	return &Registry{factories: map[string]func() Event{}}
}

// Register binds eventType to newEvent, replacing any earlier binding.
func (r *Registry) Register(eventType string, newEvent func() Event) {
	r.factories[eventType] = newEvent
}

// Types lists the registered event types in sorted order.
func (r *Registry) Types() []string {
	return slices.Sorted(maps.Keys(r.factories))
}

// Unmarshal decodes raw.Payload into the event type named by raw.EventType.
func (r *Registry) Unmarshal(raw RawEvent) (Event, error) {
	newEvent, ok := r.factories[raw.EventType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, raw.EventType)
	}
	e := newEvent()
	if err := json.Unmarshal([]byte(raw.Payload), e); err != nil {
		return nil, fmt.Errorf("unmarshal event payload: %w", err)
	}
	return e, nil
}

// DefaultRegistry registers every movie and scan event.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for typ, newEvent := range map[string]func() Event{
		EventMovieAdded:    func() Event { return &MovieAdded{} },
		EventMovieUpdated:  func() Event { return &MovieUpdated{} },
		EventMovieMoved:    func() Event { return &MovieMoved{} },
		EventMovieRemoved:  func() Event { return &MovieRemoved{} },
		EventScanStarted:   func() Event { return &ScanStarted{} },
		EventScanCompleted: func() Event { return &ScanCompleted{} },
		EventScanFailed:    func() Event { return &ScanFailed{} },
	} {
		r.Register(typ, newEvent)
	}
	return r
}
