package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/carolus/carolus/internal/events"
)

// listEvents serves the newest events, or with ?since= every event at or
// after an RFC 3339 timestamp (oldest first, capped at limit).
func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit", defaultEvents)
	if !ok || limit < 0 {
		writeError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a non-negative number")
		return
	}
	limit = min(limit, maxEvents)

	var since time.Time
	if v := r.URL.Query().Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_SINCE", "since must be an RFC 3339 timestamp")
			return
		}
		since = t
	}

	if s.deps.EventLog == nil {
		writeError(w, http.StatusServiceUnavailable, "NO_EVENT_LOG", "Event log not configured")
		return
	}

	var (
		raw []events.RawEvent
		err error
	)
	if since.IsZero() {
		raw, err = s.deps.EventLog.Recent(limit)
	} else {
		raw, err = s.deps.EventLog.Since(since)
		if len(raw) > limit {
			raw = raw[:limit]
		}
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "EVENT_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, listEventsResponse{Items: s.eventItems(raw), Limit: limit})
}

// movieHistory serves every persisted event about one movie, oldest first.
func (s *Server) movieHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}
	if s.deps.EventLog == nil {
		writeError(w, http.StatusServiceUnavailable, "NO_EVENT_LOG", "Event log not configured")
		return
	}

	raw, err := s.deps.EventLog.ForEntity(events.EntityMovie, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "EVENT_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, movieHistoryResponse{MovieID: id, Items: s.eventItems(raw)})
}

// eventItems converts stored rows for the response. Payloads of known types
// are decoded and re-encoded so only their declared fields are exposed;
// unknown types keep their stored JSON.
func (s *Server) eventItems(raw []events.RawEvent) []eventResponse {
	items := make([]eventResponse, len(raw))
	for i, e := range raw {
		items[i] = eventResponse{
			ID:         e.ID,
			Type:       e.EventType,
			EntityType: e.EntityType,
			EntityID:   e.EntityID,
			OccurredAt: e.OccurredAt,
		}
		if ev, err := s.registry.Unmarshal(e); err == nil {
			if b, err := json.Marshal(ev); err == nil {
				items[i].Payload = b
				continue
			}
		}
		if json.Valid([]byte(e.Payload)) {
			items[i].Payload = json.RawMessage(e.Payload)
		}
	}
	return items
}
