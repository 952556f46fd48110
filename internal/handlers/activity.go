package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/carolus/carolus/internal/events"
)

// ActivityHandler writes every library change to the log. Scan summaries
// are logged by the indexer itself and only repeated at debug level.
type ActivityHandler struct {
	base
	ch <-chan events.Event
}

// NewActivityHandler subscribes to the bus immediately so events published
// before Run starts are not missed.
func NewActivityHandler(bus *events.Bus, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{
		base: newBase("activity", bus, logger),
		ch:   bus.SubscribeAll(100),
	}
}

// Run logs events until ctx is done or the bus is closed.
func (h *ActivityHandler) Run(ctx context.Context) error {
	defer h.bus.Unsubscribe(h.ch)

	for {
		select {
		case e, ok := <-h.ch:
			if !ok {
				return nil
			}
			h.handle(e)
		case <-ctx.Done():
			return nil
		}
	}
}

func (h *ActivityHandler) handle(e events.Event) {
	log := h.logger
	switch e := e.(type) {
	case *events.MovieAdded:
		log.Info("movie added", "movie_id", e.MovieID, "title", e.Title, "year", e.Year, "path", e.Path)
	case *events.MovieUpdated:
		log.Info("movie updated", "movie_id", e.MovieID, "path", e.Path, "size", e.SizeBytes)
	case *events.MovieMoved:
		log.Info("movie moved", "movie_id", e.MovieID, "from", e.OldPath, "to", e.NewPath)
	case *events.MovieRemoved:
		log.Info("movie removed", "movie_id", e.MovieID, "title", e.Title, "path", e.Path)
	case *events.ScanStarted:
		log.Debug("scan started", "run", e.EntityID(), "roots", e.Roots)
	case *events.ScanCompleted:
		log.Debug("scan completed",
			"run", e.EntityID(),
			"found", e.Found,
			"added", e.Added,
			"updated", e.Updated,
			"moved", e.Moved,
			"removed", e.Removed,
			"failed", e.Failed,
			"duration", time.Duration(e.DurationMS)*time.Millisecond)
	case *events.ScanFailed:
		log.Debug("scan failed", "run", e.EntityID(), "error", e.Error)
	default:
		log.Debug("event", "type", e.EventType(), "entity_type", e.EntityType(), "entity_id", e.EntityID())
	}
}
