// Package handlers reacts to library events published on the bus.
package handlers

import (
	"context"
	"log/slog"

	"github.com/carolus/carolus/internal/events"
)

// Handler consumes bus events until its context ends.
type Handler interface {
	Run(ctx context.Context) error
	Name() string
}

// base holds what every handler needs: its name, the bus and a logger
// tagged with the handler's component name.
type base struct {
	name   string
	bus    *events.Bus
	logger *slog.Logger
}

func newBase(name string, bus *events.Bus, logger *slog.Logger) base {
	if logger == nil {
		logger = slog.Default()
	}
	return base{
		name:   name,
		bus:    bus,
		logger: logger.With("component", name),
	}
}

// Name returns the handler name used in logs.
func (b *base) Name() string { return b.name }
