package api

import (
	"errors"

	"github.com/carolus/carolus/internal/events"
	"github.com/carolus/carolus/internal/index"
	"github.com/carolus/carolus/internal/library"
)

// ScanTrigger queues index runs.
type ScanTrigger interface {
	Trigger() bool
	Pending() bool
}

// ScanStatus reports on index runs.
type ScanStatus interface {
	Running() bool
	LastResult() *index.Result
}

// ServerDeps contains all dependencies for the API server.
// Required dependencies must be non-nil; optional dependencies may be nil.
type ServerDeps struct {
	// Required dependencies
	Library *library.Store

	// Optional dependencies (nil if not configured)
	EventLog *events.EventLog
	Scanner  ScanTrigger
	Status   ScanStatus

	Version string
	Roots   []string
}

// Validate checks that all required dependencies are provided.
func (d ServerDeps) Validate() error {
	if d.Library == nil {
		return errors.New("library store is required")
	}
	return nil
}
