package index

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Scanner runs one index pass.
type Scanner interface {
	Run(ctx context.Context) (*Result, error)
}

// Scheduler serializes index runs. Requests made while a run is queued are
// coalesced into it.
type Scheduler struct {
	scanner  Scanner
	interval time.Duration
	trigger  chan struct{}
	log      *slog.Logger
}

// NewScheduler creates a scheduler. A zero interval disables periodic runs.
func NewScheduler(scanner Scanner, interval time.Duration, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		scanner:  scanner,
		interval: interval,
		trigger:  make(chan struct{}, 1),
		log:      log.With("component", "scheduler"),
	}
}

// Trigger queues a run. It returns false when one is already queued.
func (s *Scheduler) Trigger() bool {
	select {
	case s.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Pending reports whether a run is queued.
func (s *Scheduler) Pending() bool { return len(s.trigger) > 0 }

// Run executes queued and periodic runs until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	var tick <-chan time.Time
	if s.interval > 0 {
		t := time.NewTicker(s.interval)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.trigger:
			s.scan(ctx, "trigger")
		case <-tick:
			s.scan(ctx, "interval")
		}
	}
}

func (s *Scheduler) scan(ctx context.Context, reason string) {
	s.log.Debug("starting scan", "reason", reason)
	_, err := s.scanner.Run(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrScanInProgress):
		s.log.Debug("scan skipped, another is running", "reason", reason)
	case ctx.Err() != nil:
	default:
		s.log.Error("scan failed", "reason", reason, "error", err)
	}
}
