// Package server runs the HTTP listener and the background library jobs
// as one unit.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	defaultShutdownTimeout = 30 * time.Second
	defaultPruneInterval   = time.Hour
)

// Service is a background component that runs until its context ends.
type Service interface {
	Run(ctx context.Context) error
}

// Pruner deletes audit events older than a cutoff.
type Pruner interface {
	Prune(olderThan time.Duration) (int64, error)
}

// Config for the runner.
type Config struct {
	Addr            string
	CertFile        string // TLS is used when both files are set
	KeyFile         string
	ShutdownTimeout time.Duration
	Retention       time.Duration // zero disables pruning
	PruneInterval   time.Duration
}

// Runner manages the HTTP server and background services.
type Runner struct {
	config   Config
	handler  http.Handler
	services map[string]Service
	pruner   Pruner
	logger   *slog.Logger

	ready chan struct{}
	addr  net.Addr
}

// NewRunner creates a new runner serving handler.
func NewRunner(cfg Config, handler http.Handler, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	if cfg.PruneInterval <= 0 {
		cfg.PruneInterval = defaultPruneInterval
	}
	return &Runner{
		config:   cfg,
		handler:  handler,
		services: make(map[string]Service),
		logger:   logger,
		ready:    make(chan struct{}),
	}
}

// Add registers a background service under name. Nil services are ignored.
// Must be called before Run.
func (r *Runner) Add(name string, s Service) {
	if s == nil {
		return
	}
	r.services[name] = s
}

// SetPruner enables periodic event pruning.
func (r *Runner) SetPruner(p Pruner) { r.pruner = p }

// Ready is closed once the listener is bound.
func (r *Runner) Ready() <-chan struct{} { return r.ready }

// Addr returns the bound address. Only valid after Ready is closed.
func (r *Runner) Addr() net.Addr { return r.addr }

// TLS reports whether the server listens with TLS.
func (r *Runner) TLS() bool {
	return r.config.CertFile != "" && r.config.KeyFile != ""
}

// Run serves HTTP and runs all services.
// It blocks until the context is canceled or a component fails, then shuts
// the HTTP server down gracefully.
func (r *Runner) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", r.config.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", r.config.Addr, err)
	}
	defer func() { _ = ln.Close() }()
	r.addr = ln.Addr()
	close(r.ready)

	srv := &http.Server{
		Handler:           r.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		r.logger.Info("server starting", "addr", r.addr.String(), "tls", r.TLS())
		var err error
		if r.TLS() {
			err = srv.ServeTLS(ln, r.config.CertFile, r.config.KeyFile)
		} else {
			err = srv.Serve(ln)
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.config.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		r.logger.Info("server stopped")
		return nil
	})

	for name, s := range r.services {
		g.Go(func() error {
			r.logger.Debug("service started", "service", name)
			if err := s.Run(ctx); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			r.logger.Debug("service stopped", "service", name)
			return nil
		})
	}

	if r.pruner != nil && r.config.Retention > 0 {
		g.Go(func() error {
			r.runPruner(ctx)
			return nil
		})
	}

	return g.Wait()
}

func (r *Runner) runPruner(ctx context.Context) {
	ticker := time.NewTicker(r.config.PruneInterval)
	defer ticker.Stop()

	for {
		r.prune()
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (r *Runner) prune() {
	n, err := r.pruner.Prune(r.config.Retention)
	if err != nil {
		r.logger.Error("prune events failed", "error", err)
		return
	}
	if n > 0 {
		r.logger.Info("pruned events", "count", n, "retention", r.config.Retention)
	}
}
