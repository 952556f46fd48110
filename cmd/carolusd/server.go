package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/carolus/carolus/internal/api"
	"github.com/carolus/carolus/internal/config"
	"github.com/carolus/carolus/internal/events"
	"github.com/carolus/carolus/internal/handlers"
	"github.com/carolus/carolus/internal/index"
	"github.com/carolus/carolus/internal/library"
	"github.com/carolus/carolus/internal/migrations"
	"github.com/carolus/carolus/internal/probe"
	"github.com/carolus/carolus/internal/server"
	"github.com/carolus/carolus/internal/watch"
)

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func runServer(ctx context.Context, configPath string) error {
	// Load config
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Server.LogLevel),
	}))

	// Ensure database directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}

	db, err := openDB(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := migrations.Migrate(db, logger); err != nil {
		return err
	}

	eventLog := events.NewEventLog(db)
	bus := events.NewBus(eventLog, logger.With("component", "bus"))
	defer func() { _ = bus.Close() }()

	runner, err := buildRunner(cfg, db, bus, logger)
	if err != nil {
		return err
	}
	if err := runner.Run(ctx); err != nil {
		return err
	}
	return nil
}

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)
	return db, nil
}

// buildRunner wires the store, indexer, scheduler, watcher and API into a
// runner. An initial scan is queued.
func buildRunner(cfg *config.Config, db *sql.DB, bus *events.Bus, logger *slog.Logger) (*server.Runner, error) {
	store := library.NewStore(db)
	eventLog := bus.Log()

	// === Indexing ===
	var prober index.Prober
	if cfg.Library.Probe {
		ff := probe.New(cfg.Library.FFprobe)
		if err := ff.Available(); err != nil {
			logger.Warn("probing disabled", "ffprobe", cfg.Library.FFprobe, "error", err)
		} else {
			prober = ff
		}
	}

	indexer := index.New(store, index.Config{
		Roots:       cfg.Library.Roots,
		Extensions:  cfg.Library.Extensions,
		Fingerprint: cfg.Library.Fingerprint,
		Workers:     cfg.Library.Workers,
	}, prober, bus, logger)
	scheduler := index.NewScheduler(indexer, cfg.Library.ScanInterval, logger)

	// === HTTP ===
	apiServer, err := api.NewWithDeps(api.ServerDeps{
		Library:  store,
		EventLog: eventLog,
		Scanner:  scheduler,
		Status:   indexer,
		Version:  version,
		Roots:    cfg.Library.Roots,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("api: %w", err)
	}

	runner := server.NewRunner(server.Config{
		Addr:      cfg.Addr(),
		CertFile:  cfg.Server.TLS.CertFile,
		KeyFile:   cfg.Server.TLS.KeyFile,
		Retention: cfg.Events.Retention,
	}, apiServer.Handler(), logger)
	runner.Add("scheduler", scheduler)
	if cfg.Library.Watch {
		runner.Add("watcher", watch.New(cfg.Library.Roots, cfg.Library.Extensions,
			cfg.Library.WatchDebounce, scheduler, logger))
	}
	runner.SetPruner(eventLog)

	activity := handlers.NewActivityHandler(bus, logger)
	runner.Add(activity.Name(), activity)

	logger.Info("carolus configured",
		"version", version,
		"database", cfg.Database.Path,
		"roots", cfg.Library.Roots,
		"watch", cfg.Library.Watch,
		"scan_interval", cfg.Library.ScanInterval,
		"probe", prober != nil,
		"log_level", cfg.Server.LogLevel,
	)

	scheduler.Trigger()
	return runner, nil
}
