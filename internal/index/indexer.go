// Package index keeps the movie table in sync with the files under the
// library roots.
package index

//go:generate mockgen -destination=mocks/mock_prober.go -package=mocks . Prober

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/carolus/carolus/internal/events"
	"github.com/carolus/carolus/internal/library"
	"github.com/carolus/carolus/internal/probe"
	"github.com/carolus/carolus/pkg/release"
)

// Prober inspects a video file.
type Prober interface {
	Probe(ctx context.Context, path string) (*probe.Info, error)
}

// Publisher receives the library change events of a run.
type Publisher interface {
	Publish(ctx context.Context, e events.Event) error
}

// Config controls what the indexer looks at.
type Config struct {
	Roots       []string
	Extensions  []string
	Fingerprint bool
	Workers     int // 0 means 1
}

// Result summarizes one index run.
type Result struct {
	Run       int64         `json:"run"`
	StartedAt time.Time     `json:"started_at"`
	Found     int           `json:"found"`
	Added     int           `json:"added"`
	Updated   int           `json:"updated"`
	Moved     int           `json:"moved"`
	Removed   int           `json:"removed"`
	Unchanged int           `json:"unchanged"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration"`
}

// Indexer scans the library roots and reconciles the movie table.
type Indexer struct {
	store  *library.Store
	prober Prober    // nil disables probing
	bus    Publisher // nil disables events
	cfg    Config
	log    *slog.Logger

	running atomic.Bool
	runs    atomic.Int64

	mu   sync.Mutex
	last *Result
}

// New creates an indexer. prober and bus may be nil.
func New(store *library.Store, cfg Config, prober Prober, bus Publisher, log *slog.Logger) *Indexer {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Indexer{
		store:  store,
		prober: prober,
		bus:    bus,
		cfg:    cfg,
		log:    log.With("component", "index"),
	}
}

// Running reports whether a run is in progress.
func (ix *Indexer) Running() bool { return ix.running.Load() }

// LastResult returns the result of the last completed run, or nil.
func (ix *Indexer) LastResult() *Result {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.last == nil {
		return nil
	}
	r := *ix.last
	return &r
}

// fileState is what a worker learned about one file.
type fileState struct {
	path        string
	known       *library.Movie
	size        int64
	modTime     time.Time
	fingerprint string
	probe       *probe.Info
	unchanged   bool
	err         error
}

// Run performs one full index pass.
func (ix *Indexer) Run(ctx context.Context) (*Result, error) {
	if len(ix.cfg.Roots) == 0 {
		return nil, ErrNoRoots
	}
	if !ix.running.CompareAndSwap(false, true) {
		return nil, ErrScanInProgress
	}
	defer ix.running.Store(false)

	res := &Result{Run: ix.runs.Add(1), StartedAt: time.Now()}
	ix.log.Info("scan started", "run", res.Run, "roots", ix.cfg.Roots)
	ix.publish(ctx, &events.ScanStarted{
		BaseEvent: events.NewBaseEvent(events.EventScanStarted, events.EntityScan, res.Run),
		Roots:     ix.cfg.Roots,
	})

	if err := ix.run(ctx, res); err != nil {
		ix.log.Error("scan failed", "run", res.Run, "error", err)
		// ctx may be done; the failure still belongs in the log
		ix.publish(context.WithoutCancel(ctx), &events.ScanFailed{
			BaseEvent: events.NewBaseEvent(events.EventScanFailed, events.EntityScan, res.Run),
			Error:     err.Error(),
		})
		return nil, err
	}

	res.Duration = time.Since(res.StartedAt)
	ix.mu.Lock()
	ix.last = res
	ix.mu.Unlock()

	ix.log.Info("scan complete",
		"run", res.Run,
		"found", res.Found,
		"added", res.Added,
		"updated", res.Updated,
		"moved", res.Moved,
		"removed", res.Removed,
		"failed", res.Failed,
		"duration", res.Duration)
	ix.publish(ctx, &events.ScanCompleted{
		BaseEvent:  events.NewBaseEvent(events.EventScanCompleted, events.EntityScan, res.Run),
		Found:      res.Found,
		Added:      res.Added,
		Updated:    res.Updated,
		Moved:      res.Moved,
		Removed:    res.Removed,
		Failed:     res.Failed,
		DurationMS: res.Duration.Milliseconds(),
	})
	return res, nil
}

func (ix *Indexer) run(ctx context.Context, res *Result) error {
	paths, err := FindVideos(ctx, ix.cfg.Roots, ix.cfg.Extensions)
	if err != nil {
		return err
	}
	res.Found = len(paths)

	movies, _, err := ix.store.ListMovies(library.MovieFilter{})
	if err != nil {
		return fmt.Errorf("load movies: %w", err)
	}
	known := make(map[string]*library.Movie, len(movies))
	for _, m := range movies {
		known[m.FilePath] = m
	}

	states, err := ix.inspectAll(ctx, paths, known)
	if err != nil {
		return err
	}

	pending, err := ix.reconcile(states, known, res)
	if err != nil {
		return err
	}
	for _, e := range pending {
		ix.publish(ctx, e)
	}
	return nil
}

// inspectAll stats, fingerprints and probes files on a bounded pool.
func (ix *Indexer) inspectAll(ctx context.Context, paths []string, known map[string]*library.Movie) ([]*fileState, error) {
	states := make([]*fileState, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.cfg.Workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			states[i] = ix.inspect(gctx, path, known[path])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return states, nil
}

func (ix *Indexer) inspect(ctx context.Context, path string, known *library.Movie) *fileState {
	st := &fileState{path: path, known: known}

	fi, err := os.Stat(path)
	if err != nil {
		st.err = err
		return st
	}
	st.size = fi.Size()
	st.modTime = fi.ModTime()

	// rows indexed before fingerprinting was enabled get one now
	backfill := ix.cfg.Fingerprint && known != nil && known.Fingerprint == ""
	if known != nil && !backfill && known.SizeBytes == st.size && known.ModTime.Unix() == st.modTime.Unix() {
		st.unchanged = true
		return st
	}

	if ix.cfg.Fingerprint {
		fp, err := Fingerprint(path)
		if err != nil {
			st.err = fmt.Errorf("fingerprint: %w", err)
			return st
		}
		st.fingerprint = fp
	}

	if ix.prober != nil {
		info, err := ix.prober.Probe(ctx, path)
		if err != nil {
			// probing is best effort
			ix.log.Warn("probe failed", "path", path, "error", err)
		} else {
			st.probe = info
		}
	}
	return st
}

// reconcile applies the inspected states in one transaction and returns the
// events to publish once it is committed.
func (ix *Indexer) reconcile(states []*fileState, known map[string]*library.Movie, res *Result) ([]events.Event, error) {
	seen := make(map[string]bool, len(states))
	for _, st := range states {
		seen[st.path] = true
	}

	// vanished movies that could be claimed by a moved file
	vanished := make(map[string]*library.Movie)
	for path, m := range known {
		if !seen[path] && m.Fingerprint != "" {
			if _, dup := vanished[m.Fingerprint]; !dup {
				vanished[m.Fingerprint] = m
			}
		}
	}
	claimed := make(map[int64]bool)

	var pending []events.Event
	err := ix.store.InTx(func(tx *library.Tx) error {
		for _, st := range states {
			switch {
			case st.err != nil:
				res.Failed++
				ix.log.Warn("skipping file", "path", st.path, "error", st.err)

			case st.unchanged:
				res.Unchanged++

			case st.known != nil:
				m := st.known
				st.apply(m)
				if err := tx.UpdateMovie(m); err != nil {
					return fmt.Errorf("update %s: %w", st.path, err)
				}
				res.Updated++
				pending = append(pending, &events.MovieUpdated{
					BaseEvent: events.NewBaseEvent(events.EventMovieUpdated, events.EntityMovie, m.ID),
					MovieID:   m.ID,
					Path:      m.FilePath,
					SizeBytes: m.SizeBytes,
				})

			default:
				if m, ok := vanished[st.fingerprint]; ok && st.fingerprint != "" && !claimed[m.ID] {
					oldPath := m.FilePath
					st.apply(m)
					if err := tx.UpdateMovie(m); err != nil {
						return fmt.Errorf("move %s: %w", st.path, err)
					}
					claimed[m.ID] = true
					res.Moved++
					ix.log.Debug("movie moved", "id", m.ID, "from", oldPath, "to", m.FilePath)
					pending = append(pending, &events.MovieMoved{
						BaseEvent: events.NewBaseEvent(events.EventMovieMoved, events.EntityMovie, m.ID),
						MovieID:   m.ID,
						OldPath:   oldPath,
						NewPath:   m.FilePath,
					})
					continue
				}

				m := &library.Movie{}
				st.apply(m)
				created, err := tx.CreateMovie(m)
				if err != nil {
					return fmt.Errorf("create %s: %w", st.path, err)
				}
				if !created {
					res.Unchanged++
					continue
				}
				res.Added++
				pending = append(pending, &events.MovieAdded{
					BaseEvent: events.NewBaseEvent(events.EventMovieAdded, events.EntityMovie, m.ID),
					MovieID:   m.ID,
					Title:     m.Title,
					Year:      m.Year,
					Path:      m.FilePath,
				})
			}
		}

		for path, m := range known {
			if seen[path] || claimed[m.ID] {
				continue
			}
			if err := tx.DeleteMovie(m.ID); err != nil {
				return fmt.Errorf("remove %s: %w", path, err)
			}
			res.Removed++
			pending = append(pending, &events.MovieRemoved{
				BaseEvent: events.NewBaseEvent(events.EventMovieRemoved, events.EntityMovie, m.ID),
				MovieID:   m.ID,
				Title:     m.Title,
				Path:      path,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}
	return pending, nil
}

// apply copies what was learned about the file onto m.
func (st *fileState) apply(m *library.Movie) {
	info := TitleFor(st.path)
	m.Title = info.Title
	m.Year = info.Year
	m.FilePath = st.path
	m.SizeBytes = st.size
	m.ModTime = st.modTime
	m.Fingerprint = st.fingerprint
	if p := st.probe; p != nil {
		m.Container = p.Container
		m.DurationSeconds = int64(p.Duration / time.Second)
		m.VideoCodec = p.VideoCodec
		m.AudioCodec = p.AudioCodec
		m.Width = p.Width
		m.Height = p.Height
	}
}

// TitleFor parses the movie title and year from a file path. When the file
// name carries no year but its directory does ("Heat (1995)/movie.mkv"), the
// directory name wins.
func TitleFor(path string) *release.Info {
	info := release.Parse(path)
	if info.Year != 0 {
		return info
	}
	if dir := release.Parse(filepath.Dir(path)); dir.Year != 0 {
		return dir
	}
	return info
}

func (ix *Indexer) publish(ctx context.Context, e events.Event) {
	if ix.bus == nil {
		return
	}
	if err := ix.bus.Publish(ctx, e); err != nil && !errors.Is(err, context.Canceled) {
		ix.log.Warn("publish event failed", "type", e.EventType(), "error", err)
	}
}
