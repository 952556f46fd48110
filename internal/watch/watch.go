// Package watch re-indexes the library when files under its roots appear,
// grow, move or disappear.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/carolus/carolus/internal/index"
)

// Trigger queues an index run.
type Trigger interface {
	Trigger() bool
}

// Watcher turns filesystem notifications into debounced index triggers.
type Watcher struct {
	roots    []string
	exts     []string
	debounce time.Duration
	target   Trigger
	log      *slog.Logger
	ready    chan struct{}
}

// New creates a watcher over roots. exts select which created or written
// files matter.
func New(roots, exts []string, debounce time.Duration, target Trigger, log *slog.Logger) *Watcher {
	if log == nil {
		log = slog.Default()
	}
	return &Watcher{
		roots:    roots,
		exts:     exts,
		debounce: debounce,
		target:   target,
		log:      log.With("component", "watch"),
		ready:    make(chan struct{}),
	}
}

// Ready is closed once every root is being watched.
func (w *Watcher) Ready() <-chan struct{} { return w.ready }

// Run watches until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	for _, root := range w.roots {
		if err := w.addTree(fw, root); err != nil {
			return fmt.Errorf("watch %s: %w", root, err)
		}
	}
	close(w.ready)
	w.log.Info("watching library", "roots", w.roots, "debounce", w.debounce)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case e, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(fw, e) {
				continue
			}
			w.log.Debug("library changed", "op", e.Op.String(), "path", e.Name)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "error", err)

		case <-fire:
			fire = nil
			if w.target.Trigger() {
				w.log.Info("library changed, scan queued")
			}
		}
	}
}

// relevant reports whether e should lead to a scan. New directories are
// added to the watch set as a side effect.
func (w *Watcher) relevant(fw *fsnotify.Watcher, e fsnotify.Event) bool {
	if strings.HasPrefix(filepath.Base(e.Name), ".") {
		return false
	}
	switch {
	case e.Has(fsnotify.Remove), e.Has(fsnotify.Rename):
		return true
	case e.Has(fsnotify.Create):
		fi, err := os.Stat(e.Name)
		if err != nil {
			// gone again already
			return true
		}
		if fi.IsDir() {
			if err := w.addTree(fw, e.Name); err != nil {
				w.log.Warn("watch new directory failed", "path", e.Name, "error", err)
			}
			return true
		}
		return index.IsVideoFile(e.Name, w.exts)
	case e.Has(fsnotify.Write):
		// a file still being copied keeps pushing the scan back
		return index.IsVideoFile(e.Name, w.exts)
	}
	// chmods
	return false
}

func (w *Watcher) addTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return fw.Add(path)
	})
}
