package flatfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/rentals/internal/domain"
	"github.com/gosuda/rentals/internal/store"
)

// DefaultDebounce collapses the burst of events a single save produces.
const DefaultDebounce = 250 * time.Millisecond

// isDataFile reports whether path names one of the five data files. Staged
// temporary files never match.
func isDataFile(path string) bool {
	base := filepath.Base(path)
	for _, k := range domain.Kinds() {
		if base == FileName(k) {
			return true
		}
	}
	return false
}

// Watch calls fn with a fresh LoadAll result once at start and again after
// every change to a data file, until ctx is done. Events closer together than
// debounce produce a single reload. fn runs on the watching goroutine.
func (c *Coordinator) Watch(ctx context.Context, debounce time.Duration, fn func(*store.Snapshot, *Report)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("flatfile.Watch: %w", err)
	}
	defer w.Close()

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("flatfile.Watch: %w", &domain.IOError{Op: "create directory", Path: c.dir, Err: err})
	}
	if err := w.Add(c.dir); err != nil {
		return fmt.Errorf("flatfile.Watch: %w", &domain.IOError{Op: "watch", Path: c.dir, Err: err})
	}

	reload := func() bool {
		snap, rep, err := c.LoadAll(ctx)
		if err != nil {
			return false
		}
		fn(snap, rep)
		return true
	}
	if !reload() {
		return nil
	}

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

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !isDataFile(event.Name) || event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			log.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("flatfile.Watch: change")
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Str("dir", c.dir).Msg("flatfile.Watch: watcher error")

		case <-fire:
			fire = nil
			if !reload() {
				return nil
			}
		}
	}
}
