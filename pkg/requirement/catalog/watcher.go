package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a catalog when its backing file changes on disk.
// Events are debounced so editors that write in several steps trigger a
// single reload.
type Watcher struct {
	catalog  *Catalog
	logger   *slog.Logger
	debounce time.Duration
}

// NewWatcher creates a watcher for the catalog's configured path.
// The debounce interval defaults to 200ms when zero.
func NewWatcher(c *Catalog, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if c.path == "" {
		return nil, fmt.Errorf("catalog has no configured path to watch")
	}
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		catalog:  c,
		logger:   logger.With("component", "requirement.watcher"),
		debounce: debounce,
	}, nil
}

// Watch blocks until the context is cancelled, reloading the catalog after
// each debounced change to the backing file. The parent directory is watched
// rather than the file itself so atomic rename-style writes are seen.
func (w *Watcher) Watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer fw.Close()

	dir := filepath.Dir(w.catalog.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %q: %w", dir, err)
	}

	w.logger.Info("catalog watcher started",
		"path", w.catalog.path,
		"debounce_ms", w.debounce.Milliseconds(),
	)

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("catalog watcher stopped")
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.catalog.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			if err := w.catalog.Load(); err != nil {
				w.logger.Error("catalog reload failed", "error", err)
				continue
			}
			w.logger.Info("catalog reloaded", "requirements", w.catalog.Len())

		case err, ok := <-fw.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}
