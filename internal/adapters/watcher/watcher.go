package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// BatchFunc handles a settled set of new or changed files. It runs on the
// watcher goroutine, so batches never overlap.
type BatchFunc func(ctx context.Context, paths []string)

// Watcher watches one directory (not its subdirectories) and reports files
// once they have been quiet for the debounce interval
type Watcher struct {
	watcher  *fsnotify.Watcher
	dir      string
	debounce time.Duration
	onBatch  BatchFunc
	logger   *zap.Logger
	pending  map[string]time.Time // path -> last event
}

// New creates a watcher for dir. Debounce <= 0 uses 500ms.
func New(dir string, debounce time.Duration, onBatch BatchFunc, logger *zap.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	return &Watcher{
		watcher:  fw,
		dir:      filepath.Clean(dir),
		debounce: debounce,
		onBatch:  onBatch,
		logger:   logger,
		pending:  make(map[string]time.Time),
	}, nil
}

// Run processes events until ctx is done, then closes the watcher
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	tick := w.debounce / 5
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	w.logger.Info("watching", zap.String("dir", w.dir), zap.Duration("debounce", w.debounce))

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))

		case now := <-ticker.C:
			w.flush(ctx, now)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Dir(event.Name) != w.dir || strings.HasPrefix(filepath.Base(event.Name), ".") {
		return
	}

	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		w.pending[event.Name] = time.Now()
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		delete(w.pending, event.Name)
	}
}

// flush hands over every pending file that has been quiet long enough
func (w *Watcher) flush(ctx context.Context, now time.Time) {
	var ready []string
	for path, last := range w.pending {
		if now.Sub(last) < w.debounce {
			continue
		}
		delete(w.pending, path)
		// Directories and files already gone are not candidates
		if info, err := os.Lstat(path); err == nil && info.Mode().IsRegular() {
			ready = append(ready, path)
		}
	}
	if len(ready) == 0 {
		return
	}

	sort.Strings(ready)
	w.logger.Debug("batch ready", zap.Strings("paths", ready))
	w.onBatch(ctx, ready)
}
