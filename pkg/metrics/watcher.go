package metrics

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// MapWatcher watches the metric map file for changes and triggers reloads.
// It debounces rapid events so editors that write in multiple steps trigger a
// single reload.
type MapWatcher struct {
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration
	logger   *slog.Logger

	mu       sync.Mutex
	timer    *time.Timer
	watching atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// defaultDebounceInterval is the quiet period after the last file event
// before a reload fires.
const defaultDebounceInterval = 100 * time.Millisecond

// NewMapWatcher creates a watcher for the metric map at path.
func NewMapWatcher(path string, logger *slog.Logger) (*MapWatcher, error) {
	if path == "" {
		return nil, fmt.Errorf("cannot watch the embedded default metric map")
	}
	if logger == nil {
		logger = slog.Default().With("component", "metrics.watcher")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &MapWatcher{
		watcher:  watcher,
		path:     path,
		debounce: defaultDebounceInterval,
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Watch blocks processing file events until Stop is called, invoking onReload
// after each debounced change. Reload errors are logged and watching
// continues with the previous table in place.
func (w *MapWatcher) Watch(onReload func() error) error {
	w.watching.Store(true)
	defer close(w.doneCh)

	// Watch the directory rather than the file itself so atomic
	// replace-by-rename (the common editor and configmap update pattern)
	// keeps being observed.
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %q: %w", w.path, err)
	}

	w.logger.Info("metric map watcher started", "path", w.path)

	for {
		select {
		case <-w.stopCh:
			w.logger.Info("metric map watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !w.shouldProcessEvent(event) {
				continue
			}

			w.logger.Debug("metric map file event",
				"path", event.Name,
				"op", event.Op.String(),
			)

			w.trigger(func() {
				if err := onReload(); err != nil {
					w.logger.Error("metric map reload failed", "error", err)
				}
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("metric map watcher error", "error", err)
		}
	}
}

// Stop stops the watcher and waits for the watch loop to exit. Safe to call
// more than once.
func (w *MapWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		if w.watching.Load() {
			<-w.doneCh
		}

		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()

		if err := w.watcher.Close(); err != nil {
			w.logger.Error("failed to close fsnotify watcher", "error", err)
		}
	})
}

// shouldProcessEvent filters events down to content changes of the watched
// file.
func (w *MapWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	if event.Op&fsnotify.Chmod == fsnotify.Chmod {
		return false
	}
	return filepath.Base(event.Name) == filepath.Base(w.path)
}

// trigger arms the debounce timer, replacing any pending callback.
func (w *MapWatcher) trigger(callback func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case <-w.stopCh:
		default:
			callback()
		}
	})
}
