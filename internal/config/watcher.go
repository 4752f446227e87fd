package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kodhe/router/internal/observability/logging"
)

// ReloadFunc is called with the path of a changed file after debouncing.
type ReloadFunc func(path string)

// ErrorFunc is called when the underlying filesystem watcher reports an error.
type ErrorFunc func(error)

// Watcher watches route-definition and configuration files for changes and
// triggers reloads. Events are debounced so editors that write in several
// steps cause a single reload.
type Watcher struct {
	paths         map[string]struct{}
	watcher       *fsnotify.Watcher
	onReload      ReloadFunc
	onError       ErrorFunc
	logger        *logging.Logger
	debounceDelay time.Duration
	mu            sync.Mutex
	stopCh        chan struct{}
	stoppedCh     chan struct{}
	running       bool
}

// WatcherOption is a functional option for configuring the watcher.
type WatcherOption func(*Watcher)

// WithDebounceDelay sets the debounce delay for file changes.
func WithDebounceDelay(delay time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounceDelay = delay
	}
}

// WithWatcherLogger sets the logger for the watcher.
func WithWatcherLogger(logger *logging.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// WithErrorFunc sets the error callback for the watcher.
func WithErrorFunc(fn ErrorFunc) WatcherOption {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// NewWatcher creates a watcher over the given files.
func NewWatcher(paths []string, onReload ReloadFunc, opts ...WatcherOption) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		paths:         make(map[string]struct{}, len(paths)),
		watcher:       fsWatcher,
		onReload:      onReload,
		logger:        logging.NewNop(),
		debounceDelay: 100 * time.Millisecond,
		stopCh:        make(chan struct{}),
		stoppedCh:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	for _, path := range paths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			_ = fsWatcher.Close()
			return nil, err
		}
		w.paths[absPath] = struct{}{}
	}

	return w, nil
}

// Start begins watching. Directories are watched rather than the files
// themselves so rename-and-replace saves are still observed.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	dirs := make(map[string]struct{})
	for path := range w.paths {
		dirs[filepath.Dir(path)] = struct{}{}
	}
	for dir := range dirs {
		if err := w.watcher.Add(dir); err != nil {
			return err
		}
	}

	w.logger.Info("started watching route files",
		logging.Int("files", len(w.paths)),
	)

	go w.watch(ctx)

	return nil
}

// Stop stops watching.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.stoppedCh

	return w.watcher.Close()
}

// watch is the main watch loop.
func (w *Watcher) watch(ctx context.Context) {
	defer close(w.stoppedCh)

	var debounceTimer *time.Timer
	var debounceCh <-chan time.Time
	var pending string

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("file watcher stopped due to context cancellation")
			return

		case <-w.stopCh:
			w.logger.Info("file watcher stopped")
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			name := filepath.Clean(event.Name)
			if _, watched := w.paths[name]; !watched {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			w.logger.Debug("route file changed",
				logging.Path(name),
				logging.String("op", event.Op.String()),
			)

			pending = name
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.NewTimer(w.debounceDelay)
			debounceCh = debounceTimer.C

		case <-debounceCh:
			debounceCh = nil
			if w.onReload != nil {
				w.onReload(pending)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("file watcher error", logging.Err(err))
			if w.onError != nil {
				w.onError(err)
			}
		}
	}
}
