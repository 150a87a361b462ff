package config

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vyrodovalexey/treejoin/internal/observability"
)

// DefaultDebounceDelay is how long the watcher waits after the last file
// event before reloading.
const DefaultDebounceDelay = 100 * time.Millisecond

// ErrWatcherStopped is returned by Start after Stop has been called.
var ErrWatcherStopped = errors.New("config watcher stopped")

// ConfigCallback is called with every newly loaded valid configuration.
type ConfigCallback func(*PipelineConfig)

// ErrorCallback is called when a reload fails or the file system watcher
// reports an error.
type ErrorCallback func(error)

// Watcher reloads a pipeline configuration file when it changes on disk.
//
// Reloads are debounced, and a file rewritten with identical content does
// not reach the callback. Invalid configurations are reported to the error
// callback and the last valid one stays current. A stopped Watcher cannot
// be restarted.
type Watcher struct {
	path     string
	fs       *fsnotify.Watcher
	onChange ConfigCallback
	onError  ErrorCallback
	logger   observability.Logger
	debounce time.Duration

	mu      sync.Mutex
	current *PipelineConfig
	digest  [sha256.Size]byte
	cancel  context.CancelFunc
	done    chan struct{}
	stopped bool

	closeOnce sync.Once
	closeErr  error
}

// WatcherOption is a functional option for configuring the watcher.
type WatcherOption func(*Watcher)

// WithDebounceDelay sets the debounce delay for file changes.
func WithDebounceDelay(delay time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = delay
	}
}

// WithLogger sets the logger for the watcher.
func WithLogger(logger observability.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// WithErrorCallback sets the error callback for the watcher.
func WithErrorCallback(callback ErrorCallback) WatcherOption {
	return func(w *Watcher) {
		w.onError = callback
	}
}

// NewWatcher creates a watcher for the configuration file at path. The
// caller must call Stop to release the file system watcher, even if Start
// fails or is never called.
func NewWatcher(path string, onChange ConfigCallback, opts ...WatcherOption) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", path, err)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		path:     absPath,
		fs:       fsWatcher,
		onChange: onChange,
		logger:   observability.NopLogger(),
		debounce: DefaultDebounceDelay,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start loads the configuration, which must be valid, and watches the file
// until ctx is canceled or Stop is called. The initial configuration does
// not reach the callback; read it with GetLastConfig.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch {
	case w.stopped:
		return ErrWatcherStopped
	case w.done != nil:
		return nil
	}

	cfg, digest, err := w.load()
	if err != nil {
		return err
	}
	w.current, w.digest = cfg, digest

	// Editors often replace the file instead of writing it, so the parent
	// directory is watched.
	if err := w.fs.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	go w.run(ctx, w.done)

	w.logger.Info("watching pipeline configuration",
		observability.String("path", w.path),
		observability.String("pipeline", cfg.Metadata.Name),
	)
	return nil
}

// Stop ends the watch loop, waits for it to exit and closes the file system
// watcher. It is safe to call more than once.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	w.stopped = true
	cancel, done := w.cancel, w.done
	w.cancel = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	w.closeOnce.Do(func() {
		w.closeErr = w.fs.Close()
	})
	return w.closeErr
}

// GetLastConfig returns the last valid configuration, or nil before the
// first successful load.
func (w *Watcher) GetLastConfig() *PipelineConfig {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// ForceReload loads the configuration now and passes it to the callback
// when valid, even if the file content is unchanged.
func (w *Watcher) ForceReload() error {
	cfg, digest, err := w.load()
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.current, w.digest = cfg, digest
	w.mu.Unlock()

	w.notify(cfg)
	return nil
}

func (w *Watcher) run(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	// One timer serves every debounce window; Reset restarts it on each
	// event for the watched file.
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("stopped watching pipeline configuration",
				observability.String("path", w.path))
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if w.affectsConfig(event) {
				w.logger.Debug("pipeline configuration file changed",
					observability.String("op", event.Op.String()))
				timer.Reset(w.debounce)
			}

		case <-timer.C:
			w.reload()

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.fail("config watcher error", err)
		}
	}
}

// affectsConfig reports whether event may have changed the content of the
// watched file. Removal and rename are included so that a deleted file is
// reported on the next reload.
func (w *Watcher) affectsConfig(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove)
}

// reload applies the file content if it is valid and differs from the
// current configuration.
func (w *Watcher) reload() {
	cfg, digest, err := w.load()
	if err != nil {
		w.fail("pipeline configuration reload failed", err)
		return
	}

	w.mu.Lock()
	unchanged := w.current != nil && digest == w.digest
	if !unchanged {
		w.current, w.digest = cfg, digest
	}
	w.mu.Unlock()

	if unchanged {
		w.logger.Debug("pipeline configuration content unchanged")
		return
	}

	w.logger.Info("pipeline configuration reloaded",
		observability.String("pipeline", cfg.Metadata.Name),
		observability.Int("steps", len(cfg.Spec.Steps)),
	)
	w.notify(cfg)
}

// load reads, parses and validates the file. The digest covers the raw
// bytes, before environment substitution.
func (w *Watcher) load() (*PipelineConfig, [sha256.Size]byte, error) {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return nil, [sha256.Size]byte{}, fmt.Errorf("failed to read config file %s: %w", w.path, err)
	}

	cfg, err := NewLoader().parseConfig(data)
	if err != nil {
		return nil, [sha256.Size]byte{}, err
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, [sha256.Size]byte{}, err
	}
	return cfg, sha256.Sum256(data), nil
}

func (w *Watcher) notify(cfg *PipelineConfig) {
	if w.onChange != nil {
		w.onChange(cfg)
	}
}

func (w *Watcher) fail(msg string, err error) {
	w.logger.Error(msg,
		observability.String("path", w.path),
		observability.Error(err),
	)
	if w.onError != nil {
		w.onError(err)
	}
}
