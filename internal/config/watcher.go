package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"taskpilot/internal/logging"
)

// Watcher watches .taskpilot/config.json for changes and invokes a callback
// with the freshly loaded config. Rapid saves from editors are debounced.
type Watcher struct {
	mu         sync.Mutex
	watcher    *fsnotify.Watcher
	configPath string
	onChange   func(*UserConfig)
	pending    map[string]time.Time
	debounce   time.Duration
	stopCh     chan struct{}
	doneCh     chan struct{}
	running    bool
}

// NewWatcher creates a watcher for the given config file path.
// onChange is called after every debounced change with the reloaded config.
func NewWatcher(configPath string, onChange func(*UserConfig)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		watcher:    fw,
		configPath: configPath,
		onChange:   onChange,
		pending:    make(map[string]time.Time),
		debounce:   500 * time.Millisecond, // Debounce rapid saves
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}, nil
}

// Start begins watching. Non-blocking; the event loop runs in a goroutine.
// Watches the containing directory because editors replace files on save.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil // Already running
	}
	w.running = true
	w.mu.Unlock()

	dir := filepath.Dir(w.configPath)
	if err := w.watcher.Add(dir); err != nil {
		logging.Get(logging.CategoryBoot).Warn("Config watcher: initial watch failed (dir may not exist): %v", err)
	} else {
		logging.Boot("Config watcher: watching %s", dir)
	}

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for cleanup.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		logging.Get(logging.CategoryBoot).Error("Config watcher: error closing: %v", err)
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Get(logging.CategoryBoot).Error("Config watcher error: %v", err)

		case <-ticker.C:
			w.flushPending()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != filepath.Clean(w.configPath) {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}

	w.mu.Lock()
	w.pending[event.Name] = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) flushPending() {
	w.mu.Lock()
	var fire bool
	now := time.Now()
	for name, at := range w.pending {
		if now.Sub(at) >= w.debounce {
			delete(w.pending, name)
			fire = true
		}
	}
	w.mu.Unlock()

	if !fire {
		return
	}

	cfg, err := LoadUserConfig(w.configPath)
	if err != nil {
		logging.Get(logging.CategoryBoot).Warn("Config watcher: reload failed: %v", err)
		return
	}
	logging.Boot("Config reloaded from %s", w.configPath)
	if w.onChange != nil {
		w.onChange(cfg)
	}
}
