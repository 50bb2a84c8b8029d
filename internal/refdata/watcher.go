package refdata

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/yegors/procroute/pkg/logger"
)

// DefaultDebounce is how long the watcher waits after the last file event
// before reloading
const DefaultDebounce = 500 * time.Millisecond

// ErrNoFiles indicates there is nothing to watch
var ErrNoFiles = errors.New("no reference files to watch")

// Watcher reloads the store when a watched reference file changes. The
// parent directories are watched so files replaced by rename are seen too.
type Watcher struct {
	loader   *Loader
	files    map[string]struct{}
	dirs     []string
	debounce time.Duration
	logger   *logger.Logger

	mu      sync.Mutex
	timer   *time.Timer
	reloads chan struct{}
}

// NewWatcher creates a watcher over files
func NewWatcher(loader *Loader, files []string, debounce time.Duration, logger *logger.Logger) (*Watcher, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w := &Watcher{
		loader:   loader,
		files:    make(map[string]struct{}, len(files)),
		debounce: debounce,
		logger:   logger.Named("refdata-watch"),
		reloads:  make(chan struct{}, 1),
	}

	seen := make(map[string]bool)
	for _, file := range files {
		abs, err := filepath.Abs(file)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", file, err)
		}
		w.files[abs] = struct{}{}

		dir := filepath.Dir(abs)
		if !seen[dir] {
			seen[dir] = true
			w.dirs = append(w.dirs, dir)
		}
	}
	return w, nil
}

// Run watches until ctx is done
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fsw.Close()

	for _, dir := range w.dirs {
		if err := fsw.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	w.logger.Info("Watching reference files",
		logger.Strings("dirs", w.dirs),
		logger.Duration("debounce", w.debounce),
	)

	defer w.stopTimer()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("File watcher error", logger.Error(err))
		case <-w.reloads:
			if _, err := w.loader.Reload(ctx); err != nil {
				w.logger.Warn("Reload after file change failed", logger.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}
	if _, ok := w.files[filepath.Clean(event.Name)]; !ok {
		return
	}

	w.logger.Debug("Reference file changed",
		logger.String("path", event.Name),
		logger.String("op", event.Op.String()),
	)
	w.schedule()
}

// schedule restarts the debounce timer
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case w.reloads <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
