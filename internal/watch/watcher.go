package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/vk/projweave/internal/ctxlog"
)

// DefaultDelay is the quiet period before a batch of changes is reported.
const DefaultDelay = 150 * time.Millisecond

// Watcher reports changes to a set of files. It watches their parent
// directories so that editors replacing a file on save are still noticed.
type Watcher struct {
	fsw       *fsnotify.Watcher
	debouncer *Debouncer
	logger    *slog.Logger
	changes   chan []string

	mu    sync.Mutex
	files map[string]struct{}
	dirs  map[string]struct{}

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// New creates a watcher that batches changes over delay.
func New(ctx context.Context, delay time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if delay <= 0 {
		delay = DefaultDelay
	}

	w := &Watcher{
		fsw:      fsw,
		logger:   ctxlog.FromContext(ctx),
		changes:  make(chan []string, 1),
		files:    make(map[string]struct{}),
		dirs:     make(map[string]struct{}),
		stopChan: make(chan struct{}),
	}
	w.debouncer = NewDebouncer(delay, func(files []string) {
		// A queued batch already triggers a rerun that reads fresh files.
		select {
		case w.changes <- files:
		default:
		}
	})

	w.wg.Add(1)
	go w.watch()
	return w, nil
}

// Changes delivers batches of changed files.
func (w *Watcher) Changes() <-chan []string {
	return w.changes
}

// Set replaces the watched files.
func (w *Watcher) Set(files []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	nextFiles := make(map[string]struct{}, len(files))
	nextDirs := make(map[string]struct{})
	for _, f := range files {
		f = filepath.Clean(filepath.FromSlash(f))
		nextFiles[f] = struct{}{}
		nextDirs[filepath.Dir(f)] = struct{}{}
	}

	var errs []error
	for dir := range w.dirs {
		if _, keep := nextDirs[dir]; keep {
			continue
		}
		if err := w.fsw.Remove(dir); err != nil && !errors.Is(err, fsnotify.ErrNonExistentWatch) {
			errs = append(errs, fmt.Errorf("failed to stop watching %s: %w", dir, err))
		}
		delete(w.dirs, dir)
	}
	for dir := range nextDirs {
		if _, ok := w.dirs[dir]; ok {
			continue
		}
		if err := w.fsw.Add(dir); err != nil {
			errs = append(errs, fmt.Errorf("failed to watch directory %s: %w", dir, err))
			continue
		}
		w.dirs[dir] = struct{}{}
		w.logger.Debug("Watching directory.", "dir", dir)
	}
	w.files = nextFiles
	return errors.Join(errs...)
}

// Close stops the watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	select {
	case <-w.stopChan:
		return nil
	default:
		close(w.stopChan)
	}
	w.debouncer.Stop()
	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) watch() {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			name := filepath.Clean(event.Name)
			if !w.watches(name) {
				continue
			}
			w.logger.Debug("Project file changed.", "file", name, "op", event.Op.String())
			w.debouncer.Add(name)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("File watcher error.", "error", err)

		case <-w.stopChan:
			return
		}
	}
}

func (w *Watcher) watches(file string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.files[file]
	return ok
}

// Cycle runs one composition and returns the project files it read. On
// failure it should still return whatever files are worth watching.
type Cycle func(ctx context.Context) []string

// Run calls cycle once, then again after every batch of changes to the files
// the previous run returned, until ctx is cancelled.
func Run(ctx context.Context, delay time.Duration, cycle Cycle) error {
	logger := ctxlog.FromContext(ctx)

	w, err := New(ctx, delay)
	if err != nil {
		return err
	}
	defer w.Close()

	refresh := func() {
		files := cycle(ctx)
		if len(files) == 0 {
			logger.Warn("Composition reported no project files; keeping previous watch list.")
			return
		}
		if err := w.Set(files); err != nil {
			logger.Warn("Failed to update watch list.", "error", err)
		}
	}

	refresh()
	logger.Info("Watching for changes. Press Ctrl+C to stop.")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Watch stopped.")
			return nil
		case files := <-w.Changes():
			logger.Info("Change detected, recomposing.", "files", files)
			refresh()
		}
	}
}
