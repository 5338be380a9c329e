// Package watcher reports on-disk changes to open files. Each tracked file
// is watched through its parent directory so atomic saves, which replace
// the file, are still seen. Rapid changes to one path are coalesced into a
// single FileChanged command.
package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/cybernobie/lapce/internal/command"
	"github.com/cybernobie/lapce/internal/logging"
)

var (
	// ErrWatcherClosed is returned when operating on a closed watcher.
	ErrWatcherClosed = errors.New("watcher is closed")

	// ErrNotWatching is returned when removing an untracked path.
	ErrNotWatching = errors.New("path is not being watched")
)

// DefaultDelay is the debounce window used when none is configured.
const DefaultDelay = 100 * time.Millisecond

// Stats holds watcher statistics.
type Stats struct {
	TrackedFiles int
	WatchedDirs  int
	Pending      int
	Events       int64
	Errors       int64
}

// Watcher turns file system events for tracked files into FileChanged
// commands.
type Watcher struct {
	sink   command.Sink
	logger *logging.Logger
	delay  time.Duration

	fsw *fsnotify.Watcher

	mu      sync.Mutex
	files   map[string]bool
	dirs    map[string]int
	pending map[string]*time.Timer
	closed  bool
	closeCh chan struct{}

	events atomic.Int64
	errors atomic.Int64
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDelay sets the debounce window.
func WithDelay(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.delay = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(w *Watcher) {
		w.logger = logging.OrNop(l)
	}
}

// New creates a watcher that sends FileChanged commands to sink.
func New(sink command.Sink, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		sink:    sink,
		logger:  logging.Nop(),
		delay:   DefaultDelay,
		fsw:     fsw,
		files:   make(map[string]bool),
		dirs:    make(map[string]int),
		pending: make(map[string]*time.Timer),
		closeCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Add starts tracking path. Adding a tracked path is a no-op.
func (w *Watcher) Add(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if w.files[absPath] {
		return nil
	}

	dir := filepath.Dir(absPath)
	if w.dirs[dir] == 0 {
		if _, err := os.Stat(dir); err != nil {
			return err
		}
		if err := w.fsw.Add(dir); err != nil {
			return err
		}
	}
	w.dirs[dir]++
	w.files[absPath] = true
	return nil
}

// Remove stops tracking path.
func (w *Watcher) Remove(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if !w.files[absPath] {
		return ErrNotWatching
	}
	delete(w.files, absPath)
	if t, ok := w.pending[absPath]; ok {
		t.Stop()
		delete(w.pending, absPath)
	}

	dir := filepath.Dir(absPath)
	w.dirs[dir]--
	if w.dirs[dir] > 0 {
		return nil
	}
	delete(w.dirs, dir)
	if err := w.fsw.Remove(dir); err != nil && !errors.Is(err, fsnotify.ErrNonExistentWatch) {
		return err
	}
	return nil
}

// IsTracking reports whether path is tracked.
func (w *Watcher) IsTracking(path string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.files[absPath]
}

// Run processes file system events until ctx is done, then closes the
// watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.Close()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-w.closeCh:
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.errors.Add(1)
			w.logger.Warn("watch error: %v", err)
		}
	}
}

// handle debounces a relevant event.
func (w *Watcher) handle(ev fsnotify.Event) {
	if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
		return
	}
	path := filepath.Clean(ev.Name)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || !w.files[path] {
		return
	}
	w.events.Add(1)

	if t, ok := w.pending[path]; ok {
		t.Reset(w.delay)
		return
	}
	w.pending[path] = time.AfterFunc(w.delay, func() {
		w.fire(path)
	})
}

// fire sends the pending change for path.
func (w *Watcher) fire(path string) {
	w.mu.Lock()
	if _, ok := w.pending[path]; !ok || w.closed {
		w.mu.Unlock()
		return
	}
	delete(w.pending, path)
	w.mu.Unlock()

	w.logger.Debug("file changed on disk: %s", path)
	if err := command.Submit(w.sink, command.FileChanged{Path: path}); err != nil {
		w.logger.Debug("file change for %s dropped: %v", path, err)
	}
}

// Flush immediately fires all pending changes.
func (w *Watcher) Flush() {
	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for path, t := range w.pending {
		t.Stop()
		paths = append(paths, path)
	}
	w.mu.Unlock()

	for _, path := range paths {
		w.fire(path)
	}
}

// Close stops the watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()

	return w.fsw.Close()
}

// Stats returns watcher statistics.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Stats{
		TrackedFiles: len(w.files),
		WatchedDirs:  len(w.dirs),
		Pending:      len(w.pending),
		Events:       w.events.Load(),
		Errors:       w.errors.Load(),
	}
}
