// Package watch reloads a store when another process changes its backend.
// File backends are watched with fsnotify; network backends are polled for
// a new revision.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/julianstephens/stride/internal/constants"
	"github.com/julianstephens/stride/internal/logger"
	"github.com/julianstephens/stride/internal/storage"
)

// ErrNotWatchable is returned for backends that only this process can change.
var ErrNotWatchable = errors.New("backend cannot be watched")

// Reloader re-reads stored state. *store.Store satisfies it.
type Reloader interface {
	Reload(ctx context.Context) (changed bool, err error)
}

// Options tunes a Watcher. Zero values use the package defaults.
type Options struct {
	Debounce     time.Duration
	PollInterval time.Duration
}

// Watcher triggers Reload after the backend changes.
type Watcher struct {
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	target   Reloader
	debounce time.Duration

	// file mode
	fsw  *fsnotify.Watcher
	path string

	// poll mode
	rev      storage.Revisioned
	interval time.Duration
}

// New returns a watcher suited to p: fsnotify for file backends, revision
// polling for backends that report revisions.
func New(p storage.Provider, target Reloader, opts Options) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = constants.WatchDebounce
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = constants.PollInterval
	}

	w := &Watcher{
		target:   target,
		debounce: opts.Debounce,
		interval: opts.PollInterval,
	}

	switch kind := storage.KindOfProvider(p); {
	case kind.IsFile():
		fsw, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, fmt.Errorf("failed to create file watcher: %w", err)
		}
		w.fsw = fsw
		w.path = p.GetConfigPath()
	case kind == storage.KindMemory:
		return nil, ErrNotWatchable
	default:
		rev, ok := p.(storage.Revisioned)
		if !ok {
			return nil, ErrNotWatchable
		}
		w.rev = rev
	}
	return w, nil
}

// Start begins watching in a goroutine. It returns once the watch is set up.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	var loop func(context.Context, int64)
	var lastRev int64
	if w.fsw != nil {
		// The directory is watched because writers replace the file by rename.
		dir := filepath.Dir(w.path)
		if err := w.fsw.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		logger.Debug("watching data file", "path", w.path)
		loop = w.watchFiles
	} else {
		rev, err := w.rev.Revision(ctx)
		if err != nil {
			return fmt.Errorf("failed to read backend revision: %w", err)
		}
		lastRev = rev
		logger.Debug("polling backend revision", "interval", w.interval, "revision", rev)
		loop = w.poll
	}

	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.running = true
	go loop(ctx, lastRev)
	return nil
}

// Stop ends the watch and waits for the goroutine to exit. It is safe to
// call more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		if w.fsw != nil {
			w.fsw.Close()
		}
		return
	}
	w.running = false
	close(w.stopCh)
	done := w.doneCh
	w.mu.Unlock()

	<-done
	if w.fsw != nil {
		if err := w.fsw.Close(); err != nil {
			logger.Warn("failed to close file watcher", "error", err)
		}
	}
}

// relevant reports whether an event concerns the data file, including the
// SQLite journal files next to it.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
		return false
	}
	name := filepath.Clean(ev.Name)
	base := filepath.Clean(w.path)
	return name == base || strings.HasPrefix(name, base+"-")
}

func (w *Watcher) watchFiles(ctx context.Context, _ int64) {
	defer close(w.doneCh)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if w.relevant(ev) {
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("file watcher error", "error", err)
		case <-timer.C:
			w.reload(ctx)
		}
	}
}

func (w *Watcher) poll(ctx context.Context, last int64) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			rev, err := w.rev.Revision(ctx)
			if err != nil {
				logger.Warn("failed to poll backend revision", "error", err)
				continue
			}
			if rev == last {
				continue
			}
			last = rev
			w.reload(ctx)
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	changed, err := w.target.Reload(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logger.Warn("reload after backend change failed", "error", err)
		}
		return
	}
	if changed {
		logger.Debug("reloaded state changed by another process")
	}
}
