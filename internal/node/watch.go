package node

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"filecrawl/internal/logger"
)

// DefaultRootPoll is how often a Watcher compares the filesystem roots
// with its last snapshot.
const DefaultRootPoll = 5 * time.Second

// WatchOptions configures a Watcher.
type WatchOptions struct {
	// RootPoll is the interval of the roots check. Zero selects
	// DefaultRootPoll and a negative value disables it.
	RootPoll time.Duration
	// OnChange is called from Run for every node it invalidates.
	OnChange func(Node)
}

// Watcher invalidates watched directory nodes when entries appear in or
// disappear from them, and the root node when the set of filesystem roots
// changes, e.g. when a removable drive is attached.
type Watcher struct {
	provider *Provider
	fsw      *fsnotify.Watcher
	opts     WatchOptions

	mu      sync.Mutex
	watched map[string]Node
	roots   []string
}

// NewWatcher creates a Watcher for nodes of p. Call Run to process events
// and Close to release it.
func (p *Provider) NewWatcher(opts WatchOptions) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if opts.RootPoll == 0 {
		opts.RootPoll = DefaultRootPoll
	}
	return &Watcher{
		provider: p,
		fsw:      fsw,
		opts:     opts,
		watched:  make(map[string]Node),
		roots:    p.roots(),
	}, nil
}

// Watch starts watching the directory n. Only readable directories on the
// local filesystem can be watched.
func (w *Watcher) Watch(n Node) error {
	if n.Kind() != KindRegular || !n.IsDir() {
		return fmt.Errorf("cannot watch %s: not a local directory", n.Path())
	}
	path := filepath.Clean(n.Path())
	if err := w.fsw.Add(path); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	w.mu.Lock()
	w.watched[path] = n
	w.mu.Unlock()
	return nil
}

// Unwatch stops watching n.
func (w *Watcher) Unwatch(n Node) {
	path := filepath.Clean(n.Path())
	w.mu.Lock()
	_, ok := w.watched[path]
	delete(w.watched, path)
	w.mu.Unlock()
	if !ok {
		return
	}
	if err := w.fsw.Remove(path); err != nil {
		logger.LogDebug("Unwatch %s: %v", path, err)
	}
}

// Run processes events until ctx is done or the Watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	var tick <-chan time.Time
	if w.opts.RootPoll > 0 {
		t := time.NewTicker(w.opts.RootPoll)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			logger.LogWarning("Watcher error: %v", err)
		case <-tick:
			w.pollRoots()
		}
	}
}

// Close stops watching every directory.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	path := filepath.Clean(ev.Name)
	w.invalidate(filepath.Dir(path))
	if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		// the kernel watch is gone with the directory
		w.mu.Lock()
		n, ok := w.watched[path]
		delete(w.watched, path)
		w.mu.Unlock()
		if ok {
			w.changed(n)
		}
	}
}

func (w *Watcher) invalidate(path string) {
	w.mu.Lock()
	n, ok := w.watched[path]
	w.mu.Unlock()
	if ok {
		w.changed(n)
	}
}

func (w *Watcher) changed(n Node) {
	n.Invalidate()
	logger.LogDebug("Invalidated %s", n.Path())
	if w.opts.OnChange != nil {
		w.opts.OnChange(n)
	}
}

func (w *Watcher) pollRoots() {
	current := w.provider.roots()
	w.mu.Lock()
	same := slices.Equal(current, w.roots)
	w.roots = current
	w.mu.Unlock()
	if same {
		return
	}
	logger.LogInfo("Filesystem roots changed: %v", current)
	w.changed(w.provider.Root())
}
