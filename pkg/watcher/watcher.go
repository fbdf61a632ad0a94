// Package watcher reports file changes under analyzed trees. Events are
// filtered with the tree's own filter and coalesced per tree, so a
// burst of saves yields one callback listing every touched path.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/haigpapa/Chromatoverse/pkg/filter"
)

// DefaultDebounce is the quiet period used when Config.Debounce is zero.
const DefaultDebounce = time.Second

// Change is one debounced batch of events under a watched tree.
type Change struct {
	Root  string
	Paths []string // distinct, sorted
}

// Config holds watcher configuration
type Config struct {
	Debounce time.Duration // quiet period per tree before OnChange fires
	OnChange func(Change)

	// Notify lists base names reported even when the tree filter skips them
	Notify []string
}

// tree is a WatchTree root together with its filter and pending batch.
type tree struct {
	filter  *filter.Filter
	pending map[string]struct{}
	timer   *time.Timer
}

// FileWatcher watches analysis roots recursively.
type FileWatcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	onChange func(Change)
	notify   []string

	mu    sync.Mutex
	dirs  map[string]bool
	trees map[string]*tree
}

// New creates a watcher. Nothing is delivered until Start runs.
func New(cfg *Config) (*FileWatcher, error) {
	var c Config
	if cfg != nil {
		c = *cfg
	}
	if c.Debounce <= 0 {
		c.Debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	return &FileWatcher{
		fsw:      fsw,
		debounce: c.Debounce,
		onChange: c.OnChange,
		notify:   c.Notify,
		dirs:     map[string]bool{},
		trees:    map[string]*tree{},
	}, nil
}

// WatchTree watches root and every directory under it that f does not
// prune. Events on files f skips are dropped. A nil f means filter.Default.
// Watching the same root again replaces its filter.
func (w *FileWatcher) WatchTree(root string, f *filter.Filter) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	if f == nil {
		f = filter.Default()
	}

	w.mu.Lock()
	if t, ok := w.trees[abs]; ok {
		t.filter = f
	} else {
		w.trees[abs] = &tree{filter: f, pending: map[string]struct{}{}}
	}
	w.mu.Unlock()

	return w.addDirs(abs, abs, f)
}

// addDirs registers dir and its non-pruned descendants. An unreadable
// subdirectory is logged and skipped; an unreadable dir fails.
func (w *FileWatcher) addDirs(root, dir string, f *filter.Filter) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		switch {
		case err != nil && p == dir:
			return err
		case err != nil:
			slog.Warn("Skipping unreadable directory", "path", p, "error", err)
			return nil
		case !d.IsDir():
			return nil
		case p != root && f.SkipDir(relSlash(root, p), d.Name()):
			return filepath.SkipDir
		}

		w.mu.Lock()
		defer w.mu.Unlock()
		if w.dirs[p] {
			return nil
		}
		if err := w.fsw.Add(p); err != nil {
			return fmt.Errorf("failed to watch %s: %w", p, err)
		}
		w.dirs[p] = true
		return nil
	})
}

// Unwatch stops watching root and drops its pending batch. Unknown roots
// are ignored.
func (w *FileWatcher) Unwatch(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	t, ok := w.trees[abs]
	if !ok {
		return nil
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	delete(w.trees, abs)

	for dir := range w.dirs {
		if within(abs, dir) && w.ownerLocked(dir) == "" {
			w.dropDirLocked(dir)
		}
	}
	return nil
}

// dropDirLocked forgets dir. fsnotify already removed the watch if the
// directory is gone, so the Remove error is ignored.
func (w *FileWatcher) dropDirLocked(dir string) {
	_ = w.fsw.Remove(dir)
	delete(w.dirs, dir)
}

// RootOf returns the innermost watched root containing path
func (w *FileWatcher) RootOf(path string) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	root := w.ownerLocked(path)
	return root, root != ""
}

func (w *FileWatcher) ownerLocked(path string) string {
	best := ""
	for root := range w.trees {
		if within(root, path) && len(root) > len(best) {
			best = root
		}
	}
	return best
}

// Start pumps fsnotify events until ctx is done or the watcher is closed.
func (w *FileWatcher) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.handle(ev)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			slog.Warn("Watcher error", "error", err)
		}
	}
}

func (w *FileWatcher) handle(ev fsnotify.Event) {
	path := ev.Name

	w.mu.Lock()
	root := w.ownerLocked(path)
	if root == "" {
		w.mu.Unlock()
		return
	}
	f := w.trees[root].filter
	wasDir := w.dirs[path]
	if wasDir && ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		w.dropDirLocked(path)
	}
	w.mu.Unlock()

	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if f.SkipDir(relSlash(root, path), info.Name()) {
				return
			}
			if err := w.addDirs(root, path, f); err != nil {
				slog.Warn("Failed to watch new directory", "path", path, "error", err)
			}
			w.enqueue(root, path)
			return
		}
	}

	name := filepath.Base(path)
	if !wasDir && path != root && !slices.Contains(w.notify, name) && f.SkipFile(relSlash(root, path), name) {
		return
	}
	w.enqueue(root, path)
}

// enqueue adds path to root's batch and restarts the quiet period.
func (w *FileWatcher) enqueue(root, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	t, ok := w.trees[root]
	if !ok {
		return
	}
	t.pending[path] = struct{}{}
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(w.debounce, func() { w.flush(root, t) })
}

func (w *FileWatcher) flush(root string, t *tree) {
	w.mu.Lock()
	if w.trees[root] != t || len(t.pending) == 0 {
		w.mu.Unlock()
		return
	}
	paths := make([]string, 0, len(t.pending))
	for p := range t.pending {
		paths = append(paths, p)
	}
	t.pending = map[string]struct{}{}
	t.timer = nil
	w.mu.Unlock()

	slices.Sort(paths)
	if w.onChange != nil {
		w.onChange(Change{Root: root, Paths: paths})
	}
}

// Close cancels pending batches and releases the fsnotify watcher.
func (w *FileWatcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, t := range w.trees {
		if t.timer != nil {
			t.timer.Stop()
		}
		t.pending = map[string]struct{}{}
	}
	return w.fsw.Close()
}

// Watched returns the watched directories in sorted order
func (w *FileWatcher) Watched() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]string, 0, len(w.dirs))
	for dir := range w.dirs {
		out = append(out, dir)
	}
	slices.Sort(out)
	return out
}

func within(root, path string) bool {
	return path == root || strings.HasPrefix(path, root+string(filepath.Separator))
}

func relSlash(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
