package dataset

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher invalidates a cache entry whenever its file changes on disk.
// Editors often replace files by rename, so the parent directory is watched.
type Watcher struct {
	path    string
	cache   *Cache
	watcher *fsnotify.Watcher
	// OnChange is called after each invalidation; optional.
	OnChange func(path string)
}

// NewWatcher creates a watcher for path backed by cache
func NewWatcher(path string, cache *Cache) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	return &Watcher{path: abs, cache: cache}, nil
}

// Start registers the directory watch. Run must be called afterwards.
func (w *Watcher) Start() error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		fw.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
	}
	w.watcher = fw
	log.Printf("[DatasetWatcher] Watching %s", w.path)
	return nil
}

// Run processes events until ctx is cancelled and then closes the watcher.
func (w *Watcher) Run(ctx context.Context) {
	if w.watcher == nil {
		return
	}
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[DatasetWatcher] Watch error: %v", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	log.Printf("[DatasetWatcher] %s changed (%s)", w.path, event.Op)
	w.cache.Invalidate(w.path)
	if w.OnChange != nil {
		w.OnChange(w.path)
	}
}
