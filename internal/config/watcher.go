package config

import (
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// CollectionsWatcher hot-reloads a file-backed collection mapping when the
// file changes, so collection ids can be re-pointed without a restart.
type CollectionsWatcher struct {
	collections *Collections
	watcher     *fsnotify.Watcher
	done        chan struct{}
}

// NewCollectionsWatcher creates a watcher for the mapping's source file.
// Returns nil for env-configured mappings, which have nothing to watch.
func NewCollectionsWatcher(collections *Collections) *CollectionsWatcher {
	if collections.Path() == "" {
		return nil
	}
	return &CollectionsWatcher{
		collections: collections,
		done:        make(chan struct{}),
	}
}

// Start begins watching. The parent directory is watched rather than the
// file itself so atomic rename-into-place saves are seen. Call Stop() to
// clean up.
func (cw *CollectionsWatcher) Start() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(cw.collections.Path())); err != nil {
		_ = w.Close()
		return err
	}
	cw.watcher = w

	go cw.loop()
	log.Printf("config: watching %s for collection mapping changes", cw.collections.Path())
	return nil
}

// Stop shuts down the watcher.
func (cw *CollectionsWatcher) Stop() {
	if cw.watcher != nil {
		_ = cw.watcher.Close()
	}
	<-cw.done
}

func (cw *CollectionsWatcher) loop() {
	defer close(cw.done)
	target := filepath.Clean(cw.collections.Path())
	for {
		select {
		case evt, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(evt.Name) != target {
				continue
			}
			if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if err := cw.collections.Reload(); err != nil {
				log.Printf("config: collection mapping reload failed, keeping previous mapping: %v", err)
				continue
			}
			log.Printf("config: collection mapping reloaded from %s", cw.collections.Path())
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("config: collections watcher error: %v", err)
		}
	}
}
