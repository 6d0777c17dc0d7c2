// SPDX-License-Identifier: MIT

package gallery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ManuGH/memed/internal/log"
	"github.com/fsnotify/fsnotify"
)

// announceSuppression is how long a filename announced by the share endpoint
// stays muted in the watcher, so a shared meme is not broadcast twice.
const announceSuppression = 10 * time.Second

// Watcher observes the shared directory with fsnotify and invokes notify for
// images that appear outside the share endpoint, e.g. files dropped straight
// into the mounted volume.
type Watcher struct {
	dir    string
	notify func(name string)

	mu        sync.Mutex
	announced map[string]time.Time

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewWatcher starts watching dir. notify is called with the bare filename of
// every new complete image.
func NewWatcher(dir string, notify func(name string)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify.NewWatcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch directory %s: %w", dir, err)
	}

	w := &Watcher{
		dir:       dir,
		notify:    notify,
		announced: make(map[string]time.Time),
		watcher:   fw,
		done:      make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Suppress mutes the watcher for a filename the share endpoint has already
// broadcast itself. Expired entries are pruned on every insert so the map
// stays bounded by the share rate within one suppression window.
func (w *Watcher) Suppress(name string) {
	now := time.Now()
	w.mu.Lock()
	defer w.mu.Unlock()
	for n, ts := range w.announced {
		if now.Sub(ts) > announceSuppression {
			delete(w.announced, n)
		}
	}
	w.announced[name] = now
}

func (w *Watcher) suppressed(name string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	ts, ok := w.announced[name]
	if !ok {
		return false
	}
	if time.Since(ts) > announceSuppression {
		delete(w.announced, name)
		return false
	}
	return true
}

func (w *Watcher) run() {
	logger := log.WithComponent("gallery-watcher")
	defer close(w.done)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Write) {
				continue
			}
			name := filepath.Base(event.Name)
			if !IsImageName(name) || w.suppressed(name) {
				continue
			}
			// Creates can fire before data is flushed; only announce once
			// content is present. The trailing Write event catches files
			// whose Create raced the first bytes.
			info, err := os.Stat(event.Name)
			if err != nil || info.Size() == 0 {
				continue
			}
			// One announcement per file; later Writes are muted.
			w.Suppress(name)
			logger.Info().
				Str(log.FieldEvent, "gallery.external_image").
				Str(log.FieldFile, name).
				Msg("new image in shared directory")
			w.notify(name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn().Err(err).Msg("fsnotify watcher error")
		}
	}
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close(ctx context.Context) error {
	err := w.watcher.Close()
	select {
	case <-w.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return err
}
