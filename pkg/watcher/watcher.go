// Package watcher re-triggers analysis when the edge list changes on
// disk.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/rogersrj/cycle-analyzer/pkg/logging"
)

// DefaultQuietPeriod is how long the file must stay unchanged before a
// change event fires. Editors and exports write in bursts.
const DefaultQuietPeriod = 500 * time.Millisecond

// ChangeEvent signals that the watched edge list settled after a change.
type ChangeEvent struct {
	Path      string
	Timestamp time.Time
}

// EdgeListWatcher watches a single edge list file. The containing
// directory is watched rather than the file itself, because most tools
// save by writing a temp file and renaming it over the original.
type EdgeListWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	quiet   time.Duration
	events  chan ChangeEvent
}

// New creates a watcher for the given edge list path.
func New(path string, quiet time.Duration) (*EdgeListWatcher, error) {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	dir := filepath.Dir(path)
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	return &EdgeListWatcher{
		watcher: fw,
		path:    path,
		quiet:   quiet,
		events:  make(chan ChangeEvent, 10),
	}, nil
}

// Start begins watching until the context is canceled.
func (w *EdgeListWatcher) Start(ctx context.Context) {
	logging.Info("watching edge list", "path", w.path, "quietPeriod", w.quiet)
	go w.run(ctx)
}

// Events returns the channel of debounced change events.
func (w *EdgeListWatcher) Events() <-chan ChangeEvent {
	return w.events
}

func (w *EdgeListWatcher) run(ctx context.Context) {
	quiet := time.NewTimer(w.quiet)
	quiet.Stop()
	pending := false

	target := filepath.Clean(w.path)

	for {
		select {
		case <-ctx.Done():
			w.watcher.Close()
			close(w.events)
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				close(w.events)
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			logging.Debug("edge list changed", "op", event.Op.String())
			pending = true
			quiet.Reset(w.quiet)

		case <-quiet.C:
			if !pending {
				continue
			}
			pending = false
			select {
			case w.events <- ChangeEvent{Path: w.path, Timestamp: time.Now()}:
			default:
				logging.Warn("change event dropped, consumer is behind")
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				close(w.events)
				return
			}
			logging.Error("watcher error", "error", err)
		}
	}
}
