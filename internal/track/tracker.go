// Package track feeds a form-state file into an auto-saver. Each change of the
// file on disk counts as one observation of the form's data.
package track

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	json "github.com/goccy/go-json"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Observer receives decoded form data. *draft.AutoSaver satisfies it.
type Observer interface {
	Observe(data any)
}

// Tracker watches one JSON file and forwards its decoded content.
type Tracker struct {
	path     string
	observer Observer
	logger   *zap.Logger
	fs       afero.Fs

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	running bool
	last    []byte
	latest  any
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New creates a Tracker for path. A nil logger discards log output.
func New(path string, observer Observer, logger *zap.Logger) (*Tracker, error) {
	if observer == nil {
		return nil, fmt.Errorf("track: observer required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		path:     abs,
		observer: observer,
		logger:   logger.With(zap.String("file", abs)),
		fs:       afero.NewOsFs(),
	}, nil
}

// Path returns the watched file.
func (t *Tracker) Path() string {
	return t.path
}

// Start reads the file once, which is the form's initial state, and then
// watches its directory so rename-on-save editors are followed. A missing,
// empty or undecodable file is observed as nil, so the first real edit is
// always a change. It returns once watching has begun.
func (t *Tracker) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(t.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(t.path), err)
	}

	t.watcher = watcher
	t.running = true
	t.stopCh = make(chan struct{})
	t.doneCh = make(chan struct{})

	if !t.loadLocked() {
		t.observer.Observe(nil)
	}

	go t.run(ctx, watcher, t.stopCh, t.doneCh)
	return nil
}

// Stop ends watching and waits for the event loop to exit.
func (t *Tracker) Stop() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	t.running = false
	stopCh, doneCh, watcher := t.stopCh, t.doneCh, t.watcher
	t.mu.Unlock()

	close(stopCh)
	<-doneCh
	if err := watcher.Close(); err != nil {
		t.logger.Warn("error closing watcher", zap.Error(err))
	}
}

// Latest returns the most recently decoded content, or nil.
func (t *Tracker) Latest() any {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.latest
}

func (t *Tracker) run(ctx context.Context, watcher *fsnotify.Watcher, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != t.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			t.mu.Lock()
			t.loadLocked()
			t.mu.Unlock()
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			t.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

// loadLocked decodes the file and forwards it when the content changed,
// reporting whether it did. Editors often emit several events for one save,
// and a half-written file fails to decode; both are skipped.
func (t *Tracker) loadLocked() bool {
	raw, err := afero.ReadFile(t.fs, t.path)
	if err != nil {
		t.logger.Debug("form file not readable", zap.Error(err))
		return false
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, t.last) {
		return false
	}

	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		t.logger.Warn("ignoring invalid form state", zap.Error(err))
		return false
	}
	t.last = raw
	t.latest = data
	t.observer.Observe(data)
	return true
}
