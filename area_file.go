package pstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/go-logr/logr"
	"github.com/sdassow/atomic"
)

// FileArea is the persistent storage area: a single JSON object file
// mapping keys to stored text. Writes replace the file atomically so a
// reader never observes a half-written document.
//
// Watch turns on the cross-process notification channel: writes made by
// other processes to the same file are detected, diffed per key and
// republished as keyed events, the analog of the native storage event
// fired in other documents.
type FileArea struct {
	mu       sync.Mutex
	path     string
	maxBytes int
	logger   logr.Logger
	bus      *Broadcast

	// last snapshot observed by this process, used to diff external
	// writes and to suppress echoes of our own.
	known map[string]string
}

// FileOption configures a FileArea.
type FileOption func(*FileArea)

// FileWithMaxBytes caps the marshaled document size; writes past the cap
// fail with ErrQuotaExceeded.
func FileWithMaxBytes(n int) FileOption {
	return func(a *FileArea) {
		a.maxBytes = n
	}
}

// FileWithBroadcast routes external-change events to bus instead of the
// package default.
func FileWithBroadcast(bus *Broadcast) FileOption {
	return func(a *FileArea) {
		if bus != nil {
			a.bus = bus
		}
	}
}

// FileWithLogger attaches a logger for watcher diagnostics.
func FileWithLogger(logger logr.Logger) FileOption {
	return func(a *FileArea) {
		a.logger = logger
	}
}

// NewFileArea opens (or prepares to create) the area file at path.
func NewFileArea(path string, opts ...FileOption) (*FileArea, error) {
	a := &FileArea{
		path:   path,
		logger: logr.Discard(),
		bus:    defaultBroadcast,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	entries, err := a.load()
	if err != nil {
		return nil, err
	}
	a.known = entries
	return a, nil
}

func (a *FileArea) Kind() AreaKind {
	return KindPersistent
}

func (a *FileArea) GetItem(key string) (string, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	entries, err := a.load()
	if err != nil {
		return "", false, err
	}
	a.known = entries
	text, ok := entries[key]
	return text, ok, nil
}

func (a *FileArea) SetItem(key, text string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	entries, err := a.load()
	if err != nil {
		return err
	}
	entries[key] = text
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("pstore: persistent area: %w", err)
	}
	if a.maxBytes > 0 && len(raw) > a.maxBytes {
		return ErrQuotaExceeded
	}
	if err := atomic.WriteFile(a.path, bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("pstore: persistent area: %w", err)
	}
	a.known = entries
	return nil
}

// Watch observes the area file for writes made by other processes and
// publishes one keyed event per changed key. It blocks until ctx is
// done; run it on its own goroutine.
func (a *FileArea) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("pstore: persistent area watch: %w", err)
	}
	defer watcher.Close()

	// atomic replace swaps the file out from under a file watch, so
	// watch the parent directory and filter by name.
	if err := watcher.Add(filepath.Dir(a.path)); err != nil {
		return fmt.Errorf("pstore: persistent area watch: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(a.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			a.publishExternalChanges()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.logger.Error(err, "persistent area watcher error", "path", a.path)
		}
	}
}

// publishExternalChanges reloads the file, diffs it against the last
// snapshot this process saw and broadcasts a keyed event per difference.
// Writes made through this area update the snapshot inline, so their
// filesystem echoes diff to nothing here.
func (a *FileArea) publishExternalChanges() {
	a.mu.Lock()
	previous := a.known
	current, err := a.load()
	if err != nil {
		a.mu.Unlock()
		a.logger.Error(err, "persistent area reload failed", "path", a.path)
		return
	}
	a.known = current
	events := diffEntries(previous, current)
	a.mu.Unlock()

	for _, event := range events {
		a.bus.Publish(event)
	}
}

func diffEntries(previous, current map[string]string) []Event {
	var events []Event
	for key, text := range current {
		old, ok := previous[key]
		if !ok || old != text {
			events = append(events, Event{
				Kind:    KindPersistent,
				Key:     key,
				OldText: old,
				NewText: text,
			})
		}
	}
	for key, old := range previous {
		if _, ok := current[key]; !ok {
			events = append(events, Event{
				Kind:    KindPersistent,
				Key:     key,
				OldText: old,
			})
		}
	}
	return events
}

func (a *FileArea) load() (map[string]string, error) {
	raw, err := os.ReadFile(a.path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pstore: persistent area: %w", err)
	}
	entries := map[string]string{}
	if len(raw) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("pstore: persistent area: %w", err)
	}
	return entries, nil
}
