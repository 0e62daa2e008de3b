package pstore

import (
	"sync"

	"github.com/google/uuid"
)

// Event describes one storage change fanned out to subscribers.
//
// A same-process write publishes an event with an empty Key: every
// binding for that area re-reads, regardless of which key changed.
// External changes (another process touching the persistent area) carry
// the changed key plus the old and new text, and bindings filter on it
// before re-reading.
type Event struct {
	Kind    AreaKind
	Key     string
	OldText string
	NewText string
}

// External reports whether the event came from outside this process.
func (e Event) External() bool {
	return e.Key != ""
}

// Broadcast fans storage-change events out to subscribers keyed by area
// kind. It has an explicit lifecycle: construct one per isolated context
// (or use the package default, built at init and never torn down) and
// hand it to bindings and areas that should observe each other.
type Broadcast struct {
	mu   sync.RWMutex
	subs map[AreaKind]map[string]func(Event)
}

// NewBroadcast constructs an empty broadcast channel.
func NewBroadcast() *Broadcast {
	return &Broadcast{subs: make(map[AreaKind]map[string]func(Event))}
}

var defaultBroadcast = NewBroadcast()

// DefaultBroadcast returns the process-wide broadcast channel used when
// bindings and areas are not given an explicit one.
func DefaultBroadcast() *Broadcast {
	return defaultBroadcast
}

// Subscribe registers fn for events tagged with kind and returns a
// cancel function. Cancel is idempotent; every subscription a binding
// takes out must be released on teardown.
func (b *Broadcast) Subscribe(kind AreaKind, fn func(Event)) func() {
	if b == nil || fn == nil {
		return func() {}
	}
	token := uuid.NewString()

	b.mu.Lock()
	if b.subs == nil {
		b.subs = make(map[AreaKind]map[string]func(Event))
	}
	listeners, ok := b.subs[kind]
	if !ok {
		listeners = make(map[string]func(Event))
		b.subs[kind] = listeners
	}
	listeners[token] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		if listeners, ok := b.subs[kind]; ok {
			delete(listeners, token)
		}
		b.mu.Unlock()
	}
}

// Publish dispatches event to every subscriber registered for its kind.
// Dispatch is synchronous: callers publish only after the write that
// produced the event is visible to subsequent reads, so subscribers that
// re-read observe the new state.
func (b *Broadcast) Publish(event Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	listeners := make([]func(Event), 0, len(b.subs[event.Kind]))
	for _, fn := range b.subs[event.Kind] {
		listeners = append(listeners, fn)
	}
	b.mu.RUnlock()

	for _, fn := range listeners {
		fn(event)
	}
}
