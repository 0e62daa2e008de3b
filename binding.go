package pstore

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
)

// Update is the argument to a binding's setter: either a literal
// replacement value or an updater applied to the current value. The
// zero Update resolves to the zero value of T.
type Update[T any] struct {
	literal T
	updater func(T) T
	isFunc  bool
}

// Literal wraps a replacement value.
func Literal[T any](value T) Update[T] {
	return Update[T]{literal: value}
}

// Updater wraps a function of the current value.
func Updater[T any](fn func(T) T) Update[T] {
	return Update[T]{updater: fn, isFunc: true}
}

func (u Update[T]) resolve(current T) T {
	if u.isFunc && u.updater != nil {
		return u.updater(current)
	}
	return u.literal
}

// BindOption configures a binding.
type BindOption func(*bindConfig)

type bindConfig struct {
	schema  any
	replace bool
	logger  logr.Logger
	bus     *Broadcast
}

// WithSchema attaches a validator applied after deserialization on every
// read. Any of the shapes recognized by ResolveParseFunc is accepted.
func WithSchema(schema any) BindOption {
	return func(cfg *bindConfig) {
		cfg.schema = schema
	}
}

// WithReplace makes a storage-access failure during read self-heal: the
// encoded initial value is written back and a change broadcast. Without
// it the failure is only logged and storage stays untouched.
func WithReplace() BindOption {
	return func(cfg *bindConfig) {
		cfg.replace = true
	}
}

// WithLogger attaches a logger for read/write diagnostics.
func WithLogger(logger logr.Logger) BindOption {
	return func(cfg *bindConfig) {
		cfg.logger = logger
	}
}

// WithBroadcast subscribes the binding to bus instead of the package
// default.
func WithBroadcast(bus *Broadcast) BindOption {
	return func(cfg *bindConfig) {
		if bus != nil {
			cfg.bus = bus
		}
	}
}

func applyBindOptions(opts []BindOption) bindConfig {
	cfg := bindConfig{logger: logr.Discard(), bus: defaultBroadcast}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// Binding pairs one key in one storage area with an observable cell and
// the read/write/notify protocol around it. Normal reads and writes never
// surface an error to the caller; failures degrade to the initial value
// plus a diagnostic.
type Binding[T any] struct {
	area    Area
	key     string
	initial T
	codec   Codec[T]
	replace bool
	logger  logr.Logger
	bus     *Broadcast

	cell        *cell[T]
	unsubscribe func()
	closeOnce   sync.Once
	healing     atomic.Bool
}

// Bind constructs a binding for key in area, seeded from storage with
// initial as the fallback. A nil area is the no-storage degraded mode:
// reads return initial, writes no-op. A schema matching none of the
// recognized validator shapes fails here, it is a configuration bug
// rather than a runtime data issue.
func Bind[T any](area Area, key string, initial T, opts ...BindOption) (*Binding[T], error) {
	if key == "" {
		return nil, fmt.Errorf("pstore: key must not be empty")
	}
	cfg := applyBindOptions(opts)
	if cfg.schema != nil {
		if _, err := ResolveParseFunc(cfg.schema); err != nil {
			return nil, err
		}
	}

	b := &Binding[T]{
		area:    area,
		key:     key,
		initial: initial,
		codec:   NewCodec[T](cfg.schema),
		replace: cfg.replace,
		logger:  cfg.logger,
		bus:     cfg.bus,
		cell:    newCell(initial),
	}
	if area == nil {
		return b, nil
	}

	b.read()
	b.unsubscribe = b.bus.Subscribe(area.Kind(), b.onEvent)
	// one reconciliation read, closing the window between the seeding
	// read and the subscription becoming active
	b.read()
	return b, nil
}

// Value returns the last successfully read or written value.
func (b *Binding[T]) Value() T {
	return b.cell.get()
}

// Set resolves update against the current value, persists it and
// broadcasts the change. If the storage write fails the cell and the
// area are left unmodified and the failure is only logged.
func (b *Binding[T]) Set(update Update[T]) {
	next := update.resolve(b.cell.get())
	if b.area == nil {
		b.logger.Info("no storage area available, set ignored", "key", b.key)
		return
	}
	text, err := b.codec.Encode(next, true)
	if err != nil {
		b.logger.Error(err, "encode failed, value not stored", "key", b.key, "area", b.area.Kind())
		return
	}
	if err := b.area.SetItem(b.key, text); err != nil {
		b.logger.Error(err, "storage write failed, value not stored", "key", b.key, "area", b.area.Kind())
		return
	}
	b.cell.set(next)
	// unkeyed: every same-area binding re-reads on a local write
	b.bus.Publish(Event{Kind: b.area.Kind()})
}

// Pair returns the current-value accessor and setter as a pair, the
// shape a UI layer consumes.
func (b *Binding[T]) Pair() (func() T, func(Update[T])) {
	return b.Value, b.Set
}

// OnChange registers fn to run whenever the cell is updated. The
// returned cancel is idempotent.
func (b *Binding[T]) OnChange(fn func(T)) func() {
	return b.cell.watch(fn)
}

// Close deregisters the binding's notification listener and drops its
// watchers. Safe to call more than once.
func (b *Binding[T]) Close() {
	b.closeOnce.Do(func() {
		if b.unsubscribe != nil {
			b.unsubscribe()
		}
		b.cell.clear()
	})
}

func (b *Binding[T]) onEvent(event Event) {
	// native cross-process events carry the changed key; a local
	// broadcast does not and always triggers a re-read
	if event.External() && event.Key != b.key {
		return
	}
	b.read()
}

// read runs the read path once: look the key up, decode, collapse any
// failure to the initial value, and settle the cell on the result.
func (b *Binding[T]) read() T {
	result := b.initial

	text, ok, err := b.area.GetItem(b.key)
	switch {
	case err != nil:
		b.logger.Error(err, "storage read failed, falling back to initial value", "key", b.key, "area", b.area.Kind())
		if b.replace {
			b.heal()
		}
	case ok:
		value, present, decodeErr := b.codec.Decode(text)
		if decodeErr != nil {
			b.logger.Error(wrapDecodeError(b.area.Kind(), b.key, decodeErr), "stored entry rejected, falling back to initial value")
		} else if present {
			result = value
		}
	}

	b.cell.set(result)
	return result
}

// heal overwrites a broken entry with the encoded initial value and
// broadcasts the change. The healing flag stops the binding's own
// broadcast from re-entering here when the underlying failure persists.
func (b *Binding[T]) heal() {
	if !b.healing.CompareAndSwap(false, true) {
		return
	}
	defer b.healing.Store(false)

	text, err := b.codec.Encode(b.initial, true)
	if err != nil {
		b.logger.Error(err, "encode failed, entry not replaced", "key", b.key, "area", b.area.Kind())
		return
	}
	if err := b.area.SetItem(b.key, text); err != nil {
		b.logger.Error(err, "storage write failed, entry not replaced", "key", b.key, "area", b.area.Kind())
		return
	}
	b.bus.Publish(Event{Kind: b.area.Kind()})
}

// cell is the in-memory mirror of the last known-good value for one
// binding. One cell per binding, never shared, even for the same key.
type cell[T any] struct {
	mu       sync.RWMutex
	value    T
	watchers map[string]func(T)
}

func newCell[T any](value T) *cell[T] {
	return &cell[T]{value: value, watchers: make(map[string]func(T))}
}

func (c *cell[T]) get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

func (c *cell[T]) set(value T) {
	c.mu.Lock()
	c.value = value
	watchers := make([]func(T), 0, len(c.watchers))
	for _, fn := range c.watchers {
		watchers = append(watchers, fn)
	}
	c.mu.Unlock()

	for _, fn := range watchers {
		fn(value)
	}
}

func (c *cell[T]) watch(fn func(T)) func() {
	if fn == nil {
		return func() {}
	}
	token := uuid.NewString()
	c.mu.Lock()
	if c.watchers == nil {
		c.watchers = make(map[string]func(T))
	}
	c.watchers[token] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.watchers, token)
		c.mu.Unlock()
	}
}

func (c *cell[T]) clear() {
	c.mu.Lock()
	c.watchers = nil
	c.mu.Unlock()
}
