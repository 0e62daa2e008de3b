// Package schema provides ready-made validators for pstore bindings.
//
// Each engine-backed constructor returns a value matching one of the
// call shapes the parser adapter recognizes: CEL validators expose
// Parse, expr validators expose ValidateSync, JS validators expose
// Create, and the primitive helpers are plain parse functions. Programs
// receive the candidate under the name "value" and either return a
// boolean verdict or a transformed replacement value.
package schema

import (
	"errors"
	"sync"
)

// ErrRejected is wrapped by every engine when a program returns false
// for a candidate value.
var ErrRejected = errors.New("schema: value rejected")

// Cache stores compiled programs keyed by source text.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// MapCache is a trivial concurrency-safe Cache.
type MapCache struct {
	entries sync.Map
}

func (c *MapCache) Get(key string) (any, bool) {
	return c.entries.Load(key)
}

func (c *MapCache) Set(key string, value any) {
	c.entries.Store(key, value)
}

// Func is a helper callable exposed to validator programs.
type Func func(args ...any) (any, error)

// Option configures an engine-backed validator.
type Option func(*config)

type config struct {
	cache Cache
	funcs map[string]Func
}

// WithCache wires a compiled-program cache into the validator.
func WithCache(cache Cache) Option {
	return func(cfg *config) {
		cfg.cache = cache
	}
}

// WithFunctions exposes named helper functions to the program
// environment.
func WithFunctions(funcs map[string]Func) Option {
	return func(cfg *config) {
		if len(funcs) == 0 {
			return
		}
		if cfg.funcs == nil {
			cfg.funcs = make(map[string]Func, len(funcs))
		}
		for name, fn := range funcs {
			cfg.funcs[name] = fn
		}
	}
}

func applyOptions(opts []Option) config {
	cfg := config{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// verdict interprets a program result: booleans accept or reject the
// original input, anything else replaces it.
func verdict(input, result any, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	if accepted, ok := result.(bool); ok {
		if !accepted {
			return nil, ErrRejected
		}
		return input, nil
	}
	return result, nil
}
