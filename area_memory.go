package pstore

import "sync"

// SessionArea is the tab-lifetime storage area: a mutex-guarded in-memory
// map scoped to the process. Entries vanish with it.
type SessionArea struct {
	mu       sync.RWMutex
	entries  map[string]string
	maxBytes int
}

// SessionOption configures a SessionArea.
type SessionOption func(*SessionArea)

// SessionWithMaxBytes caps the total stored bytes (keys plus text);
// writes past the cap fail with ErrQuotaExceeded.
func SessionWithMaxBytes(n int) SessionOption {
	return func(a *SessionArea) {
		a.maxBytes = n
	}
}

// NewSessionArea constructs an empty session area.
func NewSessionArea(opts ...SessionOption) *SessionArea {
	a := &SessionArea{entries: make(map[string]string)}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

func (a *SessionArea) Kind() AreaKind {
	return KindSession
}

func (a *SessionArea) GetItem(key string) (string, bool, error) {
	a.mu.RLock()
	text, ok := a.entries[key]
	a.mu.RUnlock()
	return text, ok, nil
}

func (a *SessionArea) SetItem(key, text string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.maxBytes > 0 {
		size := len(key) + len(text)
		for k, v := range a.entries {
			if k == key {
				continue
			}
			size += len(k) + len(v)
		}
		if size > a.maxBytes {
			return ErrQuotaExceeded
		}
	}
	a.entries[key] = text
	return nil
}
