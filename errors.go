package pstore

import (
	"errors"
	"fmt"
)

// ErrQuotaExceeded is returned by SetItem when a write would push an area
// past its configured byte budget.
var ErrQuotaExceeded = errors.New("pstore: storage quota exceeded")

// DecodeError captures the binding coordinates alongside the originating
// failure so a single log line identifies the broken entry.
type DecodeError struct {
	Kind AreaKind
	Key  string
	Err  error
}

func (e *DecodeError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("pstore: %s area key=%q: %v", e.Kind, e.Key, e.Err)
}

func (e *DecodeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func wrapDecodeError(kind AreaKind, key string, err error) error {
	if err == nil {
		return nil
	}
	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return err
	}
	return &DecodeError{Kind: kind, Key: key, Err: err}
}
