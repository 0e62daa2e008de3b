package pstore

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// undefinedSentinel is stored in place of JSON when a binding holds no
// value. Entries written by other producers may carry it too; decoding it
// bypasses both JSON parsing and schema validation.
const undefinedSentinel = "undefined"

// Codec turns values into storable text and back. The write path trusts
// the in-memory value; the optional schema is applied on the read path
// only, after structural deserialization.
type Codec[T any] struct {
	schema any
}

// NewCodec constructs a codec. schema may be nil, a ParseFunc, or any
// value matching one of the validator shapes recognized by
// ResolveParseFunc.
func NewCodec[T any](schema any) Codec[T] {
	return Codec[T]{schema: schema}
}

// Encode serializes value as JSON text. When present is false the
// undefined sentinel is produced instead.
func (c Codec[T]) Encode(value T, present bool) (string, error) {
	if !present {
		return undefinedSentinel, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("pstore: encode: %w", err)
	}
	return string(raw), nil
}

// Decode deserializes text and, when a schema is configured, validates
// the result. The sentinel decodes to (zero, false, nil) immediately. A
// malformed payload or a schema rejection yields an error; callers are
// expected to collapse that into their fallback value.
func (c Codec[T]) Decode(text string) (T, bool, error) {
	var zero T
	if text == undefinedSentinel {
		return zero, false, nil
	}

	if c.schema == nil {
		var value T
		if err := unmarshalStrict([]byte(text), &value); err != nil {
			return zero, false, fmt.Errorf("pstore: decode: %w", err)
		}
		return value, true, nil
	}

	parse, err := ResolveParseFunc(c.schema)
	if err != nil {
		return zero, false, err
	}

	var structure any
	if err := unmarshalStrict([]byte(text), &structure); err != nil {
		return zero, false, fmt.Errorf("pstore: decode: %w", err)
	}
	validated, err := parse(structure)
	if err != nil {
		return zero, false, fmt.Errorf("pstore: schema rejected value: %w", err)
	}
	value, err := convert[T](validated)
	if err != nil {
		return zero, false, err
	}
	return value, true, nil
}

// unmarshalStrict decodes a single JSON value and rejects trailing
// garbage after it. Untyped numbers arrive as float64.
func unmarshalStrict(raw []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(out); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("unexpected trailing data")
	}
	return nil
}

// convert coerces a validator's output into T, falling back to a JSON
// round trip when the dynamic type does not line up (validators operate
// on generic structures, T may be a struct or a narrower numeric type).
func convert[T any](value any) (T, error) {
	if typed, ok := value.(T); ok {
		return typed, nil
	}
	var out T
	raw, err := json.Marshal(value)
	if err != nil {
		return out, fmt.Errorf("pstore: convert validated value: %w", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("pstore: convert validated value: %w", err)
	}
	return out, nil
}
