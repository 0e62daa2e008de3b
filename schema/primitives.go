package schema

import (
	"fmt"
	"math"

	pstore "github.com/lucasthevenet/parse-storage"
)

// The primitive helpers are plain parse functions, the first shape the
// adapter probes for.

// Bool accepts booleans.
func Bool() pstore.ParseFunc {
	return func(input any) (any, error) {
		b, ok := input.(bool)
		if !ok {
			return nil, fmt.Errorf("schema: expected bool, got %T", input)
		}
		return b, nil
	}
}

// String accepts strings.
func String() pstore.ParseFunc {
	return func(input any) (any, error) {
		s, ok := input.(string)
		if !ok {
			return nil, fmt.Errorf("schema: expected string, got %T", input)
		}
		return s, nil
	}
}

// Int accepts integral numbers. JSON numbers arrive as float64; values
// with a fractional part are rejected.
func Int() pstore.ParseFunc {
	return func(input any) (any, error) {
		switch n := input.(type) {
		case int:
			return n, nil
		case int64:
			return int(n), nil
		case float64:
			if n != math.Trunc(n) {
				return nil, fmt.Errorf("schema: expected integer, got %v", n)
			}
			return int(n), nil
		default:
			return nil, fmt.Errorf("schema: expected integer, got %T", input)
		}
	}
}

// Float accepts numbers.
func Float() pstore.ParseFunc {
	return func(input any) (any, error) {
		switch n := input.(type) {
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		default:
			return nil, fmt.Errorf("schema: expected number, got %T", input)
		}
	}
}
