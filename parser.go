package pstore

import "errors"

// ErrNoParseFunc is returned when a supplied validator matches none of the
// recognized call shapes.
var ErrNoParseFunc = errors.New("pstore: no validator function found")

// ParseFunc is the uniform invocation contract every validator is
// normalized into: it receives the decoded structure and returns the
// validated (possibly transformed) value or an error.
type ParseFunc func(input any) (any, error)

// Parser validates via a Parse method (zod-style validators).
type Parser interface {
	Parse(input any) (any, error)
}

// SyncValidator validates via a ValidateSync method (yup-style validators).
type SyncValidator interface {
	ValidateSync(input any) (any, error)
}

// Creator validates via a Create method (superstruct-style validators).
type Creator interface {
	Create(input any) (any, error)
}

// ResolveParseFunc normalizes schema into a ParseFunc. Probing order is
// fixed: plain function first, then Parse, ValidateSync, Create; the first
// shape matched wins. A validator exposing both Parse and ValidateSync is
// treated as a Parser.
func ResolveParseFunc(schema any) (ParseFunc, error) {
	switch v := schema.(type) {
	case ParseFunc:
		return v, nil
	case func(any) (any, error):
		return v, nil
	case Parser:
		return v.Parse, nil
	case SyncValidator:
		return v.ValidateSync, nil
	case Creator:
		return v.Create, nil
	}
	return nil, ErrNoParseFunc
}
