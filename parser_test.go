package pstore

import (
	"errors"
	"fmt"
	"testing"
)

type parseShape struct{}

func (parseShape) Parse(input any) (any, error) { return fmt.Sprintf("parse:%v", input), nil }

type validateSyncShape struct{}

func (validateSyncShape) ValidateSync(input any) (any, error) {
	return fmt.Sprintf("validateSync:%v", input), nil
}

type createShape struct{}

func (createShape) Create(input any) (any, error) { return fmt.Sprintf("create:%v", input), nil }

// ambiguousShape exposes both Parse and ValidateSync; Parse must win.
type ambiguousShape struct {
	parseShape
	validateSyncShape
}

func TestResolveParseFuncShapes(t *testing.T) {
	cases := []struct {
		name   string
		schema any
		want   string
	}{
		{
			name:   "plain function",
			schema: func(input any) (any, error) { return fmt.Sprintf("fn:%v", input), nil },
			want:   "fn:7",
		},
		{
			name:   "ParseFunc",
			schema: ParseFunc(func(input any) (any, error) { return fmt.Sprintf("pf:%v", input), nil }),
			want:   "pf:7",
		},
		{name: "parse method", schema: parseShape{}, want: "parse:7"},
		{name: "validateSync method", schema: validateSyncShape{}, want: "validateSync:7"},
		{name: "create method", schema: createShape{}, want: "create:7"},
		{name: "parse wins over validateSync", schema: ambiguousShape{}, want: "parse:7"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			parse, err := ResolveParseFunc(tc.schema)
			if err != nil {
				t.Fatalf("unexpected error resolving %s: %v", tc.name, err)
			}
			got, err := parse(7)
			if err != nil {
				t.Fatalf("unexpected error invoking %s: %v", tc.name, err)
			}
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestResolveParseFuncRejectsUnknownShapes(t *testing.T) {
	for _, schema := range []any{struct{}{}, 42, "validator", map[string]any{"parse": true}} {
		if _, err := ResolveParseFunc(schema); !errors.Is(err, ErrNoParseFunc) {
			t.Fatalf("expected ErrNoParseFunc for %T, got %v", schema, err)
		}
	}
}
