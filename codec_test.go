package pstore

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodecRoundTrip(t *testing.T) {
	type prefs struct {
		Theme string `json:"theme"`
		Size  int    `json:"size"`
	}

	t.Run("struct", func(t *testing.T) {
		codec := NewCodec[prefs](nil)
		in := prefs{Theme: "dark", Size: 14}
		text, err := codec.Encode(in, true)
		if err != nil {
			t.Fatalf("unexpected encode error: %v", err)
		}
		out, present, err := codec.Decode(text)
		if err != nil {
			t.Fatalf("unexpected decode error: %v", err)
		}
		if !present || out != in {
			t.Fatalf("round trip mismatch: present=%v got=%+v want=%+v", present, out, in)
		}
	})

	t.Run("bool", func(t *testing.T) {
		codec := NewCodec[bool](nil)
		text, err := codec.Encode(false, true)
		if err != nil {
			t.Fatalf("unexpected encode error: %v", err)
		}
		if text != "false" {
			t.Fatalf("expected %q, got %q", "false", text)
		}
		out, present, err := codec.Decode(text)
		if err != nil || !present || out != false {
			t.Fatalf("round trip mismatch: got=%v present=%v err=%v", out, present, err)
		}
	})
}

func TestCodecSentinel(t *testing.T) {
	codec := NewCodec[string](nil)

	text, err := codec.Encode("ignored", false)
	if err != nil {
		t.Fatalf("unexpected encode error: %v", err)
	}
	if text != "undefined" {
		t.Fatalf("expected sentinel text, got %q", text)
	}

	value, present, err := codec.Decode("undefined")
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if present || value != "" {
		t.Fatalf("expected absent zero value, got present=%v value=%q", present, value)
	}
}

func TestCodecSentinelBypassesSchema(t *testing.T) {
	rejectAll := func(any) (any, error) { return nil, fmt.Errorf("never called") }
	codec := NewCodec[string](rejectAll)
	if _, present, err := codec.Decode("undefined"); err != nil || present {
		t.Fatalf("sentinel must bypass schema: present=%v err=%v", present, err)
	}
}

func TestCodecDecodeMalformedText(t *testing.T) {
	codec := NewCodec[map[string]any](nil)
	if _, _, err := codec.Decode("{not json"); err == nil {
		t.Fatalf("expected decode error for malformed text")
	}
	if _, _, err := codec.Decode(`{"a":1} trailing`); err == nil {
		t.Fatalf("expected decode error for trailing data")
	}
}

func TestCodecDecodeSchemaRejection(t *testing.T) {
	errRejected := errors.New("not a boolean")
	boolOnly := func(input any) (any, error) {
		if _, ok := input.(bool); !ok {
			return nil, errRejected
		}
		return input, nil
	}
	codec := NewCodec[bool](boolOnly)

	if _, _, err := codec.Decode(`"hello"`); !errors.Is(err, errRejected) {
		t.Fatalf("expected schema rejection, got %v", err)
	}
	value, present, err := codec.Decode("true")
	if err != nil || !present || value != true {
		t.Fatalf("expected schema to accept true: got=%v present=%v err=%v", value, present, err)
	}
}

func TestCodecDecodeAppliesSchemaTransform(t *testing.T) {
	double := func(input any) (any, error) {
		n, ok := input.(float64)
		if !ok {
			return nil, fmt.Errorf("expected number, got %T", input)
		}
		return n * 2, nil
	}
	codec := NewCodec[int](double)

	value, present, err := codec.Decode("21")
	if err != nil || !present {
		t.Fatalf("unexpected decode failure: present=%v err=%v", present, err)
	}
	if value != 42 {
		t.Fatalf("expected transformed value 42, got %d", value)
	}
}

func TestCodecDecodeUnknownSchemaShape(t *testing.T) {
	codec := NewCodec[bool](struct{}{})
	if _, _, err := codec.Decode("true"); !errors.Is(err, ErrNoParseFunc) {
		t.Fatalf("expected ErrNoParseFunc, got %v", err)
	}
}
