package pstore

import (
	"errors"
	"testing"
)

func TestSessionAreaGetSet(t *testing.T) {
	area := NewSessionArea()
	if area.Kind() != KindSession {
		t.Fatalf("expected session kind, got %s", area.Kind())
	}

	if _, ok, err := area.GetItem("missing"); ok || err != nil {
		t.Fatalf("expected absent entry, got ok=%v err=%v", ok, err)
	}
	if err := area.SetItem("k", "true"); err != nil {
		t.Fatalf("unexpected set error: %v", err)
	}
	text, ok, err := area.GetItem("k")
	if err != nil || !ok || text != "true" {
		t.Fatalf("expected stored text, got %q ok=%v err=%v", text, ok, err)
	}
}

func TestSessionAreaQuota(t *testing.T) {
	area := NewSessionArea(SessionWithMaxBytes(8))

	if err := area.SetItem("k", "1234567"); err != nil {
		t.Fatalf("unexpected set error: %v", err)
	}
	if err := area.SetItem("k2", "x"); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected quota error, got %v", err)
	}
	// overwriting under the cap still works
	if err := area.SetItem("k", "1"); err != nil {
		t.Fatalf("unexpected overwrite error: %v", err)
	}
}
