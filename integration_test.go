package pstore_test

import (
	"path/filepath"
	"testing"

	pstore "github.com/lucasthevenet/parse-storage"
	"github.com/lucasthevenet/parse-storage/schema"
)

func TestBindingWithEngineValidators(t *testing.T) {
	t.Run("cel schema on session area", func(t *testing.T) {
		area := pstore.NewSessionArea()
		bus := pstore.NewBroadcast()
		if err := area.SetItem("flag", "false"); err != nil {
			t.Fatalf("unexpected seed error: %v", err)
		}

		binding, err := pstore.Bind(area, "flag", true,
			pstore.WithSchema(schema.CEL("value == true || value == false")),
			pstore.WithBroadcast(bus))
		if err != nil {
			t.Fatalf("unexpected bind error: %v", err)
		}
		defer binding.Close()

		if got := binding.Value(); got != false {
			t.Fatalf("expected stored false, got %v", got)
		}
		binding.Set(pstore.Updater(func(prev bool) bool { return !prev }))
		if got := binding.Value(); got != true {
			t.Fatalf("expected toggled value, got %v", got)
		}
	})

	t.Run("expr schema rejects stored entry", func(t *testing.T) {
		area := pstore.NewSessionArea()
		if err := area.SetItem("count", "-3"); err != nil {
			t.Fatalf("unexpected seed error: %v", err)
		}

		binding, err := pstore.Bind(area, "count", 1,
			pstore.WithSchema(schema.Expr("value >= 0")),
			pstore.WithBroadcast(pstore.NewBroadcast()))
		if err != nil {
			t.Fatalf("unexpected bind error: %v", err)
		}
		defer binding.Close()

		if got := binding.Value(); got != 1 {
			t.Fatalf("expected rejected entry to fall back to initial, got %d", got)
		}
	})

	t.Run("primitive schema on file area", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "storage.json")
		bus := pstore.NewBroadcast()
		area, err := pstore.NewFileArea(path, pstore.FileWithBroadcast(bus))
		if err != nil {
			t.Fatalf("unexpected area error: %v", err)
		}

		binding, err := pstore.Bind(area, "theme", "light",
			pstore.WithSchema(schema.String()),
			pstore.WithBroadcast(bus))
		if err != nil {
			t.Fatalf("unexpected bind error: %v", err)
		}
		binding.Set(pstore.Literal("dark"))
		binding.Close()

		// a new binding over a reopened area observes the persisted value
		reopened, err := pstore.NewFileArea(path, pstore.FileWithBroadcast(bus))
		if err != nil {
			t.Fatalf("unexpected area error: %v", err)
		}
		fresh, err := pstore.Bind(reopened, "theme", "light",
			pstore.WithSchema(schema.String()),
			pstore.WithBroadcast(bus))
		if err != nil {
			t.Fatalf("unexpected bind error: %v", err)
		}
		defer fresh.Close()
		if got := fresh.Value(); got != "dark" {
			t.Fatalf("expected persisted value, got %q", got)
		}
	})
}
