package poststate

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"substweet/internal/logging"
)

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	store := NewStore(path, logging.NewNop())

	if got := store.Load(); !got.IsZero() {
		t.Fatalf("expected empty state for missing file, got %+v", got)
	}
	if err := store.Save(State{Skip: IntPtr(3), Parent: StringPtr("1234567890")}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read state: %v", err)
	}
	if strings.TrimSpace(string(data)) != `{"skip":3,"parent":"1234567890"}` {
		t.Fatalf("unexpected file content %q", data)
	}
	if _, err := os.Stat(path + ".tmp"); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("expected temp file to be renamed away")
	}

	got := store.Load()
	if got.Skip == nil || *got.Skip != 3 || got.Parent == nil || *got.Parent != "1234567890" {
		t.Fatalf("unexpected state %+v", got)
	}
}

func TestSaveWritesNulls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	store := NewStore(path, logging.NewNop())
	if err := store.Save(State{Skip: IntPtr(7)}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, _ := os.ReadFile(path)
	if strings.TrimSpace(string(data)) != `{"skip":7,"parent":null}` {
		t.Fatalf("unexpected file content %q", data)
	}
}

func TestLoadTreatsCorruptionAsEmpty(t *testing.T) {
	cases := map[string]string{
		"garbage":    "not json at all",
		"truncated":  `{"skip": 4, "par`,
		"wrong type": `{"skip": "four"}`,
		"empty":      "   \n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "state.json")
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			if got := NewStore(path, logging.NewNop()).Load(); !got.IsZero() {
				t.Fatalf("expected empty state, got %+v", got)
			}
		})
	}
}

func TestLoadAcceptsNumericParent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte(`{"skip": 12, "parent": 1180000000000000000}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got := NewStore(path, logging.NewNop()).Load()
	if got.Parent == nil || *got.Parent != "1180000000000000000" {
		t.Fatalf("expected numeric parent preserved as string, got %+v", got.Parent)
	}
	if got.Skip == nil || *got.Skip != 12 {
		t.Fatalf("unexpected skip %+v", got.Skip)
	}
}

func TestDisabledStoreIsNoop(t *testing.T) {
	store := NewStore("", logging.NewNop())
	if store.Enabled() {
		t.Fatal("expected disabled store")
	}
	if err := store.Save(State{Skip: IntPtr(1)}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !store.Load().IsZero() {
		t.Fatal("expected zero state")
	}
	unlock, err := store.Lock()
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	unlock()
}

func TestLockIsExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	first := NewStore(path, logging.NewNop())
	second := NewStore(path, logging.NewNop())

	unlock, err := first.Lock()
	if err != nil {
		t.Fatalf("first Lock: %v", err)
	}
	if _, err := second.Lock(); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	unlock()

	unlock2, err := second.Lock()
	if err != nil {
		t.Fatalf("Lock after release: %v", err)
	}
	unlock2()
}

func TestClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	store := NewStore(path, logging.NewNop())
	if err := store.Save(State{Skip: IntPtr(2)}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear on missing file: %v", err)
	}
	if !store.Load().IsZero() {
		t.Fatal("expected empty state after clear")
	}
}
