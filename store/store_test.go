package store

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "library.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndLoad(t *testing.T) {
	s := newTestStore(t)

	data := []byte{0xa1, 0x01, 0x02}
	if err := s.Save("dev", data, ""); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := s.Load("dev")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !bytes.Equal(loaded, data) {
		t.Errorf("Load = %v, want %v", loaded, data)
	}
}

func TestLoadReturnsNewestVersion(t *testing.T) {
	s := newTestStore(t)

	if err := s.Save("dev", []byte("v1"), ""); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := s.Save("dev", []byte("v2"), ""); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := s.Load("dev")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(loaded) != "v2" {
		t.Errorf("Load = %q, want v2", loaded)
	}
}

func TestLoadMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Load("nonexistent")
	if !errors.Is(err, ErrImageNotFound) {
		t.Errorf("Load error = %v, want ErrImageNotFound", err)
	}
}

func TestSaveEmptyName(t *testing.T) {
	s := newTestStore(t)

	if err := s.Save("", []byte("data"), ""); err == nil {
		t.Error("Save with empty name should fail")
	}
}

func TestListNewestFirst(t *testing.T) {
	s := newTestStore(t)

	if err := s.Save("alpha", []byte("a"), ""); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := s.Save("beta", []byte("b1"), ""); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := s.Save("beta", []byte("b-two"), "fp-b2"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	entries, err := s.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("List count = %d, want 3", len(entries))
	}

	names := []string{entries[0].Name, entries[1].Name, entries[2].Name}
	want := []string{"beta", "beta", "alpha"}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("List order = %v, want %v", names, want)
			break
		}
	}
	if entries[0].Size != len("b-two") {
		t.Errorf("newest beta size = %d, want %d", entries[0].Size, len("b-two"))
	}
	if entries[0].CreatedAt.IsZero() {
		t.Error("List entries should carry a created-at time")
	}
	if entries[0].Fingerprint != "fp-b2" {
		t.Errorf("newest beta fingerprint = %q, want %q", entries[0].Fingerprint, "fp-b2")
	}
	if entries[2].Fingerprint != "" {
		t.Errorf("alpha fingerprint = %q, want empty", entries[2].Fingerprint)
	}
}

func TestListEmpty(t *testing.T) {
	s := newTestStore(t)

	entries, err := s.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("List of empty store = %d entries, want 0", len(entries))
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)

	if err := s.Save("dev", []byte("v1"), ""); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := s.Save("dev", []byte("v2"), ""); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := s.Delete("dev"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Load("dev"); !errors.Is(err, ErrImageNotFound) {
		t.Errorf("Load after delete = %v, want ErrImageNotFound", err)
	}

	if err := s.Delete("dev"); !errors.Is(err, ErrImageNotFound) {
		t.Errorf("second Delete = %v, want ErrImageNotFound", err)
	}
}
