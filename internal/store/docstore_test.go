package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func tempStore(t *testing.T) *DocStore {
	t.Helper()
	s, err := NewDocStore(filepath.Join(t.TempDir(), "docs"))
	if err != nil {
		t.Fatalf("NewDocStore: %v", err)
	}
	return s
}

func TestSaveAndLoad(t *testing.T) {
	s := tempStore(t)

	if err := s.Save("alice", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := s.Load("alice")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(data) != `{"a":1}` {
		t.Fatalf("round-trip mismatch: %s", data)
	}
}

func TestLoadMissing(t *testing.T) {
	s := tempStore(t)

	_, err := s.Load("ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveReplacesWholeDocument(t *testing.T) {
	s := tempStore(t)

	s.Save("alice", []byte(`{"a":1,"b":2}`))
	s.Save("alice", []byte(`{"a":3}`))

	data, _ := s.Load("alice")
	if string(data) != `{"a":3}` {
		t.Fatalf("expected whole-document replace, got %s", data)
	}
}

func TestExists(t *testing.T) {
	s := tempStore(t)

	if s.Exists("alice") {
		t.Fatal("expected Exists false before save")
	}
	s.Save("alice", []byte(`{}`))
	if !s.Exists("alice") {
		t.Fatal("expected Exists true after save")
	}
}

func TestKeyCannotEscapeDirectory(t *testing.T) {
	s := tempStore(t)

	if err := s.Save("../evil", []byte(`{}`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	// The flattened file lands inside the store dir, not above it.
	if _, err := os.Stat(filepath.Join(s.dir, "__evil.json")); err != nil {
		t.Fatalf("expected flattened key inside store dir: %v", err)
	}
	if _, err := s.Load("../evil"); err != nil {
		t.Fatalf("Load with same key should find it: %v", err)
	}
}

func TestNewDocStoreBadPath(t *testing.T) {
	file := filepath.Join(t.TempDir(), "occupied")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	// A regular file where the directory should go.
	if _, err := NewDocStore(filepath.Join(file, "docs")); err == nil {
		t.Fatal("expected error creating store under a file")
	}
}
