package replay

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFixture(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

const validFixture = `{
  "description": "likes teach topics",
  "events": [
    {"type": "behavioral", "action": "like", "topics": ["ai"]}
  ],
  "expectations": [
    {"path": "topic_affinity.ai", "value": 0.52}
  ]
}`

func TestLoadFixture(t *testing.T) {
	path := writeFixture(t, t.TempDir(), "likes.json", validFixture)

	f, err := LoadFixture(path)
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	if f.Description != "likes teach topics" {
		t.Fatalf("unexpected description %q", f.Description)
	}
	if len(f.Events) != 1 || f.Events[0].Type != "behavioral" {
		t.Fatalf("unexpected events: %+v", f.Events)
	}
	if len(f.Expectations) != 1 || f.Expectations[0].Path != "topic_affinity.ai" {
		t.Fatalf("unexpected expectations: %+v", f.Expectations)
	}
}

func TestLoadFixtureErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadFixture(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}

	bad := writeFixture(t, dir, "bad.json", "{not json")
	if _, err := LoadFixture(bad); err == nil {
		t.Fatal("expected error for malformed JSON")
	}

	empty := writeFixture(t, dir, "empty.json", `{"description": "x", "events": []}`)
	if _, err := LoadFixture(empty); err == nil {
		t.Fatal("expected error for fixture without events")
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "a.json", validFixture)
	writeFixture(t, dir, "b.json", validFixture)
	writeFixture(t, dir, "notes.txt", "ignored")

	fixtures, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(fixtures) != 2 {
		t.Fatalf("expected 2 fixtures, got %d", len(fixtures))
	}
	if _, ok := fixtures["a.json"]; !ok {
		t.Fatal("a.json not loaded")
	}
}
