package audit

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func tempLog(t *testing.T) *Log {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	l, err := NewLog(db)
	if err != nil {
		t.Fatalf("NewLog: %v", err)
	}
	return l
}

func TestRecordAndRecent(t *testing.T) {
	l := tempLog(t)

	err := l.Record(Entry{
		UserKey:     "alice",
		Kind:        "topic_affinity",
		PayloadJSON: `{"topic":"ai","adjustment":0.05}`,
		Changes:     []string{"Topic 'ai': 0.50 → 0.55"},
		Explanation: "Topic 'ai': 0.50 → 0.55",
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	entries, err := l.Recent("alice", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Kind != "topic_affinity" {
		t.Fatalf("unexpected kind: %q", e.Kind)
	}
	if len(e.Changes) != 1 || e.Changes[0] != "Topic 'ai': 0.50 → 0.55" {
		t.Fatalf("changes did not round-trip: %v", e.Changes)
	}
	if e.CreatedAt.IsZero() {
		t.Fatal("expected CreatedAt to be stamped")
	}
}

func TestRecentOrderAndLimit(t *testing.T) {
	l := tempLog(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		err := l.Record(Entry{
			UserKey:   "alice",
			Kind:      "energy_cadence",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Record %d: %v", i, err)
		}
	}

	entries, err := l.Recent("alice", 3)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if !entries[0].CreatedAt.After(entries[2].CreatedAt) {
		t.Fatal("expected most recent first")
	}
}

func TestRecentIsolatesUsers(t *testing.T) {
	l := tempLog(t)

	l.Record(Entry{UserKey: "alice", Kind: "tone_style"})
	l.Record(Entry{UserKey: "bob", Kind: "tone_style"})

	entries, err := l.Recent("bob", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 1 || entries[0].UserKey != "bob" {
		t.Fatalf("expected only bob's entries, got %+v", entries)
	}
}

func TestRecordOnClosedDB(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	l, err := NewLog(db)
	if err != nil {
		t.Fatalf("NewLog: %v", err)
	}
	db.Close()

	if err := l.Record(Entry{UserKey: "alice", Kind: "tone_style"}); err == nil {
		t.Fatal("expected error on closed DB")
	}
}
