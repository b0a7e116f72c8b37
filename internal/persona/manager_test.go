package persona

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"xgrowth/internal/store"
)

func tempManager(t *testing.T) (*Manager, string) {
	t.Helper()
	dir := t.TempDir()
	docs, err := store.NewDocStore(dir)
	if err != nil {
		t.Fatalf("NewDocStore: %v", err)
	}
	return NewManager(docs, nil), dir
}

func TestLoadCreatesDefaults(t *testing.T) {
	m, dir := tempManager(t)

	s, err := m.Load("alice")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(s.TopicAffinity) != len(DefaultTopics) {
		t.Fatalf("expected %d topics, got %d", len(DefaultTopics), len(s.TopicAffinity))
	}
	if s.TopicAffinity["ai"] != 0.5 {
		t.Fatalf("expected default affinity 0.5, got %f", s.TopicAffinity["ai"])
	}

	// First load persists the defaults.
	if _, err := os.Stat(filepath.Join(dir, "alice.json")); err != nil {
		t.Fatalf("expected persisted document: %v", err)
	}
}

func TestLoadCopiesAreIndependent(t *testing.T) {
	m, _ := tempManager(t)

	a, _ := m.Load("alice")
	b, _ := m.Load("bob")
	a.TopicAffinity["ai"] = 0.9

	if b.TopicAffinity["ai"] != 0.5 {
		t.Fatalf("cross-user aliasing: bob sees %f", b.TopicAffinity["ai"])
	}
}

func TestLoadMergesWithDefaults(t *testing.T) {
	m, dir := tempManager(t)

	// Partial document: one known topic overridden, one unknown topic,
	// tone_style section absent entirely.
	doc := `{
		"topic_affinity": {"ai": 0.9, "gardening": 0.7},
		"risk_sensitivity": {"hot_takes_comfort": 0.1}
	}`
	if err := os.WriteFile(filepath.Join(dir, "carol.json"), []byte(doc), 0o644); err != nil {
		t.Fatalf("write doc: %v", err)
	}

	s, err := m.Load("carol")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.TopicAffinity["ai"] != 0.9 {
		t.Fatalf("stored value not honored: %f", s.TopicAffinity["ai"])
	}
	if s.TopicAffinity["saas"] != 0.5 {
		t.Fatalf("absent topic should fall back to default: %f", s.TopicAffinity["saas"])
	}
	if s.TopicAffinity["gardening"] != 0.7 {
		t.Fatalf("unknown topic should be preserved: %f", s.TopicAffinity["gardening"])
	}
	if s.ToneStyle.QuestionFrequency != 0.4 {
		t.Fatalf("absent section should keep defaults: %f", s.ToneStyle.QuestionFrequency)
	}
	if s.RiskSensitivity.HotTakesComfort != 0.1 {
		t.Fatalf("stored leaf not honored: %f", s.RiskSensitivity.HotTakesComfort)
	}
	// Leaves absent from a present section also fall back.
	if s.RiskSensitivity.SafeVsExperimental != 0.6 {
		t.Fatalf("absent leaf should keep default: %f", s.RiskSensitivity.SafeVsExperimental)
	}
}

func TestLoadCorruptDocumentFallsBackToDefaults(t *testing.T) {
	m, dir := tempManager(t)

	if err := os.WriteFile(filepath.Join(dir, "dave.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write doc: %v", err)
	}
	s, err := m.Load("dave")
	if err != nil {
		t.Fatalf("Load should not propagate parse errors: %v", err)
	}
	if s.TopicAffinity["ai"] != 0.5 {
		t.Fatalf("expected defaults after corrupt load, got %f", s.TopicAffinity["ai"])
	}
}

func TestSaveSetsLastUpdated(t *testing.T) {
	m, _ := tempManager(t)
	fixed := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return fixed }

	s := DefaultState()
	if err := m.Save("alice", s); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if s.LearningHistory.LastUpdated == nil || !s.LearningHistory.LastUpdated.Equal(fixed) {
		t.Fatalf("expected last_updated %v, got %v", fixed, s.LearningHistory.LastUpdated)
	}
}

func TestSaveClampsOutOfRangeValues(t *testing.T) {
	m, _ := tempManager(t)

	s := DefaultState()
	s.TopicAffinity["ai"] = 3.5
	s.RiskSensitivity.HotTakesComfort = -2
	s.EngagementBehavior.LikesPerDayBaseline = -5
	if err := m.Save("alice", s); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, _ := m.Load("alice")
	if loaded.TopicAffinity["ai"] != 1.0 {
		t.Fatalf("expected clamp to 1.0, got %f", loaded.TopicAffinity["ai"])
	}
	if loaded.RiskSensitivity.HotTakesComfort != 0 {
		t.Fatalf("expected clamp to 0, got %f", loaded.RiskSensitivity.HotTakesComfort)
	}
	if loaded.EngagementBehavior.LikesPerDayBaseline != 0 {
		t.Fatalf("expected baseline floor 0, got %d", loaded.EngagementBehavior.LikesPerDayBaseline)
	}
}

func TestSaveMissingSectionFailsLoudly(t *testing.T) {
	m, _ := tempManager(t)

	s := DefaultState()
	s.TopicAffinity = nil
	err := m.Save("alice", s)
	if err == nil {
		t.Fatal("expected ValidationError for missing section")
	}
	if _, ok := err.(*ValidationError); !ok {
		t.Fatalf("expected *ValidationError, got %T: %v", err, err)
	}
}

func TestRoundTripStability(t *testing.T) {
	m, dir := tempManager(t)

	s1, err := m.Load("alice")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	first, err := os.ReadFile(filepath.Join(dir, "alice.json"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if err := m.Save("alice", s1); err != nil {
		t.Fatalf("Save: %v", err)
	}
	second, err := os.ReadFile(filepath.Join(dir, "alice.json"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	// Only the last_updated stamp may differ between the two documents.
	var d1, d2 map[string]json.RawMessage
	json.Unmarshal(first, &d1)
	json.Unmarshal(second, &d2)
	if len(d1) != len(d2) {
		t.Fatalf("section count changed across save: %d vs %d", len(d1), len(d2))
	}
	for key := range d1 {
		if key == "learning_history" {
			continue
		}
		if string(d1[key]) != string(d2[key]) {
			t.Fatalf("section %q changed across a no-op save", key)
		}
	}
}

func TestUpdateFromFeedbackPersists(t *testing.T) {
	m, _ := tempManager(t)

	res, err := m.UpdateFromFeedback("alice", KindTopicAffinity,
		Payload{Topic: "ai", Adjustment: fptr(0.05)})
	if err != nil {
		t.Fatalf("UpdateFromFeedback: %v", err)
	}
	if res.State.TopicAffinity["ai"] != 0.55 {
		t.Fatalf("expected 0.55 in result, got %f", res.State.TopicAffinity["ai"])
	}
	if res.Explanation != "Topic 'ai': 0.50 → 0.55" {
		t.Fatalf("unexpected explanation: %q", res.Explanation)
	}

	loaded, _ := m.Load("alice")
	if loaded.TopicAffinity["ai"] != 0.55 {
		t.Fatalf("update not persisted: %f", loaded.TopicAffinity["ai"])
	}
}

func TestUpdateFromFeedbackNoChanges(t *testing.T) {
	m, _ := tempManager(t)

	res, err := m.UpdateFromFeedback("alice", KindTopicAffinity,
		Payload{Topic: "nonexistent", Adjustment: fptr(0.05)})
	if err != nil {
		t.Fatalf("UpdateFromFeedback: %v", err)
	}
	if len(res.Changes) != 0 || res.Explanation != "No changes made" {
		t.Fatalf("expected no-op result, got %+v", res)
	}
}

func TestUpdateFromFeedbackConcurrentSameUser(t *testing.T) {
	// Two concurrent updates to the same user must both land; the
	// per-user lock serializes the load→mutate→save round-trip.
	m, _ := tempManager(t)
	if _, err := m.Load("alice"); err != nil {
		t.Fatalf("Load: %v", err)
	}

	done := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := m.UpdateFromFeedback("alice", KindEngagementBehavior,
				Payload{Action: "approval"})
			done <- err
		}()
	}
	for i := 0; i < 2; i++ {
		if err := <-done; err != nil {
			t.Fatalf("concurrent update: %v", err)
		}
	}

	s, _ := m.Load("alice")
	if s.LearningHistory.TotalApprovals != 2 {
		t.Fatalf("lost update: expected 2 approvals, got %d", s.LearningHistory.TotalApprovals)
	}
}

func TestExplainIncludesTopTopics(t *testing.T) {
	s := DefaultState()
	s.TopicAffinity["ai"] = 0.9
	out := Explain(s)
	if out == "" {
		t.Fatal("expected non-empty explanation")
	}
	top := TopTopics(s, 1)
	if top[0].Name != "ai" {
		t.Fatalf("expected ai as top topic, got %s", top[0].Name)
	}
}
