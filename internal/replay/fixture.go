// Package replay runs recorded feedback sequences against a scratch
// persona manager and checks the resulting state against expected
// values. Fixtures are JSON files so learning regressions can be
// captured from real sessions and pinned.
package replay

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"xgrowth/internal/persona"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description  string        `json:"description"`
	User         string        `json:"user,omitempty"`
	Events       []Event       `json:"events"`
	Expectations []Expectation `json:"expectations"`
}

// Event is one recorded feedback signal. Type selects which processor
// entry point handles it; the remaining fields are per-type and unused
// ones stay at their zero values. Raw events bypass the processors and
// apply a persona-level payload directly, which is how audit-trail
// exports replay.
type Event struct {
	Type string `json:"type"` // "explicit" | "behavioral" | "temporal" | "outcome" | "raw"

	// explicit and temporal
	Action string `json:"action,omitempty"`

	// explicit
	Content  string `json:"content,omitempty"`
	Original string `json:"original,omitempty"`

	// behavioral
	Topics []string `json:"topics,omitempty"`

	// temporal
	TimeTakenMS int64 `json:"time_taken_ms,omitempty"`
	Hesitated   bool  `json:"hesitated,omitempty"`

	// outcome
	PostID   string `json:"post_id,omitempty"`
	Likes    int    `json:"likes,omitempty"`
	Replies  int    `json:"replies,omitempty"`
	Retweets int    `json:"retweets,omitempty"`

	// raw
	Kind    string           `json:"kind,omitempty"`
	Payload *persona.Payload `json:"payload,omitempty"`
}

// Expectation pins one state field after the full sequence has run.
// Path is a dot-separated walk over the persisted JSON document, e.g.
// "topic_affinity.ai" or "learning_history.total_approvals". Numeric
// values compare within a small tolerance, everything else exactly.
type Expectation struct {
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if len(f.Events) == 0 {
		return nil, fmt.Errorf("fixture %s: no events", path)
	}
	return &f, nil
}

// LoadDir loads every .json fixture in dir, sorted by filename.
func LoadDir(dir string) (map[string]*Fixture, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("scan fixtures %s: %w", dir, err)
	}
	sort.Strings(paths)
	fixtures := make(map[string]*Fixture, len(paths))
	for _, p := range paths {
		f, err := LoadFixture(p)
		if err != nil {
			return nil, err
		}
		fixtures[filepath.Base(p)] = f
	}
	return fixtures, nil
}

// #endregion fixture-loader
