package replay

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"xgrowth/internal/feedback"
	"xgrowth/internal/persona"
)

// numericTolerance absorbs float drift across JSON round-trips.
const numericTolerance = 1e-6

// #region report

// Check is the outcome of one expectation.
type Check struct {
	Path string
	Want any
	Got  any
	Pass bool
}

// Report captures one fixture run.
type Report struct {
	Description string
	User        string
	Events      int
	Checks      []Check
}

// Passed reports whether every expectation held.
func (r *Report) Passed() bool {
	for _, c := range r.Checks {
		if !c.Pass {
			return false
		}
	}
	return true
}

// Failures lists the failed checks as printable strings.
func (r *Report) Failures() []string {
	var out []string
	for _, c := range r.Checks {
		if !c.Pass {
			out = append(out, fmt.Sprintf("%s: want %v, got %v", c.Path, c.Want, c.Got))
		}
	}
	return out
}

// #endregion report

// #region run

// Run replays the fixture's events through the feedback processor and
// evaluates the expectations against the final persona state. The
// caller provides the manager so tests can run over a temp store.
func Run(personas *persona.Manager, f *Fixture) (*Report, error) {
	user := f.User
	if user == "" {
		user = "replay"
	}
	learn := feedback.NewProcessor(personas)

	for i, e := range f.Events {
		var err error
		switch e.Type {
		case "explicit":
			_, err = learn.Explicit(user, e.Action, e.Content, e.Original)
		case "behavioral":
			_, err = learn.Behavioral(user, e.Action, e.Topics)
		case "temporal":
			_, err = learn.Temporal(user, e.Action, time.Duration(e.TimeTakenMS)*time.Millisecond, e.Hesitated)
		case "outcome":
			_, err = learn.Outcome(user, e.PostID, feedback.EngagementMetrics{
				Likes:    e.Likes,
				Replies:  e.Replies,
				Retweets: e.Retweets,
			})
		case "raw":
			if e.Payload == nil {
				return nil, fmt.Errorf("event %d: raw event without payload", i)
			}
			_, err = personas.UpdateFromFeedback(user, persona.Kind(e.Kind), *e.Payload)
		default:
			return nil, fmt.Errorf("event %d: unknown type %q", i, e.Type)
		}
		if err != nil {
			return nil, fmt.Errorf("event %d (%s): %w", i, e.Type, err)
		}
	}

	state, err := personas.Load(user)
	if err != nil {
		return nil, fmt.Errorf("load final state: %w", err)
	}
	doc, err := stateDocument(state)
	if err != nil {
		return nil, err
	}

	report := &Report{Description: f.Description, User: user, Events: len(f.Events)}
	for _, exp := range f.Expectations {
		got, found := lookup(doc, exp.Path)
		report.Checks = append(report.Checks, Check{
			Path: exp.Path,
			Want: exp.Value,
			Got:  got,
			Pass: found && valuesMatch(exp.Value, got),
		})
	}
	return report, nil
}

// #endregion run

// #region lookup

// stateDocument round-trips the state through JSON so expectation paths
// address the persisted field names.
func stateDocument(s *persona.State) (map[string]any, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal state: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	return doc, nil
}

// lookup walks a dot-separated path through nested JSON objects.
func lookup(doc map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var current any = doc
	for _, part := range parts {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// valuesMatch compares an expected fixture value against a decoded
// state value. Both sides of a numeric comparison arrive as float64
// from encoding/json.
func valuesMatch(want, got any) bool {
	wf, wok := asFloat(want)
	gf, gok := asFloat(got)
	if wok && gok {
		return math.Abs(wf-gf) < numericTolerance
	}
	return want == got
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

// #endregion lookup
