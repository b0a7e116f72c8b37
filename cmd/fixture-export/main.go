// fixture-export turns a user's recent persona audit trail into a
// replay fixture. The exported events apply the recorded payloads
// verbatim; the expectations pin the learning counters and top topic
// scores the user has right now, so the fixture fails if the update
// rules ever drift. --last must cover the user's full history for the
// pinned values to line up; export a fresh account or raise the limit.
package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"xgrowth/internal/audit"
	"xgrowth/internal/persona"
	"xgrowth/internal/replay"
	"xgrowth/internal/store"
)

const pinnedTopics = 5

// #region main

func main() {
	dataDir := flag.String("data", "data", "path to the data directory")
	user := flag.String("user", "", "user id to export")
	last := flag.Int("last", 20, "number of most recent audit rows to export")
	outPath := flag.String("out", "", "output fixture JSON path")
	flag.Parse()

	if *user == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --user id --out path/to/fixture.json [--data dir] [--last N]")
		os.Exit(2)
	}

	if err := run(*dataDir, *user, *last, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region extract

func run(dataDir, user string, last int, outPath string) error {
	db, err := sql.Open("sqlite", filepath.Join(dataDir, "xgrowth.db"))
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	trail, err := audit.NewLog(db)
	if err != nil {
		return fmt.Errorf("audit log: %w", err)
	}
	entries, err := trail.Recent(user, last)
	if err != nil {
		return fmt.Errorf("read audit: %w", err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("no audit entries for user %s", user)
	}

	// Recent returns newest first; replay wants chronological order.
	events := make([]replay.Event, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		var p persona.Payload
		if e.PayloadJSON != "" {
			if err := json.Unmarshal([]byte(e.PayloadJSON), &p); err != nil {
				return fmt.Errorf("parse payload for entry %d: %w", e.ID, err)
			}
		}
		events = append(events, replay.Event{Type: "raw", Kind: e.Kind, Payload: &p})
	}

	docs, err := store.NewDocStore(filepath.Join(dataDir, "personas"))
	if err != nil {
		return fmt.Errorf("open doc store: %w", err)
	}
	state, err := persona.NewManager(docs, nil).Load(user)
	if err != nil {
		return fmt.Errorf("load persona: %w", err)
	}

	fixture := replay.Fixture{
		Description:  fmt.Sprintf("Audit export: %d updates for %s", len(events), user),
		Events:       events,
		Expectations: buildExpectations(state),
	}
	return writeFixture(fixture, outPath)
}

// #endregion extract

// #region output

// buildExpectations pins the counters and the strongest topic scores.
// Fatigue timestamps and posting times are excluded, they are not
// reproducible from payloads alone.
func buildExpectations(state *persona.State) []replay.Expectation {
	exps := []replay.Expectation{
		{Path: "learning_history.total_approvals", Value: state.LearningHistory.TotalApprovals},
		{Path: "learning_history.total_rejections", Value: state.LearningHistory.TotalRejections},
		{Path: "learning_history.total_edits", Value: state.LearningHistory.TotalEdits},
	}
	for _, ts := range persona.TopTopics(state, pinnedTopics) {
		exps = append(exps, replay.Expectation{
			Path:  "topic_affinity." + ts.Name,
			Value: ts.Score,
		})
	}
	return exps
}

func writeFixture(fixture replay.Fixture, outPath string) error {
	data, err := json.MarshalIndent(fixture, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	fmt.Printf("Wrote fixture to %s (%d bytes, %d events)\n", outPath, len(data), len(fixture.Events))
	return nil
}

// #endregion output
