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
	"xgrowth/internal/store"
)

// #region main

func main() {
	dataDir := flag.String("data", "data", "path to the data directory")
	user := flag.String("user", "", "user id to inspect")
	last := flag.Int("last", 20, "show N most recent audit entries")
	jsonOut := flag.Bool("json", false, "output as JSON instead of text")
	flag.Parse()

	if *user == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --user id [--data dir] [--last N] [--json]")
		os.Exit(2)
	}

	docs, err := store.NewDocStore(filepath.Join(*dataDir, "personas"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "open doc store: %v\n", err)
		os.Exit(1)
	}
	personas := persona.NewManager(docs, nil)

	state, err := personas.Load(*user)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load persona: %v\n", err)
		os.Exit(1)
	}

	entries := loadAudit(filepath.Join(*dataDir, "xgrowth.db"), *user, *last)

	if *jsonOut {
		if err := printJSON(state, entries); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Print(persona.Explain(state))
	printAudit(entries)
}

// #endregion main

// #region audit

// loadAudit returns recent audit entries, or nil when the database does
// not exist yet.
func loadAudit(dbPath, user string, last int) []audit.Entry {
	if _, err := os.Stat(dbPath); err != nil {
		return nil
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		return nil
	}
	defer db.Close()

	trail, err := audit.NewLog(db)
	if err != nil {
		fmt.Fprintf(os.Stderr, "audit log: %v\n", err)
		return nil
	}
	entries, err := trail.Recent(user, last)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read audit: %v\n", err)
		return nil
	}
	return entries
}

func printAudit(entries []audit.Entry) {
	if len(entries) == 0 {
		return
	}
	fmt.Printf("\nRECENT UPDATES:\n")
	for _, e := range entries {
		fmt.Printf("  %s  %-20s  %s\n",
			e.CreatedAt.Format("2006-01-02 15:04:05"), e.Kind, e.Explanation)
		for _, c := range e.Changes {
			fmt.Printf("      %s\n", c)
		}
	}
}

// #endregion audit

// #region output

type inspectOutput struct {
	State   *persona.State `json:"state"`
	History []audit.Entry  `json:"history,omitempty"`
}

func printJSON(state *persona.State, entries []audit.Entry) error {
	data, err := json.MarshalIndent(inspectOutput{State: state, History: entries}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// #endregion output
