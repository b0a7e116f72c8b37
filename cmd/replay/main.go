package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"xgrowth/internal/persona"
	"xgrowth/internal/replay"
	"xgrowth/internal/store"
)

// #region main

func main() {
	fixturePath := flag.String("fixture", "", "path to a fixture JSON file")
	fixtureDir := flag.String("dir", "", "directory of fixture JSON files")
	flag.Parse()

	if (*fixturePath == "" && *fixtureDir == "") || (*fixturePath != "" && *fixtureDir != "") {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/fixture.json")
		fmt.Fprintln(os.Stderr, "       replay --dir path/to/fixtures/")
		os.Exit(2)
	}

	fixtures := map[string]*replay.Fixture{}
	if *fixturePath != "" {
		f, err := replay.LoadFixture(*fixturePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
			os.Exit(2)
		}
		fixtures[*fixturePath] = f
	} else {
		loaded, err := replay.LoadDir(*fixtureDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load fixtures: %v\n", err)
			os.Exit(2)
		}
		fixtures = loaded
	}
	if len(fixtures) == 0 {
		fmt.Fprintln(os.Stderr, "no fixtures found")
		os.Exit(2)
	}

	os.Exit(runAll(fixtures))
}

// #endregion main

// #region run

// runAll replays every fixture against a fresh scratch store and
// returns the process exit code.
func runAll(fixtures map[string]*replay.Fixture) int {
	names := make([]string, 0, len(fixtures))
	for name := range fixtures {
		names = append(names, name)
	}
	sort.Strings(names)

	failed := 0
	for _, name := range names {
		report, err := runOne(fixtures[name])
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
			failed++
			continue
		}
		printReport(name, report)
		if !report.Passed() {
			failed++
		}
	}

	fmt.Printf("\nSummary: %d fixtures, %d failed\n", len(names), failed)
	if failed > 0 {
		return 1
	}
	return 0
}

func runOne(f *replay.Fixture) (*replay.Report, error) {
	dir, err := os.MkdirTemp("", "replay-*")
	if err != nil {
		return nil, fmt.Errorf("temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	docs, err := store.NewDocStore(dir)
	if err != nil {
		return nil, fmt.Errorf("doc store: %w", err)
	}
	return replay.Run(persona.NewManager(docs, nil), f)
}

// #endregion run

// #region output

func printReport(name string, r *replay.Report) {
	status := "PASS"
	if !r.Passed() {
		status = "FAIL"
	}
	fmt.Printf("%s: %s (%d events, %d checks)\n", status, name, r.Events, len(r.Checks))
	if r.Description != "" {
		fmt.Printf("  %s\n", r.Description)
	}
	for _, c := range r.Checks {
		mark := "ok"
		if !c.Pass {
			mark = "DIFF"
		}
		fmt.Printf("  %-6s %-50s want=%v got=%v\n", mark, c.Path, c.Want, c.Got)
	}
}

// #endregion output
