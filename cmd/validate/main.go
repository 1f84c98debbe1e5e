// Command validate checks a map catalog file against the composition recipes:
// every analysis must have a recipe, every model row must list enough data
// directories for it, and the directories themselves must be well formed. Run
// it on a catalog override before deploying one.
//
// Usage:
//
//	go run ./cmd/validate -catalog deploy/catalog.yaml
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/cycle13/weather-map-service/internal/catalog"
	"github.com/cycle13/weather-map-service/internal/compose"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	catalogFile := flag.String("catalog", "", "catalog file to check (empty checks the built-in catalog)")
	flag.Parse()

	if code := run(*catalogFile); code != 0 {
		os.Exit(code)
	}
}

func run(path string) int {
	// ── Load the catalog ──
	fmt.Println("=== Map Catalog Validation ===")
	fmt.Println()

	target := "built-in catalog"
	if path != "" {
		target = path
	}
	fmt.Printf("Checking %s\n", target)

	cat, err := catalog.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load catalog: %v\n", err)
		return 1
	}

	// ── Run validation phases ──
	phases := []*phase{
		validateRecipeCoverage(cat),
		validateDirectoryForm(cat),
		validateTableConsistency(cat),
	}

	// ── Report results ──
	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Entries: %d analyses, %d model rows, %d data directories\n",
		len(cat.Analyses()), countRows(cat), countPaths(cat))

	// Print detailed errors.
	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: Recipe Coverage ──
// Every analysis needs a composition recipe, and every model row must list at
// least as many directories as its recipe reads.

func validateRecipeCoverage(cat *catalog.Catalog) *phase {
	p := &phase{name: "Phase 1: Recipe Coverage (analyses)"}

	for _, a := range analyses(cat) {
		need, ok := compose.RequiredPaths(a.ID)
		if !ok {
			p.errorf("%s: no composition recipe", a.ID)
			continue
		}
		for _, m := range a.Models() {
			if len(m.Paths) < need {
				p.errorf("%s/%s: lists %d directories, recipe reads %d", a.ID, m.Name, len(m.Paths), need)
			}
		}
	}
	return p
}

// ── Phase 2: Directory Form ──
// Data directories are joined into gateway URLs verbatim, so they must be
// clean relative paths.

func validateDirectoryForm(cat *catalog.Catalog) *phase {
	p := &phase{name: "Phase 2: Directory Form (paths)"}

	for _, a := range analyses(cat) {
		for _, m := range a.Models() {
			for i, dir := range m.Paths {
				switch {
				case strings.HasPrefix(dir, "/") || strings.HasSuffix(dir, "/"):
					p.errorf("%s/%s path %d: %q has a leading or trailing slash", a.ID, m.Name, i, dir)
				case strings.Contains(dir, "//"):
					p.errorf("%s/%s path %d: %q has an empty segment", a.ID, m.Name, i, dir)
				case strings.ContainsAny(dir, " \t"):
					p.errorf("%s/%s path %d: %q contains whitespace", a.ID, m.Name, i, dir)
				}
			}
		}
	}
	return p
}

// ── Phase 3: Table Consistency ──
// Rows must not repeat a directory, and wind component entries must sit in
// the slots the recipe reads them from.

// windSlots locates the U and V entries in each recipe's model row.
var windSlots = map[string][2]int{
	compose.AnalysisReflectivity:           {1, 2},
	compose.AnalysisReflectivityComparison: {1, 2},
	compose.AnalysisSynoptic500:            {1, 2},
}

func validateTableConsistency(cat *catalog.Catalog) *phase {
	p := &phase{name: "Phase 3: Table Consistency (model rows)"}

	for _, a := range analyses(cat) {
		slots, hasWind := windSlots[a.ID]
		for _, m := range a.Models() {
			seen := make(map[string]int, len(m.Paths))
			for i, dir := range m.Paths {
				if prev, dup := seen[dir]; dup {
					p.errorf("%s/%s: path %d repeats directory %q from path %d", a.ID, m.Name, i, dir, prev)
					continue
				}
				seen[dir] = i
			}

			if !hasWind || len(m.Paths) <= slots[1] {
				continue
			}
			u, v := m.Paths[slots[0]], m.Paths[slots[1]]
			if strings.Contains(strings.ToUpper(u), "VGRD") {
				p.errorf("%s/%s: U slot %d holds %q", a.ID, m.Name, slots[0], u)
			}
			if strings.Contains(strings.ToUpper(v), "UGRD") {
				p.errorf("%s/%s: V slot %d holds %q", a.ID, m.Name, slots[1], v)
			}
		}
	}
	return p
}

// ── Helpers ──

func analyses(cat *catalog.Catalog) []*catalog.Analysis {
	out := make([]*catalog.Analysis, 0, len(cat.Analyses()))
	for _, id := range cat.Analyses() {
		a, err := cat.Find(id)
		if err != nil {
			continue
		}
		out = append(out, a)
	}
	return out
}

func countRows(cat *catalog.Catalog) int {
	n := 0
	for _, a := range analyses(cat) {
		n += len(a.Models())
	}
	return n
}

func countPaths(cat *catalog.Catalog) int {
	n := 0
	for _, a := range analyses(cat) {
		for _, m := range a.Models() {
			n += len(m.Paths)
		}
	}
	return n
}
