// Command validate loads a migration tracking CSV through the same loader as
// the dashboard and reports data quality findings that would not stop the
// server from starting but would make tracks look wrong.
//
// Usage:
//
//	go run ./cmd/validate -csv data/migration_mq.csv
package main

import (
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/couchcryptid/migration-dashboard/internal/adapter/csvfile"
	"github.com/couchcryptid/migration-dashboard/internal/domain"
)

// phase tracks pass/fail for a validation phase. Warnings are reported but do
// not fail the run.
type phase struct {
	name     string
	errors   []string
	warnings []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) warnf(format string, args ...any) {
	p.warnings = append(p.warnings, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	path := flag.String("csv", "", "path to the migration tracking CSV")
	flag.Parse()

	if *path == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(*path))
}

func run(path string) int {
	fmt.Println("=== Migration Data Validation ===")
	fmt.Println()

	table, err := csvfile.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateKeyYears(table),
		validateDuplicates(table),
		validateSeasonCoverage(table),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		if len(p.warnings) > 0 {
			status += fmt.Sprintf(" \033[33m%d warnings\033[0m", len(p.warnings))
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d, keys: %d, years: %s\n", table.Len(), len(allKeys(table)), joinInts(table.Years()))

	for _, p := range phases {
		report(p)
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func report(p *phase) {
	if len(p.errors) == 0 && len(p.warnings) == 0 {
		return
	}
	fmt.Printf("\n--- %s ---\n", p.name)
	for i, e := range p.errors {
		fmt.Printf("  [E%d] %s\n", i+1, e)
	}
	for i, w := range p.warnings {
		fmt.Printf("  [W%d] %s\n", i+1, w)
	}
}

// ── Phase 1: key year vs fix year ──
// A season may run into the following January, so a one-year drift is a
// warning. Anything further means the id_year label is wrong.

func validateKeyYears(t *domain.Table) *phase {
	p := &phase{name: "Phase 1: Key Year Consistency"}
	drift := map[domain.Key]int{}
	for i := range t.Len() {
		r := t.At(i)
		d := r.Timestamp.Year() - r.Key.Year
		switch {
		case d == 0:
		case d == 1:
			drift[r.Key]++
		default:
			p.errorf("row %d: %s has fix dated %s", i+1, r.Key, r.Timestamp.Format(time.DateOnly))
		}
	}
	for _, k := range sortedKeys(drift) {
		p.warnf("%s: %d fixes in the following year are hidden by the week cutoff", k, drift[k])
	}
	return p
}

// ── Phase 2: duplicate fixes ──

func validateDuplicates(t *domain.Table) *phase {
	p := &phase{name: "Phase 2: Duplicate Fixes"}
	type fix struct {
		key domain.Key
		ts  time.Time
	}
	seen := make(map[fix]int)
	for i := range t.Len() {
		r := t.At(i)
		f := fix{key: r.Key, ts: r.Timestamp}
		if first, ok := seen[f]; ok {
			p.warnf("row %d duplicates row %d (%s at %s)", i+1, first, r.Key, r.Timestamp.Format(time.RFC3339))
			continue
		}
		seen[f] = i + 1
	}
	return p
}

// ── Phase 3: season coverage ──
// Keys whose every fix falls after the last week cutoff never draw.

func validateSeasonCoverage(t *domain.Table) *phase {
	p := &phase{name: "Phase 3: Season Coverage"}
	for _, k := range allKeys(t) {
		if domain.Render(t, []domain.Key{k}, domain.MaxWeek, nil).Empty() {
			p.errorf("%s has no fixes before %s and can never be drawn", k,
				domain.CutoffDate(k.Year, domain.MaxWeek).Format(time.DateOnly))
		}
	}
	return p
}

func allKeys(t *domain.Table) []domain.Key {
	lo, hi, ok := t.YearBounds()
	if !ok {
		return nil
	}
	return domain.Options(t, lo, hi)
}

func sortedKeys(m map[domain.Key]int) []domain.Key {
	keys := make([]domain.Key, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b domain.Key) int { return strings.Compare(a.String(), b.String()) })
	return keys
}

func joinInts(v []int) string {
	s := make([]string, len(v))
	for i, n := range v {
		s[i] = fmt.Sprint(n)
	}
	return strings.Join(s, ", ")
}
