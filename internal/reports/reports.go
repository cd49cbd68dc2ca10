// Package reports implements the analytics query library for the sales mart.
//
// Every report is a pure, read-only aggregation over fact_sales,
// dim_customers and dim_products. Reports register themselves by name so
// the CLI can list and run them; each returns typed rows plus a generic
// Result used for rendering.
package reports

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/salesmart/martreport/internal/db"
)

// Options carries per-run report parameters.
type Options struct {
	// TopN is the row limit for top/bottom ranking reports.
	TopN int

	// AsOf is the evaluation clock for time-dependent report fields
	// (customer age, days since last order). Injected rather than read
	// from the wall clock so report output is reproducible in tests.
	AsOf time.Time

	// Concurrency bounds the number of reports running in parallel
	// when executing the full report set.
	Concurrency int
}

// DefaultOptions returns Options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		TopN:        10,
		AsOf:        time.Now(),
		Concurrency: 8,
	}
}

// Result is the rendered form of a report: column headers, stringified
// rows for table output, and the typed row data for JSON output.
type Result struct {
	Name    string     `json:"name"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"-"`
	Data    any        `json:"rows"`
}

// Definition describes a registered report.
type Definition struct {
	// Name is the report identifier used on the CLI.
	Name string

	// Description says what the report computes.
	Description string

	// Run executes the report against the given database.
	Run func(ctx context.Context, q db.Querier, opts Options) (*Result, error)
}

var (
	registry = make(map[string]Definition)
	mu       sync.RWMutex
)

// Register adds a report to the registry.
func Register(def Definition) {
	mu.Lock()
	defer mu.Unlock()
	registry[def.Name] = def
}

// Get retrieves a report by name.
func Get(name string) (Definition, error) {
	mu.RLock()
	defer mu.RUnlock()

	def, ok := registry[name]
	if !ok {
		return Definition{}, fmt.Errorf("unknown report: %s", name)
	}
	return def, nil
}

// List returns all registered report names, sorted.
func List() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns all registered reports, sorted by name.
func All() []Definition {
	mu.RLock()
	defer mu.RUnlock()

	defs := make([]Definition, 0, len(registry))
	for _, def := range registry {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}
