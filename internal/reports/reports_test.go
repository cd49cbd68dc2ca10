package reports

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/salesmart/martreport/internal/db"
)

func TestRegistryContainsAllReports(t *testing.T) {
	want := []string{
		"bottom-products",
		"category-ranking",
		"category-share",
		"country-share",
		"customer-report",
		"customer-segments",
		"customers-by-country",
		"monthly-trend",
		"product-report",
		"revenue-by-gender",
		"running-total",
		"segment-summary",
		"summary",
		"top-customers",
		"top-products",
		"yearly-growth",
	}

	got := List()
	if len(got) != len(want) {
		t.Fatalf("List() returned %d reports, want %d: %v", len(got), len(want), got)
	}
	for i, name := range want {
		if got[i] != name {
			t.Errorf("List()[%d] = %q, want %q", i, got[i], name)
		}
	}
}

func TestGet(t *testing.T) {
	def, err := Get("summary")
	if err != nil {
		t.Fatalf("Get(summary) failed: %v", err)
	}
	if def.Name != "summary" {
		t.Errorf("Get(summary).Name = %q", def.Name)
	}
	if def.Run == nil {
		t.Error("Get(summary).Run is nil")
	}

	if _, err := Get("no-such-report"); err == nil {
		t.Error("Get(no-such-report) should fail")
	}
}

func TestListSorted(t *testing.T) {
	names := List()
	if !sort.StringsAreSorted(names) {
		t.Errorf("List() not sorted: %v", names)
	}
}

func TestAllMatchesList(t *testing.T) {
	defs := All()
	names := List()
	if len(defs) != len(names) {
		t.Fatalf("All() has %d entries, List() has %d", len(defs), len(names))
	}
	for i, def := range defs {
		if def.Name != names[i] {
			t.Errorf("All()[%d].Name = %q, want %q", i, def.Name, names[i])
		}
		if def.Description == "" {
			t.Errorf("report %q has no description", def.Name)
		}
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	if opts.TopN != 10 {
		t.Errorf("TopN = %d, want 10", opts.TopN)
	}
	if opts.Concurrency != 8 {
		t.Errorf("Concurrency = %d, want 8", opts.Concurrency)
	}
	if opts.AsOf.IsZero() {
		t.Error("AsOf should default to the current time")
	}
}

func TestRegister(t *testing.T) {
	Register(Definition{
		Name:        "test-report",
		Description: "registered by the test",
		Run: func(_ context.Context, _ db.Querier, _ Options) (*Result, error) {
			return &Result{Name: "test-report"}, nil
		},
	})
	t.Cleanup(func() {
		mu.Lock()
		delete(registry, "test-report")
		mu.Unlock()
	})

	def, err := Get("test-report")
	if err != nil {
		t.Fatalf("Get(test-report) failed: %v", err)
	}
	res, err := def.Run(context.Background(), nil, Options{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Name != "test-report" {
		t.Errorf("Run().Name = %q", res.Name)
	}
}

func TestWriteTable(t *testing.T) {
	res := &Result{
		Name:    "demo",
		Columns: []string{"category", "revenue"},
		Rows: [][]string{
			{"Bikes", "350.00"},
			{"Accessories", "120.50"},
		},
	}

	var buf bytes.Buffer
	if err := WriteTable(&buf, res); err != nil {
		t.Fatalf("WriteTable failed: %v", err)
	}

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d lines:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "category") {
		t.Errorf("header line = %q", lines[0])
	}
	if !strings.Contains(lines[1], "Bikes") || !strings.Contains(lines[1], "350.00") {
		t.Errorf("first row = %q", lines[1])
	}
}

func TestWriteJSON(t *testing.T) {
	type row struct {
		Category string  `json:"category"`
		Revenue  float64 `json:"revenue"`
	}
	res := &Result{
		Name:    "demo",
		Columns: []string{"category", "revenue"},
		Data:    []row{{Category: "Bikes", Revenue: 350}},
	}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, res); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{`"name": "demo"`, `"category": "Bikes"`, `"rows"`} {
		if !strings.Contains(out, want) {
			t.Errorf("JSON output missing %q:\n%s", want, out)
		}
	}
	// The stringified table rows must not leak into the JSON form.
	if strings.Contains(out, `"Rows"`) {
		t.Errorf("JSON output should omit the table rows:\n%s", out)
	}
}

func TestFormatHelpers(t *testing.T) {
	if got := fmtFloat(116.666); got != "116.67" {
		t.Errorf("fmtFloat(116.666) = %q", got)
	}
	if got := fmtFloatPtr(nil); got != "" {
		t.Errorf("fmtFloatPtr(nil) = %q", got)
	}
	if got := fmtString(nil); got != "" {
		t.Errorf("fmtString(nil) = %q", got)
	}
	if got := fmtIntPtr(nil); got != "" {
		t.Errorf("fmtIntPtr(nil) = %q", got)
	}
	if got := fmtDatePtr(nil); got != "" {
		t.Errorf("fmtDatePtr(nil) = %q", got)
	}
}
