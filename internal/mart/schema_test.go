//-------------------------------------------------------------------------
//
// martreport - analytics reports over a sales data mart
//
// Copyright (c) 2025 - 2026, the martreport authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package mart

import (
	"strings"
	"testing"

	"github.com/salesmart/martreport/internal/reports"
)

func TestSchemaDefinesStarTables(t *testing.T) {
	for _, table := range []string{"dim_customers", "dim_products", "fact_sales"} {
		if !strings.Contains(createSchemaSQL, "CREATE TABLE IF NOT EXISTS "+table) {
			t.Errorf("schema missing table %s", table)
		}
		if !strings.Contains(dropSchemaSQL, "DROP TABLE IF EXISTS "+table) {
			t.Errorf("drop schema missing table %s", table)
		}
	}
}

func TestFactKeysAreNullable(t *testing.T) {
	// Fact keys must admit NULL so unresolved source records survive
	// loading; a NOT NULL constraint here would silently change every
	// outer-join report.
	start := strings.Index(createSchemaSQL, "fact_sales")
	if start < 0 {
		t.Fatal("fact_sales not found in schema")
	}
	fact := createSchemaSQL[start:]
	if end := strings.Index(fact, ");"); end > 0 {
		fact = fact[:end]
	}

	for _, line := range strings.Split(fact, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "product_key") || strings.HasPrefix(trimmed, "customer_key") ||
			strings.HasPrefix(trimmed, "order_date") {
			if strings.Contains(trimmed, "NOT NULL") {
				t.Errorf("fact column must be nullable: %s", trimmed)
			}
		}
	}
}

func TestViewBodiesHaveNoBindParameters(t *testing.T) {
	// View DDL embeds the report SELECTs directly; a leftover $1 would
	// make CREATE VIEW fail.
	customer := reports.CustomerReportSelect("CURRENT_DATE")
	if strings.Contains(customer, "$1") {
		t.Error("customer report view body contains a bind parameter")
	}
	if !strings.Contains(customer, "CURRENT_DATE") {
		t.Error("customer report view body should evaluate against CURRENT_DATE")
	}
	if strings.Contains(reports.ProductReportSelect(), "$1") {
		t.Error("product report view body contains a bind parameter")
	}
}
