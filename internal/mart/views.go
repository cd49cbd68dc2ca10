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
	"context"
	"fmt"

	"github.com/salesmart/martreport/internal/db"
	"github.com/salesmart/martreport/internal/reports"
)

// CreateViews creates the customer and product report views. The view
// bodies are the same SELECTs the report functions run, so view output and
// report output cannot drift. Views take no parameters, so the evaluation
// clock for age and recency is CURRENT_DATE.
func CreateViews(ctx context.Context, q db.Querier) error {
	customerView := fmt.Sprintf("CREATE OR REPLACE VIEW customer_report AS %s",
		reports.CustomerReportSelect("CURRENT_DATE"))
	if _, err := q.Exec(ctx, customerView); err != nil {
		return fmt.Errorf("failed to create customer_report view: %w", err)
	}

	productView := fmt.Sprintf("CREATE OR REPLACE VIEW product_report AS %s",
		reports.ProductReportSelect())
	if _, err := q.Exec(ctx, productView); err != nil {
		return fmt.Errorf("failed to create product_report view: %w", err)
	}

	return nil
}

// DropViews drops the report views.
func DropViews(ctx context.Context, q db.Querier) error {
	_, err := q.Exec(ctx, `
DROP VIEW IF EXISTS product_report;
DROP VIEW IF EXISTS customer_report;
`)
	return err
}
