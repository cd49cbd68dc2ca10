//-------------------------------------------------------------------------
//
// martreport - analytics reports over a sales data mart
//
// Copyright (c) 2025 - 2026, the martreport authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

//go:build integration
// +build integration

// Integration tests for the report queries.
// Run with: go test -tags=integration ./internal/reports/...
// Requires PostgreSQL to be available.
// Set MARTREPORT_TEST_CONN environment variable to override connection string.

package reports_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/salesmart/martreport/internal/mart"
	"github.com/salesmart/martreport/internal/reports"
	"github.com/salesmart/martreport/internal/testutil"
)

// The fixture is small enough that every aggregate below is computed by
// hand. Two customers with orders, one without; four products; six orders,
// one of them with an unresolved customer key and no order date.
const fixtureSQL = `
INSERT INTO dim_customers
    (customer_key, customer_id, customer_number, first_name, last_name, country, marital_status, gender, birthdate, create_date)
VALUES
    (1, 10001, 'CUST-010001', 'Ada', 'Smith', 'United States', 'Single',  'Female', '1990-03-15', '2023-01-05'),
    (2, 10002, 'CUST-010002', 'Bo',  'Jones', 'Germany',       'Married', 'Male',   '1985-07-01', '2023-02-10'),
    (3, 10003, 'CUST-010003', 'Cy',  'Brown', 'United States', 'Single',  'Male',   '2000-01-10', '2024-05-20');

INSERT INTO dim_products
    (product_key, product_id, product_number, product_name, category, subcategory, product_line, cost, start_date)
VALUES
    (1, 101, 'PR-BI-0101', 'Alpha Bike',   'Bikes',       'Road Bikes', 'Road',     50.00, '2022-01-01'),
    (2, 102, 'PR-AC-0102', 'Beta Helmet',  'Accessories', 'Helmets',    'Road',     10.00, '2022-01-01'),
    (3, 103, 'PR-CO-0103', 'Gamma Chain',  'Components',  'Chains',     'Mountain',  5.00, '2022-01-01'),
    (4, 104, 'PR-CL-0104', 'Delta Jersey', 'Clothing',    'Jerseys',    'Touring',  15.00, '2022-01-01');

INSERT INTO fact_sales
    (order_number, product_key, customer_key, order_date, shipping_date, due_date, sales_amount, quantity, price)
VALUES
    ('SO001', 1, 1,    '2024-01-10', '2024-01-17', '2024-01-22', 100.00, 1, 100.00),
    ('SO001', 2, 1,    '2024-01-10', '2024-01-17', '2024-01-22',  50.00, 2,  25.00),
    ('SO002', 1, 2,    '2024-02-05', '2024-02-12', '2024-02-17', 200.00, 2, 100.00),
    ('SO003', 2, 2,    '2025-02-05', '2025-02-12', '2025-02-17', 150.00, 3,  50.00),
    ('SO004', 1, NULL, NULL,         NULL,         NULL,          40.00, 1,  40.00),
    ('SO005', 3, 1,    '2024-03-01', '2024-03-08', '2024-03-13',  75.00, 1,  75.00),
    ('SO006', 4, 2,    '2024-03-02', '2024-03-09', '2024-03-14',  75.00, 1,  75.00);
`

// asOf is the evaluation clock for age and recency assertions.
var asOf = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func setupFixture(t *testing.T) *pgxpool.Pool {
	t.Helper()

	baseConnStr := testutil.SkipIfNoPostgres(t)
	testConnStr := testutil.CreateTestDB(t, baseConnStr, "reports")
	dbName := testutil.GetDBNameFromConnStr(testConnStr)

	cleanup := testutil.NewTestCleanup(t, baseConnStr, dbName)
	t.Cleanup(cleanup.Cleanup)

	pool := testutil.ConnectTestDB(t, testConnStr)
	cleanup.SetPool(pool)

	ctx := context.Background()
	if err := mart.CreateSchema(ctx, pool); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	if err := mart.CreateViews(ctx, pool); err != nil {
		t.Fatalf("Failed to create views: %v", err)
	}
	if _, err := pool.Exec(ctx, fixtureSQL); err != nil {
		t.Fatalf("Failed to load fixture: %v", err)
	}
	return pool
}

func closeTo(a, b float64) bool {
	return math.Abs(a-b) < 0.005
}

func TestGlobalSummary(t *testing.T) {
	pool := setupFixture(t)
	ctx := context.Background()

	s, err := reports.GlobalSummary(ctx, pool)
	if err != nil {
		t.Fatalf("GlobalSummary failed: %v", err)
	}

	if s.TotalCustomers != 2 {
		t.Errorf("TotalCustomers = %d, want 2 (NULL keys not counted)", s.TotalCustomers)
	}
	if s.TotalProducts != 4 {
		t.Errorf("TotalProducts = %d, want 4", s.TotalProducts)
	}
	if s.TotalOrders != 6 {
		t.Errorf("TotalOrders = %d, want 6", s.TotalOrders)
	}
	if !closeTo(s.TotalRevenue, 690) {
		t.Errorf("TotalRevenue = %v, want 690", s.TotalRevenue)
	}
	if s.TotalQuantity != 11 {
		t.Errorf("TotalQuantity = %d, want 11", s.TotalQuantity)
	}
	if s.AvgOrderValue == nil || !closeTo(*s.AvgOrderValue, 115.00) {
		t.Errorf("AvgOrderValue = %v, want 115.00", s.AvgOrderValue)
	}
	if s.FirstOrderDate == nil || s.FirstOrderDate.Format("2006-01-02") != "2024-01-10" {
		t.Errorf("FirstOrderDate = %v, want 2024-01-10", s.FirstOrderDate)
	}
	if s.LastOrderDate == nil || s.LastOrderDate.Format("2006-01-02") != "2025-02-05" {
		t.Errorf("LastOrderDate = %v, want 2025-02-05", s.LastOrderDate)
	}
	if s.MonthsSpanned == nil || *s.MonthsSpanned != 12 {
		t.Errorf("MonthsSpanned = %v, want 12", s.MonthsSpanned)
	}
}

// Three order lines across three orders: 100 + 50 + 200 revenue, so the
// average order value is 350 over 3 distinct orders = 116.67.
func TestGlobalSummaryAvgOrderValue(t *testing.T) {
	pool := setupFixture(t)
	ctx := context.Background()

	if _, err := pool.Exec(ctx, "DELETE FROM fact_sales"); err != nil {
		t.Fatalf("Failed to clear facts: %v", err)
	}
	_, err := pool.Exec(ctx, `
INSERT INTO fact_sales (order_number, product_key, customer_key, order_date, sales_amount, quantity, price)
VALUES
    ('SO100', 1, 1, '2024-04-01', 100.00, 1, 100.00),
    ('SO101', 2, 1, '2024-04-02',  50.00, 1,  50.00),
    ('SO102', 1, 2, '2024-04-03', 200.00, 1, 200.00)`)
	if err != nil {
		t.Fatalf("Failed to load rows: %v", err)
	}

	s, err := reports.GlobalSummary(ctx, pool)
	if err != nil {
		t.Fatalf("GlobalSummary failed: %v", err)
	}
	if s.TotalCustomers != 2 || s.TotalProducts != 2 || s.TotalOrders != 3 {
		t.Errorf("counts = %d customers, %d products, %d orders; want 2/2/3",
			s.TotalCustomers, s.TotalProducts, s.TotalOrders)
	}
	if !closeTo(s.TotalRevenue, 350) {
		t.Errorf("TotalRevenue = %v, want 350", s.TotalRevenue)
	}
	if s.AvgOrderValue == nil || !closeTo(*s.AvgOrderValue, 116.67) {
		t.Errorf("AvgOrderValue = %v, want 116.67 (350 over 3 orders)", s.AvgOrderValue)
	}
}

func TestGlobalSummaryEmptyFactTable(t *testing.T) {
	pool := setupFixture(t)
	ctx := context.Background()

	if _, err := pool.Exec(ctx, "DELETE FROM fact_sales"); err != nil {
		t.Fatalf("Failed to clear facts: %v", err)
	}

	s, err := reports.GlobalSummary(ctx, pool)
	if err != nil {
		t.Fatalf("GlobalSummary failed: %v", err)
	}
	if s.TotalOrders != 0 || s.TotalRevenue != 0 || s.TotalQuantity != 0 {
		t.Errorf("empty fact table should yield zero totals: %+v", s)
	}
	if s.AvgOrderValue != nil || s.FirstOrderDate != nil || s.MonthsSpanned != nil {
		t.Errorf("empty fact table should yield nil derived fields: %+v", s)
	}
}

func TestMonthlyTrendReconcilesWithSummary(t *testing.T) {
	pool := setupFixture(t)
	ctx := context.Background()

	rows, err := reports.MonthlyTrend(ctx, pool)
	if err != nil {
		t.Fatalf("MonthlyTrend failed: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("got %d monthly buckets, want 4", len(rows))
	}

	// Buckets ascend and exclude the dateless row, so their revenue sums
	// to the grand total minus that row.
	var sum float64
	for i, r := range rows {
		sum += r.Revenue
		if i > 0 {
			prev := rows[i-1]
			if r.Year < prev.Year || (r.Year == prev.Year && r.Month <= prev.Month) {
				t.Errorf("months out of order: %d-%d after %d-%d", r.Year, r.Month, prev.Year, prev.Month)
			}
		}
	}
	if !closeTo(sum, 650) {
		t.Errorf("monthly revenue sum = %v, want 650 (690 total minus 40 dateless)", sum)
	}

	jan := rows[0]
	if jan.Year != 2024 || jan.Month != 1 || !closeTo(jan.Revenue, 150) || jan.Customers != 1 || jan.Quantity != 3 {
		t.Errorf("January bucket = %+v", jan)
	}
}

func TestYearlyGrowth(t *testing.T) {
	pool := setupFixture(t)
	ctx := context.Background()

	rows, err := reports.YearlyGrowth(ctx, pool)
	if err != nil {
		t.Fatalf("YearlyGrowth failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d years, want 2", len(rows))
	}

	first := rows[0]
	if first.Year != 2024 || !closeTo(first.Revenue, 500) {
		t.Errorf("2024 row = %+v", first)
	}
	if first.PrevRevenue != nil || first.Change != nil || first.ChangePct != nil {
		t.Errorf("first year must have nil comparisons: %+v", first)
	}

	second := rows[1]
	if second.Year != 2025 || !closeTo(second.Revenue, 150) {
		t.Errorf("2025 row = %+v", second)
	}
	if second.Change == nil || !closeTo(*second.Change, -350) {
		t.Errorf("2025 change = %v, want -350", second.Change)
	}
	if second.ChangePct == nil || !closeTo(*second.ChangePct, -70.00) {
		t.Errorf("2025 change pct = %v, want -70.00", second.ChangePct)
	}
}

func TestRunningTotals(t *testing.T) {
	pool := setupFixture(t)
	ctx := context.Background()

	rows, err := reports.RunningTotals(ctx, pool)
	if err != nil {
		t.Fatalf("RunningTotals failed: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("got %d days, want 5", len(rows))
	}

	last := rows[len(rows)-1]
	if !closeTo(last.RunningTotal, 650) {
		t.Errorf("final running total = %v, want 650 (all dated revenue)", last.RunningTotal)
	}
	if !closeTo(rows[0].MovingAvg, 150.00) {
		t.Errorf("first moving avg = %v, want the day's own revenue 150.00", rows[0].MovingAvg)
	}

	var cumulative float64
	for _, r := range rows {
		cumulative += r.Revenue
		if !closeTo(r.RunningTotal, cumulative) {
			t.Errorf("running total at %s = %v, want %v", r.Date.Format("2006-01-02"), r.RunningTotal, cumulative)
		}
	}
}

func TestSharesSumToHundred(t *testing.T) {
	pool := setupFixture(t)
	ctx := context.Background()

	categoryRows, err := reports.CategoryShare(ctx, pool)
	if err != nil {
		t.Fatalf("CategoryShare failed: %v", err)
	}
	countryRows, err := reports.CountryShare(ctx, pool)
	if err != nil {
		t.Fatalf("CountryShare failed: %v", err)
	}

	if len(categoryRows) != 4 {
		t.Errorf("got %d category rows, want 4", len(categoryRows))
	}
	if !closeTo(categoryRows[0].Revenue, 340) {
		t.Errorf("top category revenue = %v, want 340 (Bikes)", categoryRows[0].Revenue)
	}

	// The country breakdown keeps the unresolved-customer group.
	if len(countryRows) != 3 {
		t.Errorf("got %d country rows, want 3 including the NULL group", len(countryRows))
	}
	foundNull := false
	for _, r := range countryRows {
		if r.Group == nil {
			foundNull = true
			if !closeTo(r.Revenue, 40) {
				t.Errorf("NULL country revenue = %v, want 40", r.Revenue)
			}
		}
	}
	if !foundNull {
		t.Error("country share dropped the unresolved-customer group")
	}

	for name, rows := range map[string][]reports.ShareRow{
		"category": categoryRows,
		"country":  countryRows,
	} {
		var total float64
		for _, r := range rows {
			if r.SharePct == nil {
				t.Fatalf("%s share has nil percentage", name)
			}
			total += *r.SharePct
		}
		if math.Abs(total-100) > 0.05 {
			t.Errorf("%s shares sum to %v, want 100 within rounding", name, total)
		}
	}
}

func TestCustomerSegments(t *testing.T) {
	pool := setupFixture(t)
	ctx := context.Background()

	rows, err := reports.CustomerSegments(ctx, pool)
	if err != nil {
		t.Fatalf("CustomerSegments failed: %v", err)
	}
	// Two resolved customers plus the NULL-key group.
	if len(rows) != 3 {
		t.Fatalf("got %d segment rows, want 3", len(rows))
	}
	for _, r := range rows {
		if want := reports.SegmentFor(r.TotalSpend); r.Segment != want {
			t.Errorf("segment for spend %v = %q, want %q", r.TotalSpend, r.Segment, want)
		}
	}
	if !closeTo(rows[0].TotalSpend, 425) {
		t.Errorf("top spender = %v, want 425", rows[0].TotalSpend)
	}

	summary, err := reports.SegmentSummary(ctx, pool)
	if err != nil {
		t.Fatalf("SegmentSummary failed: %v", err)
	}
	var customers int64
	var share float64
	for _, r := range summary {
		customers += r.Customers
		if r.SharePct != nil {
			share += *r.SharePct
		}
	}
	if customers != 3 {
		t.Errorf("segment summary covers %d customers, want 3", customers)
	}
	if math.Abs(share-100) > 0.05 {
		t.Errorf("segment shares sum to %v, want 100", share)
	}
}

func TestProductRankings(t *testing.T) {
	pool := setupFixture(t)
	ctx := context.Background()

	top, err := reports.TopProducts(ctx, pool, 10)
	if err != nil {
		t.Fatalf("TopProducts failed: %v", err)
	}
	if len(top) != 4 {
		t.Fatalf("got %d products, want 4", len(top))
	}
	if top[0].ProductName == nil || *top[0].ProductName != "Alpha Bike" || !closeTo(top[0].Revenue, 340) {
		t.Errorf("top product = %+v, want Alpha Bike at 340", top[0])
	}
	// The 75.00 tie breaks alphabetically.
	if *top[2].ProductName != "Delta Jersey" || *top[3].ProductName != "Gamma Chain" {
		t.Errorf("tie order = %v, %v; want Delta Jersey then Gamma Chain", *top[2].ProductName, *top[3].ProductName)
	}

	bottom, err := reports.BottomProducts(ctx, pool, 2)
	if err != nil {
		t.Fatalf("BottomProducts failed: %v", err)
	}
	if len(bottom) != 2 {
		t.Fatalf("got %d bottom products, want 2", len(bottom))
	}
	if !closeTo(bottom[0].Revenue, 75) || !closeTo(bottom[1].Revenue, 75) {
		t.Errorf("bottom revenues = %v, %v; want both 75", bottom[0].Revenue, bottom[1].Revenue)
	}
}

func TestTopCustomers(t *testing.T) {
	pool := setupFixture(t)
	ctx := context.Background()

	rows, err := reports.TopCustomers(ctx, pool, 2)
	if err != nil {
		t.Fatalf("TopCustomers failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d customers, want 2", len(rows))
	}
	first := rows[0]
	if first.CustomerName == nil || *first.CustomerName != "Bo Jones" {
		t.Errorf("top customer = %v, want Bo Jones", first.CustomerName)
	}
	if !closeTo(first.Revenue, 425) || first.Orders != 3 {
		t.Errorf("top customer revenue/orders = %v/%d, want 425/3", first.Revenue, first.Orders)
	}
}

func TestCategoryRankingTies(t *testing.T) {
	pool := setupFixture(t)
	ctx := context.Background()

	rows, err := reports.CategoryRanking(ctx, pool)
	if err != nil {
		t.Fatalf("CategoryRanking failed: %v", err)
	}
	// Each product tops its own category in this fixture.
	for _, r := range rows {
		if r.Rank != 1 {
			t.Errorf("product %v rank = %d, want 1", r.ProductName, r.Rank)
		}
	}
}

func TestCustomerReport(t *testing.T) {
	pool := setupFixture(t)
	ctx := context.Background()

	rows, err := reports.CustomerReport(ctx, pool, asOf)
	if err != nil {
		t.Fatalf("CustomerReport failed: %v", err)
	}
	// Dimension-driven: all three customers appear, orders or not.
	if len(rows) != 3 {
		t.Fatalf("got %d customers, want 3", len(rows))
	}

	byKey := make(map[int64]reports.CustomerReportRow, len(rows))
	for _, r := range rows {
		byKey[r.CustomerKey] = r
	}

	ada := byKey[1]
	if ada.TotalOrders != 2 || !closeTo(ada.TotalRevenue, 225) || ada.TotalQuantity != 4 {
		t.Errorf("Ada aggregates = %+v", ada)
	}
	if ada.Age == nil || *ada.Age != 35 {
		t.Errorf("Ada age = %v, want 35 as of %s", ada.Age, asOf.Format("2006-01-02"))
	}
	if ada.DaysSinceLastOrder == nil || *ada.DaysSinceLastOrder != 457 {
		t.Errorf("Ada days since last order = %v, want 457", ada.DaysSinceLastOrder)
	}
	if ada.Segment != reports.SegmentFor(225) {
		t.Errorf("Ada segment = %q", ada.Segment)
	}

	// Customer with no orders shows zero aggregates, not a missing row.
	cy := byKey[3]
	if cy.TotalOrders != 0 || cy.TotalRevenue != 0 || cy.TotalQuantity != 0 {
		t.Errorf("zero-order customer aggregates = %+v", cy)
	}
	if cy.LastOrderDate != nil || cy.DaysSinceLastOrder != nil {
		t.Errorf("zero-order customer should have nil recency: %+v", cy)
	}
	if cy.Segment != reports.SegmentFor(0) {
		t.Errorf("zero-order customer segment = %q", cy.Segment)
	}
}

func TestProductReport(t *testing.T) {
	pool := setupFixture(t)
	ctx := context.Background()

	rows, err := reports.ProductReport(ctx, pool)
	if err != nil {
		t.Fatalf("ProductReport failed: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("got %d products, want 4", len(rows))
	}

	byName := make(map[string]reports.ProductReportRow, len(rows))
	for _, r := range rows {
		byName[*r.ProductName] = r
	}

	alpha := byName["Alpha Bike"]
	if alpha.RevenueRank != 1 || !closeTo(alpha.TotalRevenue, 340) || alpha.UnitsSold != 4 {
		t.Errorf("Alpha Bike = %+v", alpha)
	}
	// profit = 340 - 50*4 units
	if !closeTo(alpha.Profit, 140) {
		t.Errorf("Alpha Bike profit = %v, want 140", alpha.Profit)
	}

	// Competition ranking: the 75.00 tie shares rank 3 and rank 4 is
	// skipped.
	gamma, delta := byName["Gamma Chain"], byName["Delta Jersey"]
	if gamma.RevenueRank != 3 || delta.RevenueRank != 3 {
		t.Errorf("tied ranks = %d, %d; want 3, 3", gamma.RevenueRank, delta.RevenueRank)
	}
	for _, r := range rows {
		if r.RevenueRank == 4 {
			t.Errorf("rank 4 should be skipped after a two-way tie at 3: %+v", r)
		}
	}
}

func TestReportViewsMatchReportFunctions(t *testing.T) {
	pool := setupFixture(t)
	ctx := context.Background()

	var viewCustomers int64
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM customer_report").Scan(&viewCustomers); err != nil {
		t.Fatalf("customer_report view query failed: %v", err)
	}
	if viewCustomers != 3 {
		t.Errorf("customer_report view has %d rows, want 3", viewCustomers)
	}

	var zeroOrderSegment string
	err := pool.QueryRow(ctx,
		"SELECT segment FROM customer_report WHERE customer_key = 3").Scan(&zeroOrderSegment)
	if err != nil {
		t.Fatalf("customer_report view lookup failed: %v", err)
	}
	if zeroOrderSegment != reports.SegmentFor(0) {
		t.Errorf("view segment for zero-order customer = %q", zeroOrderSegment)
	}

	var alphaRank int64
	err = pool.QueryRow(ctx,
		"SELECT revenue_rank FROM product_report WHERE product_name = 'Alpha Bike'").Scan(&alphaRank)
	if err != nil {
		t.Fatalf("product_report view lookup failed: %v", err)
	}
	if alphaRank != 1 {
		t.Errorf("view rank for Alpha Bike = %d, want 1", alphaRank)
	}
}

func TestRunAllAgainstFixture(t *testing.T) {
	pool := setupFixture(t)
	ctx := context.Background()

	opts := reports.DefaultOptions()
	opts.AsOf = asOf
	opts.Concurrency = 4

	outcomes := reports.RunAll(ctx, pool, opts)
	if len(outcomes) != len(reports.List()) {
		t.Fatalf("got %d outcomes, want %d", len(outcomes), len(reports.List()))
	}
	for _, o := range outcomes {
		if o.Err != nil {
			t.Errorf("report %s failed: %v", o.Name, o.Err)
			continue
		}
		if o.Result == nil {
			t.Errorf("report %s returned no result", o.Name)
		}
	}
}
