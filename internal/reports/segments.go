package reports

import (
	"context"
	"fmt"

	"github.com/salesmart/martreport/internal/db"
)

// Segmentation policy. Thresholds are inclusive lower bounds; they live
// here as named constants so policy changes never touch query text.
const (
	SegmentVIP     = "VIP"
	SegmentRegular = "Regular"
	SegmentNew     = "New"

	// VIPMinSpend is the minimum lifetime spend for the VIP segment.
	VIPMinSpend = 5000.0

	// RegularMinSpend is the minimum lifetime spend for the Regular
	// segment; anything below it is New.
	RegularMinSpend = 1000.0

	// movingAvgDays is the trailing moving-average window (current date
	// plus the preceding days) used by the running-total report.
	movingAvgDays = 7
)

// SegmentFor classifies a lifetime spend into a segment. This is the single
// Go-side statement of the policy; SegmentCaseSQL emits the equivalent SQL.
func SegmentFor(spend float64) string {
	switch {
	case spend >= VIPMinSpend:
		return SegmentVIP
	case spend >= RegularMinSpend:
		return SegmentRegular
	default:
		return SegmentNew
	}
}

// SegmentCaseSQL builds the CASE expression classifying the given spend
// expression. Used both by the segmentation queries and the report view
// DDL so the two cannot drift.
func SegmentCaseSQL(spendExpr string) string {
	return fmt.Sprintf(
		"CASE WHEN %[1]s >= %[2]g THEN '%[4]s' WHEN %[1]s >= %[3]g THEN '%[5]s' ELSE '%[6]s' END",
		spendExpr, VIPMinSpend, RegularMinSpend,
		SegmentVIP, SegmentRegular, SegmentNew,
	)
}

// CustomerSegmentRow is one customer's lifetime spend, order count and
// segment classification.
type CustomerSegmentRow struct {
	CustomerKey  *int64  `json:"customer_key"`
	CustomerName *string `json:"customer_name"`
	TotalSpend   float64 `json:"total_spend"`
	Orders       int64   `json:"orders"`
	Segment      string  `json:"segment"`
}

var customerSegmentsSQL = fmt.Sprintf(`
SELECT
    c.customer_key,
    TRIM(c.first_name || ' ' || c.last_name) AS customer_name,
    SUM(f.sales_amount) AS total_spend,
    COUNT(DISTINCT f.order_number) AS orders,
    %s AS segment
FROM fact_sales f
LEFT JOIN dim_customers c ON c.customer_key = f.customer_key
GROUP BY c.customer_key, c.first_name, c.last_name
ORDER BY total_spend DESC, c.customer_key
`, SegmentCaseSQL("SUM(f.sales_amount)"))

// CustomerSegments sums each customer's lifetime spend and order count and
// classifies them into the fixed spend bands. Fact rows whose customer key
// does not resolve are retained as a single null-attribute group.
func CustomerSegments(ctx context.Context, q db.Querier) ([]CustomerSegmentRow, error) {
	rows, err := q.Query(ctx, customerSegmentsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CustomerSegmentRow
	for rows.Next() {
		var r CustomerSegmentRow
		if err := rows.Scan(&r.CustomerKey, &r.CustomerName, &r.TotalSpend, &r.Orders, &r.Segment); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SegmentSummaryRow counts the customers in one segment and its share of
// the total customer count.
type SegmentSummaryRow struct {
	Segment   string   `json:"segment"`
	Customers int64    `json:"customers"`
	SharePct  *float64 `json:"share_pct"`
}

var segmentSummarySQL = fmt.Sprintf(`
WITH spend AS (
    SELECT customer_key, SUM(sales_amount) AS total_spend
    FROM fact_sales
    GROUP BY customer_key
)
SELECT
    %s AS segment,
    COUNT(*) AS customers,
    ROUND(COUNT(*) * 100.0 / NULLIF(SUM(COUNT(*)) OVER (), 0), 2) AS share_pct
FROM spend
GROUP BY 1
ORDER BY customers DESC, segment
`, SegmentCaseSQL("total_spend"))

// SegmentSummary counts customers per segment and each segment's share of
// the total. The total is the sum of the per-segment counts, so the shares
// add up to 100.00 within rounding.
func SegmentSummary(ctx context.Context, q db.Querier) ([]SegmentSummaryRow, error) {
	rows, err := q.Query(ctx, segmentSummarySQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SegmentSummaryRow
	for rows.Next() {
		var r SegmentSummaryRow
		if err := rows.Scan(&r.Segment, &r.Customers, &r.SharePct); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func init() {
	Register(Definition{
		Name:        "customer-segments",
		Description: "Lifetime spend, order count and spend segment per customer",
		Run: func(ctx context.Context, q db.Querier, _ Options) (*Result, error) {
			data, err := CustomerSegments(ctx, q)
			if err != nil {
				return nil, err
			}
			res := &Result{
				Name:    "customer-segments",
				Columns: []string{"customer_key", "customer_name", "total_spend", "orders", "segment"},
				Data:    data,
			}
			for _, r := range data {
				key := ""
				if r.CustomerKey != nil {
					key = fmtInt(*r.CustomerKey)
				}
				res.Rows = append(res.Rows, []string{
					key, fmtString(r.CustomerName),
					fmtFloat(r.TotalSpend), fmtInt(r.Orders), r.Segment,
				})
			}
			return res, nil
		},
	})

	Register(Definition{
		Name:        "segment-summary",
		Description: "Customer count and percentage share per spend segment",
		Run: func(ctx context.Context, q db.Querier, _ Options) (*Result, error) {
			data, err := SegmentSummary(ctx, q)
			if err != nil {
				return nil, err
			}
			res := &Result{
				Name:    "segment-summary",
				Columns: []string{"segment", "customers", "share_pct"},
				Data:    data,
			}
			for _, r := range data {
				res.Rows = append(res.Rows, []string{
					r.Segment, fmtInt(r.Customers), fmtFloatPtr(r.SharePct),
				})
			}
			return res, nil
		},
	})
}
