package reports

import (
	"context"
	"time"

	"github.com/salesmart/martreport/internal/db"
)

// Summary is the ungrouped overview of the whole fact table. Over an empty
// fact table the counts are zero and the remaining fields are nil, matching
// SUM/AVG-over-empty-set semantics.
type Summary struct {
	TotalCustomers int64      `json:"total_customers"`
	TotalProducts  int64      `json:"total_products"`
	TotalOrders    int64      `json:"total_orders"`
	TotalRevenue   float64    `json:"total_revenue"`
	TotalQuantity  int64      `json:"total_quantity"`
	AvgOrderValue  *float64   `json:"avg_order_value"`
	FirstOrderDate *time.Time `json:"first_order_date"`
	LastOrderDate  *time.Time `json:"last_order_date"`
	MonthsSpanned  *int       `json:"months_spanned"`
}

const summarySQL = `
SELECT
    COUNT(DISTINCT customer_key) AS total_customers,
    COUNT(DISTINCT product_key) AS total_products,
    COUNT(DISTINCT order_number) AS total_orders,
    COALESCE(SUM(sales_amount), 0) AS total_revenue,
    COALESCE(SUM(quantity), 0) AS total_quantity,
    ROUND(SUM(sales_amount) / NULLIF(COUNT(DISTINCT order_number), 0), 2) AS avg_order_value,
    MIN(order_date) AS first_order_date,
    MAX(order_date) AS last_order_date,
    (EXTRACT(YEAR FROM AGE(MAX(order_date), MIN(order_date))) * 12
        + EXTRACT(MONTH FROM AGE(MAX(order_date), MIN(order_date))))::int AS months_spanned
FROM fact_sales
`

// GlobalSummary computes distinct customer/product/order counts, revenue
// and quantity totals, the average order value, and the date range covered
// by the fact table.
func GlobalSummary(ctx context.Context, q db.Querier) (*Summary, error) {
	var s Summary
	err := q.QueryRow(ctx, summarySQL).Scan(
		&s.TotalCustomers,
		&s.TotalProducts,
		&s.TotalOrders,
		&s.TotalRevenue,
		&s.TotalQuantity,
		&s.AvgOrderValue,
		&s.FirstOrderDate,
		&s.LastOrderDate,
		&s.MonthsSpanned,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func summaryResult(s *Summary) *Result {
	return &Result{
		Name: "summary",
		Columns: []string{
			"total_customers", "total_products", "total_orders",
			"total_revenue", "total_quantity", "avg_order_value",
			"first_order_date", "last_order_date", "months_spanned",
		},
		Rows: [][]string{{
			fmtInt(s.TotalCustomers),
			fmtInt(s.TotalProducts),
			fmtInt(s.TotalOrders),
			fmtFloat(s.TotalRevenue),
			fmtInt(s.TotalQuantity),
			fmtFloatPtr(s.AvgOrderValue),
			fmtDatePtr(s.FirstOrderDate),
			fmtDatePtr(s.LastOrderDate),
			fmtIntPtr(s.MonthsSpanned),
		}},
		Data: s,
	}
}

func init() {
	Register(Definition{
		Name:        "summary",
		Description: "Overview of the fact table: customers, products, orders, revenue, date range",
		Run: func(ctx context.Context, q db.Querier, _ Options) (*Result, error) {
			s, err := GlobalSummary(ctx, q)
			if err != nil {
				return nil, err
			}
			return summaryResult(s), nil
		},
	})
}
