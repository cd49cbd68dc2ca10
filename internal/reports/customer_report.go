package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/salesmart/martreport/internal/db"
)

// CustomerReportRow is one row of the customer report: one row per
// customer, outer-joined to facts so customers with no orders appear with
// zero aggregates and a nil last order date.
type CustomerReportRow struct {
	CustomerKey       int64      `json:"customer_key"`
	CustomerNumber    *string    `json:"customer_number"`
	CustomerName      *string    `json:"customer_name"`
	Country           *string    `json:"country"`
	Gender            *string    `json:"gender"`
	Age               *int       `json:"age"`
	TotalOrders       int64      `json:"total_orders"`
	TotalRevenue      float64    `json:"total_revenue"`
	TotalQuantity     int64      `json:"total_quantity"`
	LastOrderDate     *time.Time `json:"last_order_date"`
	DaysSinceLastOrder *int      `json:"days_since_last_order"`
	Segment           string     `json:"segment"`
}

// CustomerReportSelect builds the customer report SELECT with the given
// evaluation-date expression. The report functions pass a bind parameter;
// the view DDL passes CURRENT_DATE since views cannot take parameters.
func CustomerReportSelect(evalDateExpr string) string {
	return fmt.Sprintf(`
SELECT
    c.customer_key,
    c.customer_number,
    TRIM(c.first_name || ' ' || c.last_name) AS customer_name,
    c.country,
    c.gender,
    EXTRACT(YEAR FROM AGE(%[1]s, c.birthdate))::int AS age,
    COUNT(DISTINCT f.order_number) AS total_orders,
    COALESCE(SUM(f.sales_amount), 0) AS total_revenue,
    COALESCE(SUM(f.quantity), 0) AS total_quantity,
    MAX(f.order_date) AS last_order_date,
    %[1]s - MAX(f.order_date) AS days_since_last_order,
    %[2]s AS segment
FROM dim_customers c
LEFT JOIN fact_sales f ON f.customer_key = c.customer_key
GROUP BY c.customer_key, c.customer_number, c.first_name, c.last_name,
    c.country, c.gender, c.birthdate
ORDER BY total_revenue DESC, c.customer_key`,
		evalDateExpr, SegmentCaseSQL("COALESCE(SUM(f.sales_amount), 0)"))
}

// CustomerReport computes the customer report with age and days-since-last-
// order evaluated against the given clock.
func CustomerReport(ctx context.Context, q db.Querier, asOf time.Time) ([]CustomerReportRow, error) {
	rows, err := q.Query(ctx, CustomerReportSelect("$1::date"), asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CustomerReportRow
	for rows.Next() {
		var r CustomerReportRow
		if err := rows.Scan(&r.CustomerKey, &r.CustomerNumber, &r.CustomerName,
			&r.Country, &r.Gender, &r.Age, &r.TotalOrders, &r.TotalRevenue,
			&r.TotalQuantity, &r.LastOrderDate, &r.DaysSinceLastOrder,
			&r.Segment); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func init() {
	Register(Definition{
		Name:        "customer-report",
		Description: "Per-customer profile: age, orders, revenue, recency, spend segment",
		Run: func(ctx context.Context, q db.Querier, opts Options) (*Result, error) {
			data, err := CustomerReport(ctx, q, opts.AsOf)
			if err != nil {
				return nil, err
			}
			res := &Result{
				Name: "customer-report",
				Columns: []string{
					"customer_key", "customer_number", "customer_name",
					"country", "gender", "age", "total_orders", "total_revenue",
					"total_quantity", "last_order_date", "days_since_last_order",
					"segment",
				},
				Data: data,
			}
			for _, r := range data {
				res.Rows = append(res.Rows, []string{
					fmtInt(r.CustomerKey), fmtString(r.CustomerNumber),
					fmtString(r.CustomerName), fmtString(r.Country),
					fmtString(r.Gender), fmtIntPtr(r.Age),
					fmtInt(r.TotalOrders), fmtFloat(r.TotalRevenue),
					fmtInt(r.TotalQuantity), fmtDatePtr(r.LastOrderDate),
					fmtIntPtr(r.DaysSinceLastOrder), r.Segment,
				})
			}
			return res, nil
		},
	})
}
