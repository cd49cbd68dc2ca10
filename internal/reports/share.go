package reports

import (
	"context"

	"github.com/salesmart/martreport/internal/db"
)

// ShareRow is one group's revenue and its percentage of the grand total.
// The grand total is the window sum of the group sums, so shares always add
// up to 100.00 within rounding.
type ShareRow struct {
	Group    *string  `json:"group"`
	Revenue  float64  `json:"revenue"`
	SharePct *float64 `json:"share_pct"`
}

const categoryShareSQL = `
WITH grouped AS (
    SELECT p.category AS grp, SUM(f.sales_amount) AS revenue
    FROM fact_sales f
    LEFT JOIN dim_products p ON p.product_key = f.product_key
    GROUP BY p.category
)
SELECT
    grp,
    revenue,
    ROUND(revenue / NULLIF(SUM(revenue) OVER (), 0) * 100, 2) AS share_pct
FROM grouped
ORDER BY revenue DESC, grp
`

// CategoryShare expresses each product category's revenue as a percentage
// of total revenue.
func CategoryShare(ctx context.Context, q db.Querier) ([]ShareRow, error) {
	return shareRows(ctx, q, categoryShareSQL)
}

const countryShareSQL = `
WITH grouped AS (
    SELECT c.country AS grp, SUM(f.sales_amount) AS revenue
    FROM fact_sales f
    LEFT JOIN dim_customers c ON c.customer_key = f.customer_key
    GROUP BY c.country
)
SELECT
    grp,
    revenue,
    ROUND(revenue / NULLIF(SUM(revenue) OVER (), 0) * 100, 2) AS share_pct
FROM grouped
ORDER BY revenue DESC, grp
`

// CountryShare expresses each customer country's revenue as a percentage
// of total revenue.
func CountryShare(ctx context.Context, q db.Querier) ([]ShareRow, error) {
	return shareRows(ctx, q, countryShareSQL)
}

func shareRows(ctx context.Context, q db.Querier, sql string) ([]ShareRow, error) {
	rows, err := q.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ShareRow
	for rows.Next() {
		var r ShareRow
		if err := rows.Scan(&r.Group, &r.Revenue, &r.SharePct); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func shareResult(name, groupCol string, data []ShareRow) *Result {
	res := &Result{
		Name:    name,
		Columns: []string{groupCol, "revenue", "share_pct"},
		Data:    data,
	}
	for _, r := range data {
		res.Rows = append(res.Rows, []string{
			fmtString(r.Group), fmtFloat(r.Revenue), fmtFloatPtr(r.SharePct),
		})
	}
	return res
}

func init() {
	Register(Definition{
		Name:        "category-share",
		Description: "Each product category's revenue share of total revenue",
		Run: func(ctx context.Context, q db.Querier, _ Options) (*Result, error) {
			data, err := CategoryShare(ctx, q)
			if err != nil {
				return nil, err
			}
			return shareResult("category-share", "category", data), nil
		},
	})

	Register(Definition{
		Name:        "country-share",
		Description: "Each customer country's revenue share of total revenue",
		Run: func(ctx context.Context, q db.Querier, _ Options) (*Result, error) {
			data, err := CountryShare(ctx, q)
			if err != nil {
				return nil, err
			}
			return shareResult("country-share", "country", data), nil
		},
	})
}
