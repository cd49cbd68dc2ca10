package reports

import (
	"context"

	"github.com/salesmart/martreport/internal/db"
)

// ProductReportRow is one row of the product report: one row per product,
// outer-joined to facts, with computed profit, margin and a global revenue
// rank (ties share a rank, the next distinct value skips the tied count).
type ProductReportRow struct {
	ProductKey      int64    `json:"product_key"`
	ProductNumber   *string  `json:"product_number"`
	ProductName     *string  `json:"product_name"`
	Category        *string  `json:"category"`
	Subcategory     *string  `json:"subcategory"`
	Cost            *float64 `json:"cost"`
	TotalOrders     int64    `json:"total_orders"`
	UnitsSold       int64    `json:"units_sold"`
	TotalRevenue    float64  `json:"total_revenue"`
	Profit          float64  `json:"profit"`
	ProfitMarginPct *float64 `json:"profit_margin_pct"`
	RevenueRank     int64    `json:"revenue_rank"`
}

// ProductReportSelect builds the product report SELECT, shared with the
// product_report view DDL.
func ProductReportSelect() string {
	return `
SELECT
    p.product_key,
    p.product_number,
    p.product_name,
    p.category,
    p.subcategory,
    p.cost,
    COUNT(DISTINCT f.order_number) AS total_orders,
    COALESCE(SUM(f.quantity), 0) AS units_sold,
    COALESCE(SUM(f.sales_amount), 0) AS total_revenue,
    ROUND(COALESCE(SUM(f.sales_amount), 0)
        - COALESCE(p.cost, 0) * COALESCE(SUM(f.quantity), 0), 2) AS profit,
    ROUND((COALESCE(SUM(f.sales_amount), 0)
        - COALESCE(p.cost, 0) * COALESCE(SUM(f.quantity), 0))
        / NULLIF(SUM(f.sales_amount), 0) * 100, 2) AS profit_margin_pct,
    RANK() OVER (ORDER BY COALESCE(SUM(f.sales_amount), 0) DESC) AS revenue_rank
FROM dim_products p
LEFT JOIN fact_sales f ON f.product_key = p.product_key
GROUP BY p.product_key, p.product_number, p.product_name,
    p.category, p.subcategory, p.cost
ORDER BY revenue_rank, p.product_name`
}

// ProductReport computes the product report.
func ProductReport(ctx context.Context, q db.Querier) ([]ProductReportRow, error) {
	rows, err := q.Query(ctx, ProductReportSelect())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ProductReportRow
	for rows.Next() {
		var r ProductReportRow
		if err := rows.Scan(&r.ProductKey, &r.ProductNumber, &r.ProductName,
			&r.Category, &r.Subcategory, &r.Cost, &r.TotalOrders, &r.UnitsSold,
			&r.TotalRevenue, &r.Profit, &r.ProfitMarginPct, &r.RevenueRank); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func init() {
	Register(Definition{
		Name:        "product-report",
		Description: "Per-product profile: sales, profit, margin and global revenue rank",
		Run: func(ctx context.Context, q db.Querier, _ Options) (*Result, error) {
			data, err := ProductReport(ctx, q)
			if err != nil {
				return nil, err
			}
			res := &Result{
				Name: "product-report",
				Columns: []string{
					"product_key", "product_number", "product_name", "category",
					"subcategory", "cost", "total_orders", "units_sold",
					"total_revenue", "profit", "profit_margin_pct", "revenue_rank",
				},
				Data: data,
			}
			for _, r := range data {
				res.Rows = append(res.Rows, []string{
					fmtInt(r.ProductKey), fmtString(r.ProductNumber),
					fmtString(r.ProductName), fmtString(r.Category),
					fmtString(r.Subcategory), fmtFloatPtr(r.Cost),
					fmtInt(r.TotalOrders), fmtInt(r.UnitsSold),
					fmtFloat(r.TotalRevenue), fmtFloat(r.Profit),
					fmtFloatPtr(r.ProfitMarginPct), fmtInt(r.RevenueRank),
				})
			}
			return res, nil
		},
	})
}
