package reports

import (
	"context"
	"fmt"

	"github.com/salesmart/martreport/internal/db"
)

// ProductRevenueRow is one product's revenue aggregates for the top/bottom
// ranking reports. Dimension attributes are nil for fact rows whose product
// key did not resolve.
type ProductRevenueRow struct {
	Category      *string  `json:"category"`
	Subcategory   *string  `json:"subcategory"`
	ProductName   *string  `json:"product_name"`
	Revenue       float64  `json:"revenue"`
	Units         int64    `json:"units"`
	Orders        int64    `json:"orders"`
	AvgOrderValue *float64 `json:"avg_order_value"`
}

// Revenue ties are broken by product name so output order is deterministic.
const productRevenueSQL = `
SELECT
    p.category,
    p.subcategory,
    p.product_name,
    SUM(f.sales_amount) AS revenue,
    SUM(f.quantity) AS units,
    COUNT(DISTINCT f.order_number) AS orders,
    ROUND(SUM(f.sales_amount) / NULLIF(COUNT(DISTINCT f.order_number), 0), 2) AS avg_order_value
FROM fact_sales f
LEFT JOIN dim_products p ON p.product_key = f.product_key
GROUP BY p.category, p.subcategory, p.product_name
ORDER BY revenue %s, p.product_name
LIMIT $1
`

func productRevenue(ctx context.Context, q db.Querier, n int, ascending bool) ([]ProductRevenueRow, error) {
	direction := "DESC"
	if ascending {
		direction = "ASC"
	}

	rows, err := q.Query(ctx, fmt.Sprintf(productRevenueSQL, direction), n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ProductRevenueRow
	for rows.Next() {
		var r ProductRevenueRow
		if err := rows.Scan(&r.Category, &r.Subcategory, &r.ProductName,
			&r.Revenue, &r.Units, &r.Orders, &r.AvgOrderValue); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// TopProducts returns the n highest-revenue products.
func TopProducts(ctx context.Context, q db.Querier, n int) ([]ProductRevenueRow, error) {
	return productRevenue(ctx, q, n, false)
}

// BottomProducts returns the n lowest-revenue products.
func BottomProducts(ctx context.Context, q db.Querier, n int) ([]ProductRevenueRow, error) {
	return productRevenue(ctx, q, n, true)
}

// CustomerRevenueRow is one customer's revenue aggregates for the
// top-customers report.
type CustomerRevenueRow struct {
	CustomerKey   *int64   `json:"customer_key"`
	CustomerName  *string  `json:"customer_name"`
	Country       *string  `json:"country"`
	Revenue       float64  `json:"revenue"`
	Units         int64    `json:"units"`
	Orders        int64    `json:"orders"`
	AvgOrderValue *float64 `json:"avg_order_value"`
}

const topCustomersSQL = `
SELECT
    c.customer_key,
    TRIM(c.first_name || ' ' || c.last_name) AS customer_name,
    c.country,
    SUM(f.sales_amount) AS revenue,
    SUM(f.quantity) AS units,
    COUNT(DISTINCT f.order_number) AS orders,
    ROUND(SUM(f.sales_amount) / NULLIF(COUNT(DISTINCT f.order_number), 0), 2) AS avg_order_value
FROM fact_sales f
LEFT JOIN dim_customers c ON c.customer_key = f.customer_key
GROUP BY c.customer_key, c.first_name, c.last_name, c.country
ORDER BY revenue DESC, customer_name
LIMIT $1
`

// TopCustomers returns the n highest-revenue customers.
func TopCustomers(ctx context.Context, q db.Querier, n int) ([]CustomerRevenueRow, error) {
	rows, err := q.Query(ctx, topCustomersSQL, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CustomerRevenueRow
	for rows.Next() {
		var r CustomerRevenueRow
		if err := rows.Scan(&r.CustomerKey, &r.CustomerName, &r.Country,
			&r.Revenue, &r.Units, &r.Orders, &r.AvgOrderValue); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CategoryRankingRow ranks one product's revenue within its category.
// RANK() semantics: tied revenues share a rank and the next distinct value
// skips the tied count (competition ranking, not dense ranking).
type CategoryRankingRow struct {
	Category    *string `json:"category"`
	ProductName *string `json:"product_name"`
	Revenue     float64 `json:"revenue"`
	Rank        int64   `json:"rank"`
}

const categoryRankingSQL = `
SELECT
    p.category,
    p.product_name,
    SUM(f.sales_amount) AS revenue,
    RANK() OVER (PARTITION BY p.category ORDER BY SUM(f.sales_amount) DESC) AS rank
FROM fact_sales f
LEFT JOIN dim_products p ON p.product_key = f.product_key
GROUP BY p.category, p.product_name
ORDER BY p.category, rank, p.product_name
`

// CategoryRanking ranks products by revenue within each category.
func CategoryRanking(ctx context.Context, q db.Querier) ([]CategoryRankingRow, error) {
	rows, err := q.Query(ctx, categoryRankingSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CategoryRankingRow
	for rows.Next() {
		var r CategoryRankingRow
		if err := rows.Scan(&r.Category, &r.ProductName, &r.Revenue, &r.Rank); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func productRevenueResult(name string, data []ProductRevenueRow) *Result {
	res := &Result{
		Name: name,
		Columns: []string{
			"category", "subcategory", "product_name",
			"revenue", "units", "orders", "avg_order_value",
		},
		Data: data,
	}
	for _, r := range data {
		res.Rows = append(res.Rows, []string{
			fmtString(r.Category), fmtString(r.Subcategory), fmtString(r.ProductName),
			fmtFloat(r.Revenue), fmtInt(r.Units), fmtInt(r.Orders),
			fmtFloatPtr(r.AvgOrderValue),
		})
	}
	return res
}

func init() {
	Register(Definition{
		Name:        "top-products",
		Description: "Highest-revenue products with units, orders and average order value",
		Run: func(ctx context.Context, q db.Querier, opts Options) (*Result, error) {
			data, err := TopProducts(ctx, q, opts.TopN)
			if err != nil {
				return nil, err
			}
			return productRevenueResult("top-products", data), nil
		},
	})

	Register(Definition{
		Name:        "bottom-products",
		Description: "Lowest-revenue products with units, orders and average order value",
		Run: func(ctx context.Context, q db.Querier, opts Options) (*Result, error) {
			data, err := BottomProducts(ctx, q, opts.TopN)
			if err != nil {
				return nil, err
			}
			return productRevenueResult("bottom-products", data), nil
		},
	})

	Register(Definition{
		Name:        "top-customers",
		Description: "Highest-revenue customers with units, orders and average order value",
		Run: func(ctx context.Context, q db.Querier, opts Options) (*Result, error) {
			data, err := TopCustomers(ctx, q, opts.TopN)
			if err != nil {
				return nil, err
			}
			res := &Result{
				Name: "top-customers",
				Columns: []string{
					"customer_key", "customer_name", "country",
					"revenue", "units", "orders", "avg_order_value",
				},
				Data: data,
			}
			for _, r := range data {
				key := ""
				if r.CustomerKey != nil {
					key = fmtInt(*r.CustomerKey)
				}
				res.Rows = append(res.Rows, []string{
					key, fmtString(r.CustomerName), fmtString(r.Country),
					fmtFloat(r.Revenue), fmtInt(r.Units), fmtInt(r.Orders),
					fmtFloatPtr(r.AvgOrderValue),
				})
			}
			return res, nil
		},
	})

	Register(Definition{
		Name:        "category-ranking",
		Description: "Products ranked by revenue within their category (ties share rank)",
		Run: func(ctx context.Context, q db.Querier, _ Options) (*Result, error) {
			data, err := CategoryRanking(ctx, q)
			if err != nil {
				return nil, err
			}
			res := &Result{
				Name:    "category-ranking",
				Columns: []string{"category", "product_name", "revenue", "rank"},
				Data:    data,
			}
			for _, r := range data {
				res.Rows = append(res.Rows, []string{
					fmtString(r.Category), fmtString(r.ProductName),
					fmtFloat(r.Revenue), fmtInt(r.Rank),
				})
			}
			return res, nil
		},
	})
}
