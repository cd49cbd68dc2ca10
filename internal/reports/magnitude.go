package reports

import (
	"context"

	"github.com/salesmart/martreport/internal/db"
)

// CountryRow counts customers and revenue per country. Driven from the
// customer dimension so countries with registered but inactive customers
// still appear.
type CountryRow struct {
	Country   *string `json:"country"`
	Customers int64   `json:"customers"`
	Revenue   float64 `json:"revenue"`
}

const customersByCountrySQL = `
SELECT
    c.country,
    COUNT(DISTINCT c.customer_key) AS customers,
    COALESCE(SUM(f.sales_amount), 0) AS revenue
FROM dim_customers c
LEFT JOIN fact_sales f ON f.customer_key = c.customer_key
GROUP BY c.country
ORDER BY customers DESC, c.country
`

// CustomersByCountry counts customers and total revenue per country.
func CustomersByCountry(ctx context.Context, q db.Querier) ([]CountryRow, error) {
	rows, err := q.Query(ctx, customersByCountrySQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CountryRow
	for rows.Next() {
		var r CountryRow
		if err := rows.Scan(&r.Country, &r.Customers, &r.Revenue); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GenderRow aggregates order and revenue magnitude per customer gender.
type GenderRow struct {
	Gender  *string `json:"gender"`
	Orders  int64   `json:"orders"`
	Revenue float64 `json:"revenue"`
}

const revenueByGenderSQL = `
SELECT
    c.gender,
    COUNT(DISTINCT f.order_number) AS orders,
    SUM(f.sales_amount) AS revenue
FROM fact_sales f
LEFT JOIN dim_customers c ON c.customer_key = f.customer_key
GROUP BY c.gender
ORDER BY revenue DESC, c.gender
`

// RevenueByGender sums orders and revenue per customer gender.
func RevenueByGender(ctx context.Context, q db.Querier) ([]GenderRow, error) {
	rows, err := q.Query(ctx, revenueByGenderSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GenderRow
	for rows.Next() {
		var r GenderRow
		if err := rows.Scan(&r.Gender, &r.Orders, &r.Revenue); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func init() {
	Register(Definition{
		Name:        "customers-by-country",
		Description: "Customer count and total revenue per country",
		Run: func(ctx context.Context, q db.Querier, _ Options) (*Result, error) {
			data, err := CustomersByCountry(ctx, q)
			if err != nil {
				return nil, err
			}
			res := &Result{
				Name:    "customers-by-country",
				Columns: []string{"country", "customers", "revenue"},
				Data:    data,
			}
			for _, r := range data {
				res.Rows = append(res.Rows, []string{
					fmtString(r.Country), fmtInt(r.Customers), fmtFloat(r.Revenue),
				})
			}
			return res, nil
		},
	})

	Register(Definition{
		Name:        "revenue-by-gender",
		Description: "Order count and revenue per customer gender",
		Run: func(ctx context.Context, q db.Querier, _ Options) (*Result, error) {
			data, err := RevenueByGender(ctx, q)
			if err != nil {
				return nil, err
			}
			res := &Result{
				Name:    "revenue-by-gender",
				Columns: []string{"gender", "orders", "revenue"},
				Data:    data,
			}
			for _, r := range data {
				res.Rows = append(res.Rows, []string{
					fmtString(r.Gender), fmtInt(r.Orders), fmtFloat(r.Revenue),
				})
			}
			return res, nil
		},
	})
}
