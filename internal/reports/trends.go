package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/salesmart/martreport/internal/db"
)

// MonthlyTrendRow is one (year, month) revenue bucket. Fact rows without an
// order date are excluded from all date-bucketed reports.
type MonthlyTrendRow struct {
	Year      int     `json:"year"`
	Month     int     `json:"month"`
	Revenue   float64 `json:"revenue"`
	Customers int64   `json:"customers"`
	Quantity  int64   `json:"quantity"`
}

const monthlyTrendSQL = `
SELECT
    EXTRACT(YEAR FROM order_date)::int AS year,
    EXTRACT(MONTH FROM order_date)::int AS month,
    SUM(sales_amount) AS revenue,
    COUNT(DISTINCT customer_key) AS customers,
    SUM(quantity) AS quantity
FROM fact_sales
WHERE order_date IS NOT NULL
GROUP BY 1, 2
ORDER BY 1, 2
`

// MonthlyTrend aggregates revenue, distinct customers and quantity per
// calendar month, ascending.
func MonthlyTrend(ctx context.Context, q db.Querier) ([]MonthlyTrendRow, error) {
	rows, err := q.Query(ctx, monthlyTrendSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MonthlyTrendRow
	for rows.Next() {
		var r MonthlyTrendRow
		if err := rows.Scan(&r.Year, &r.Month, &r.Revenue, &r.Customers, &r.Quantity); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// YearlyGrowthRow compares one year's revenue to the previous year's.
// The first year has no prior value; the growth percentage is nil whenever
// the prior year's revenue is zero or absent.
type YearlyGrowthRow struct {
	Year        int      `json:"year"`
	Revenue     float64  `json:"revenue"`
	PrevRevenue *float64 `json:"prev_revenue"`
	Change      *float64 `json:"change"`
	ChangePct   *float64 `json:"change_pct"`
}

const yearlyGrowthSQL = `
WITH yearly AS (
    SELECT
        EXTRACT(YEAR FROM order_date)::int AS year,
        SUM(sales_amount) AS revenue
    FROM fact_sales
    WHERE order_date IS NOT NULL
    GROUP BY 1
)
SELECT
    year,
    revenue,
    LAG(revenue) OVER (ORDER BY year) AS prev_revenue,
    revenue - LAG(revenue) OVER (ORDER BY year) AS change,
    ROUND((revenue - LAG(revenue) OVER (ORDER BY year))
        / NULLIF(LAG(revenue) OVER (ORDER BY year), 0) * 100, 2) AS change_pct
FROM yearly
ORDER BY year
`

// YearlyGrowth computes year-over-year revenue with absolute and percentage
// change against the previous year in the sequence.
func YearlyGrowth(ctx context.Context, q db.Querier) ([]YearlyGrowthRow, error) {
	rows, err := q.Query(ctx, yearlyGrowthSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []YearlyGrowthRow
	for rows.Next() {
		var r YearlyGrowthRow
		if err := rows.Scan(&r.Year, &r.Revenue, &r.PrevRevenue, &r.Change, &r.ChangePct); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RunningTotalRow carries the cumulative revenue up to a calendar date and
// a trailing moving average over the current date and the preceding
// movingAvgDays-1 dates (fewer at the start of the series).
type RunningTotalRow struct {
	Date         time.Time `json:"date"`
	Revenue      float64   `json:"revenue"`
	RunningTotal float64   `json:"running_total"`
	MovingAvg    float64   `json:"moving_avg"`
}

// Frame offsets cannot be bound parameters, so the window size is
// interpolated from the movingAvgDays constant.
var runningTotalSQL = fmt.Sprintf(`
WITH daily AS (
    SELECT order_date, SUM(sales_amount) AS revenue
    FROM fact_sales
    WHERE order_date IS NOT NULL
    GROUP BY order_date
)
SELECT
    order_date,
    revenue,
    SUM(revenue) OVER (ORDER BY order_date) AS running_total,
    ROUND(AVG(revenue) OVER (
        ORDER BY order_date
        ROWS BETWEEN %d PRECEDING AND CURRENT ROW), 2) AS moving_avg
FROM daily
ORDER BY order_date
`, movingAvgDays-1)

// RunningTotals computes the cumulative daily revenue and the trailing
// moving average over the window defined by movingAvgDays.
func RunningTotals(ctx context.Context, q db.Querier) ([]RunningTotalRow, error) {
	rows, err := q.Query(ctx, runningTotalSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunningTotalRow
	for rows.Next() {
		var r RunningTotalRow
		if err := rows.Scan(&r.Date, &r.Revenue, &r.RunningTotal, &r.MovingAvg); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func init() {
	Register(Definition{
		Name:        "monthly-trend",
		Description: "Revenue, distinct customers and quantity per calendar month",
		Run: func(ctx context.Context, q db.Querier, _ Options) (*Result, error) {
			data, err := MonthlyTrend(ctx, q)
			if err != nil {
				return nil, err
			}
			res := &Result{
				Name:    "monthly-trend",
				Columns: []string{"year", "month", "revenue", "customers", "quantity"},
				Data:    data,
			}
			for _, r := range data {
				res.Rows = append(res.Rows, []string{
					fmtInt(int64(r.Year)), fmtInt(int64(r.Month)),
					fmtFloat(r.Revenue), fmtInt(r.Customers), fmtInt(r.Quantity),
				})
			}
			return res, nil
		},
	})

	Register(Definition{
		Name:        "yearly-growth",
		Description: "Year-over-year revenue with absolute and percentage change",
		Run: func(ctx context.Context, q db.Querier, _ Options) (*Result, error) {
			data, err := YearlyGrowth(ctx, q)
			if err != nil {
				return nil, err
			}
			res := &Result{
				Name:    "yearly-growth",
				Columns: []string{"year", "revenue", "prev_revenue", "change", "change_pct"},
				Data:    data,
			}
			for _, r := range data {
				res.Rows = append(res.Rows, []string{
					fmtInt(int64(r.Year)), fmtFloat(r.Revenue),
					fmtFloatPtr(r.PrevRevenue), fmtFloatPtr(r.Change),
					fmtFloatPtr(r.ChangePct),
				})
			}
			return res, nil
		},
	})

	Register(Definition{
		Name:        "running-total",
		Description: "Cumulative daily revenue and 7-day trailing moving average",
		Run: func(ctx context.Context, q db.Querier, _ Options) (*Result, error) {
			data, err := RunningTotals(ctx, q)
			if err != nil {
				return nil, err
			}
			res := &Result{
				Name:    "running-total",
				Columns: []string{"date", "revenue", "running_total", "moving_avg"},
				Data:    data,
			}
			for _, r := range data {
				res.Rows = append(res.Rows, []string{
					fmtDate(r.Date), fmtFloat(r.Revenue),
					fmtFloat(r.RunningTotal), fmtFloat(r.MovingAvg),
				})
			}
			return res, nil
		},
	})
}
