package reports

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"
)

// WriteTable renders a result as an aligned text table.
func WriteTable(w io.Writer, r *Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	for i, col := range r.Columns {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, col)
	}
	fmt.Fprintln(tw)

	for _, row := range r.Rows {
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, cell)
		}
		fmt.Fprintln(tw)
	}

	return tw.Flush()
}

// WriteJSON renders a result as indented JSON.
func WriteJSON(w io.Writer, r *Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// Cell formatting helpers shared by the report adapters. Null database
// values render as an empty cell.

func fmtInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

func fmtIntPtr(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func fmtFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return fmtFloat(*v)
}

func fmtString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func fmtDate(v time.Time) string {
	return v.Format("2006-01-02")
}

func fmtDatePtr(v *time.Time) string {
	if v == nil {
		return ""
	}
	return fmtDate(*v)
}
