package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/salesmart/martreport/internal/db"
	"github.com/salesmart/martreport/internal/logging"
	"github.com/salesmart/martreport/internal/reports"
)

var (
	reportTopN   int
	reportAsOf   string
	reportFormat string
)

var reportCmd = &cobra.Command{
	Use:   "report <name>|all",
	Short: "Run one report, or all of them",
	Long: `Run a single report by name, or every registered report with
'report all'. Use 'martreport reports' to list the available names.

Time-dependent fields (customer age, days since last order) are evaluated
against --as-of, which defaults to today.

Examples:
  martreport report summary --connection "postgres://..."
  martreport report top-products --top 5 --format json
  martreport report all --as-of 2025-01-01`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().IntVar(&reportTopN, "top", 0,
		"row limit for ranking reports (default: 10)")
	reportCmd.Flags().StringVar(&reportAsOf, "as-of", "",
		"evaluation date for age and recency fields (YYYY-MM-DD, default: today)")
	reportCmd.Flags().StringVar(&reportFormat, "format", "",
		"output format: table or json (default: table)")
}

func runReport(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if reportTopN > 0 {
		cfg.Report.TopN = reportTopN
	}
	if reportFormat != "" {
		cfg.Report.Format = reportFormat
	}

	if err := cfg.ValidateReport(); err != nil {
		return err
	}

	opts := reports.DefaultOptions()
	opts.TopN = cfg.Report.TopN
	opts.Concurrency = cfg.Report.Connections
	if reportAsOf != "" {
		asOf, err := time.Parse("2006-01-02", reportAsOf)
		if err != nil {
			return fmt.Errorf("invalid --as-of date %q: %w", reportAsOf, err)
		}
		opts.AsOf = asOf
	}

	ctx := context.Background()

	if args[0] == "all" {
		return runAllReports(ctx, opts)
	}
	return runOneReport(ctx, args[0], opts)
}

func runOneReport(ctx context.Context, name string, opts reports.Options) error {
	def, err := reports.Get(name)
	if err != nil {
		return err
	}

	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	start := time.Now()
	res, err := def.Run(ctx, pool, opts)
	if err != nil {
		return fmt.Errorf("report %s failed: %w", name, err)
	}

	logging.Debug().
		Str("report", name).
		Dur("elapsed", time.Since(start)).
		Msg("Report complete")

	return writeResult(res)
}

func runAllReports(ctx context.Context, opts reports.Options) error {
	pool, err := db.ConnectWithMaxConns(ctx, cfg.Connection, int32(cfg.Report.Connections))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	outcomes := reports.RunAll(ctx, pool, opts)

	var failed []string
	for _, o := range outcomes {
		if o.Err != nil {
			logging.Error().
				Str("report", o.Name).
				Err(o.Err).
				Msg("Report failed")
			failed = append(failed, o.Name)
			continue
		}

		logging.Debug().
			Str("report", o.Name).
			Dur("elapsed", o.Duration).
			Msg("Report complete")

		if cfg.Report.Format == "table" {
			fmt.Printf("== %s ==\n", o.Name)
		}
		if err := writeResult(o.Result); err != nil {
			return err
		}
		fmt.Println()
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d report(s) failed: %s", len(failed), strings.Join(failed, ", "))
	}
	return nil
}

func writeResult(res *reports.Result) error {
	if cfg.Report.Format == "json" {
		return reports.WriteJSON(os.Stdout, res)
	}
	return reports.WriteTable(os.Stdout, res)
}
