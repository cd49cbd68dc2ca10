package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/salesmart/martreport/internal/db"
	"github.com/salesmart/martreport/internal/logging"
	"github.com/salesmart/martreport/internal/mart"
)

var initDropExisting bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the star schema and report views",
	Long: `Create the sales mart star schema (dim_customers, dim_products,
fact_sales) and the customer_report and product_report views.

Example:
  martreport init --connection "postgres://..." --drop-existing`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initDropExisting, "drop-existing", false,
		"drop existing schema and views before initialization")
}

func runInit(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if initDropExisting {
		logging.Info().Msg("Dropping existing schema")
		if err := mart.DropViews(ctx, pool); err != nil {
			return fmt.Errorf("failed to drop views: %w", err)
		}
		if err := mart.DropSchema(ctx, pool); err != nil {
			return fmt.Errorf("failed to drop schema: %w", err)
		}
		if err := db.DropMetadata(ctx, pool); err != nil {
			logging.Debug().Err(err).Msg("No metadata table to drop")
		}
	}

	logging.Info().Msg("Creating schema")
	if err := mart.CreateSchema(ctx, pool); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	logging.Info().Msg("Creating report views")
	if err := mart.CreateViews(ctx, pool); err != nil {
		return fmt.Errorf("failed to create views: %w", err)
	}

	logging.Info().Msg("Database initialization complete")
	return nil
}
