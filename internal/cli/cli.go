//-------------------------------------------------------------------------
//
// martreport - analytics reports over a sales data mart
//
// Copyright (c) 2025 - 2026, the martreport authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package cli implements the command-line interface for martreport.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/salesmart/martreport/internal/config"
	"github.com/salesmart/martreport/internal/logging"
	"github.com/salesmart/martreport/internal/reports"
	"github.com/salesmart/martreport/pkg/version"
)

var (
	// Global flags
	cfgFile    string
	connection string
	logLevel   string

	// Global config
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "martreport",
		Short: "Analytics reports over a PostgreSQL sales data mart",
		Long: `martreport manages a star-schema sales data mart (fact_sales,
dim_customers, dim_products) in PostgreSQL and runs a library of
analytical reports over it: trends, rankings, part-to-whole shares,
customer segmentation and the consolidated customer and product reports.

Typical workflow:
  martreport init   --connection "postgres://..."
  martreport seed   --connection "postgres://..." --orders 50000
  martreport report summary --connection "postgres://..."`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./martreport.yaml)")
	rootCmd.PersistentFlags().StringVar(&connection, "connection", "",
		"PostgreSQL connection string")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (debug, info, warn, error)")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(reportsCmd)
}

func initConfig() error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}

	// Override with CLI flags
	if connection != "" {
		cfg.Connection = connection
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	// Reinitialize logger with config
	logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})

	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version.Info())
	},
}

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "List available reports",
	Long: `List every registered report with a one-line description.
Run one with 'martreport report <name>' or all with 'martreport report all'.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println("Available reports:")
		cmd.Println()
		for _, def := range reports.All() {
			cmd.Println(fmt.Sprintf("  %-20s %s", def.Name, def.Description))
		}
	},
}
