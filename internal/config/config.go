//-------------------------------------------------------------------------
//
// martreport - analytics reports over a sales data mart
//
// Copyright (c) 2025 - 2026, the martreport authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package config handles configuration management for martreport.
// Configuration is loaded from config files and CLI flags (no environment
// variables). CLI flags take precedence over config file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all configuration for martreport.
type Config struct {
	// Connection is the PostgreSQL connection string.
	Connection string `mapstructure:"connection"`

	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// Seed holds configuration for the seed subcommand.
	Seed SeedConfig `mapstructure:"seed"`

	// Report holds configuration for the report subcommand.
	Report ReportConfig `mapstructure:"report"`
}

// SeedConfig holds configuration for synthetic data seeding.
type SeedConfig struct {
	// Customers is the number of customer dimension rows to generate.
	Customers int `mapstructure:"customers"`

	// Products is the number of product dimension rows to generate.
	Products int `mapstructure:"products"`

	// Orders is the number of orders to generate. Each order produces
	// one or more fact_sales lines.
	Orders int `mapstructure:"orders"`

	// RandomSeed makes generation reproducible when non-zero.
	RandomSeed uint64 `mapstructure:"random_seed"`
}

// ReportConfig holds configuration for report execution.
type ReportConfig struct {
	// TopN is the row limit for top/bottom ranking reports.
	TopN int `mapstructure:"top_n"`

	// Format is the output format: "table" or "json".
	Format string `mapstructure:"format"`

	// Connections is the maximum number of database connections used
	// when running the full report set concurrently.
	Connections int `mapstructure:"connections"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Seed: SeedConfig{
			Customers: 2000,
			Products:  300,
			Orders:    50000,
		},
		Report: ReportConfig{
			TopN:        10,
			Format:      "table",
			Connections: 8,
		},
	}
}

// Load reads configuration from config files.
// Config file locations (in order of precedence):
// 1. Path specified by configFile parameter
// 2. ./martreport.yaml
// 3. ~/.config/martreport/config.yaml
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("martreport")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "martreport"))
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Connection == "" {
		return fmt.Errorf("connection string is required")
	}
	return nil
}

// ValidateSeed checks configuration required for the seed command.
func (c *Config) ValidateSeed() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Seed.Customers < 1 {
		return fmt.Errorf("seed.customers must be at least 1")
	}
	if c.Seed.Products < 1 {
		return fmt.Errorf("seed.products must be at least 1")
	}
	if c.Seed.Orders < 1 {
		return fmt.Errorf("seed.orders must be at least 1")
	}
	return nil
}

// ValidateReport checks configuration required for the report command.
func (c *Config) ValidateReport() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Report.TopN < 1 {
		return fmt.Errorf("report.top_n must be at least 1")
	}
	if c.Report.Format != "table" && c.Report.Format != "json" {
		return fmt.Errorf("report.format must be 'table' or 'json'")
	}
	if c.Report.Connections < 1 {
		return fmt.Errorf("report.connections must be at least 1")
	}
	return nil
}
