//-------------------------------------------------------------------------
//
// martreport - analytics reports over a sales data mart
//
// Copyright (c) 2025 - 2026, the martreport authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/salesmart/martreport/internal/logging"
	"github.com/salesmart/martreport/pkg/version"
)

const metadataTable = "martreport_metadata"

const createMetadataTableSQL = `
CREATE TABLE IF NOT EXISTS martreport_metadata (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
)`

// SaveSeedMetadata records what the seed command loaded into the mart.
func SaveSeedMetadata(ctx context.Context, pool *pgxpool.Pool, customers, products, orders int64) error {
	_, err := pool.Exec(ctx, createMetadataTableSQL)
	if err != nil {
		return fmt.Errorf("failed to create metadata table: %w", err)
	}

	metadata := map[string]string{
		"version":   version.Short(),
		"seeded_at": time.Now().UTC().Format(time.RFC3339),
		"customers": fmt.Sprintf("%d", customers),
		"products":  fmt.Sprintf("%d", products),
		"orders":    fmt.Sprintf("%d", orders),
	}

	for key, value := range metadata {
		_, err := pool.Exec(ctx, `
            INSERT INTO martreport_metadata (key, value) VALUES ($1, $2)
            ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
        `, key, value)
		if err != nil {
			return fmt.Errorf("failed to save metadata %s: %w", key, err)
		}
	}

	logging.Debug().
		Int64("customers", customers).
		Int64("products", products).
		Int64("orders", orders).
		Msg("Saved seed metadata")

	return nil
}

// GetMetadataValue retrieves a single metadata value by key.
func GetMetadataValue(ctx context.Context, q Querier, key string) (string, error) {
	var value string
	err := q.QueryRow(ctx, `
        SELECT value FROM martreport_metadata WHERE key = $1
    `, key).Scan(&value)
	if err != nil {
		return "", err
	}
	return value, nil
}

// GetAllMetadata retrieves all metadata as a map.
func GetAllMetadata(ctx context.Context, q Querier) (map[string]string, error) {
	rows, err := q.Query(ctx, `SELECT key, value FROM martreport_metadata`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	metadata := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		metadata[key] = value
	}

	return metadata, rows.Err()
}

// DropMetadata drops the metadata table.
func DropMetadata(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", metadataTable))
	return err
}
