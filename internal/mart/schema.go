//-------------------------------------------------------------------------
//
// martreport - analytics reports over a sales data mart
//
// Copyright (c) 2025 - 2026, the martreport authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package mart manages the sales data mart: the star schema, the report
// views derived from it, and synthetic seed data.
package mart

import (
	"context"

	"github.com/salesmart/martreport/internal/db"
)

// Schema SQL for the sales star schema: two dimensions and one fact.
// Fact keys deliberately carry no foreign-key constraints; rows whose
// source records did not resolve to a dimension land with NULL keys and
// must survive loading so the reports can surface them.
const createSchemaSQL = `
-- Customer Dimension
CREATE TABLE IF NOT EXISTS dim_customers (
    customer_key    BIGINT PRIMARY KEY,
    customer_id     INTEGER NOT NULL,
    customer_number VARCHAR(50),
    first_name      VARCHAR(50),
    last_name       VARCHAR(50),
    country         VARCHAR(50),
    marital_status  VARCHAR(50),
    gender          VARCHAR(50),
    birthdate       DATE,
    create_date     DATE
);

-- Product Dimension
CREATE TABLE IF NOT EXISTS dim_products (
    product_key    BIGINT PRIMARY KEY,
    product_id     INTEGER NOT NULL,
    product_number VARCHAR(50),
    product_name   VARCHAR(100),
    category       VARCHAR(50),
    subcategory    VARCHAR(50),
    product_line   VARCHAR(50),
    cost           NUMERIC(12,2),
    start_date     DATE
);

-- Sales Fact
CREATE TABLE IF NOT EXISTS fact_sales (
    order_number  VARCHAR(50) NOT NULL,
    product_key   BIGINT,
    customer_key  BIGINT,
    order_date    DATE,
    shipping_date DATE,
    due_date      DATE,
    sales_amount  NUMERIC(12,2) NOT NULL,
    quantity      INTEGER NOT NULL,
    price         NUMERIC(12,2)
);

-- Indexes for the analytical queries
CREATE INDEX IF NOT EXISTS idx_fact_sales_order_date ON fact_sales(order_date);
CREATE INDEX IF NOT EXISTS idx_fact_sales_customer ON fact_sales(customer_key);
CREATE INDEX IF NOT EXISTS idx_fact_sales_product ON fact_sales(product_key);
CREATE INDEX IF NOT EXISTS idx_fact_sales_order ON fact_sales(order_number);
CREATE INDEX IF NOT EXISTS idx_dim_customers_country ON dim_customers(country);
CREATE INDEX IF NOT EXISTS idx_dim_products_category ON dim_products(category);
`

// Drop schema SQL
const dropSchemaSQL = `
DROP TABLE IF EXISTS fact_sales CASCADE;
DROP TABLE IF EXISTS dim_products CASCADE;
DROP TABLE IF EXISTS dim_customers CASCADE;
`

// CreateSchema creates the star schema.
func CreateSchema(ctx context.Context, q db.Querier) error {
	_, err := q.Exec(ctx, createSchemaSQL)
	return err
}

// DropSchema drops the star schema and, via CASCADE, the report views.
func DropSchema(ctx context.Context, q db.Querier) error {
	_, err := q.Exec(ctx, dropSchemaSQL)
	return err
}
