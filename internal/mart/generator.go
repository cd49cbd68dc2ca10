//-------------------------------------------------------------------------
//
// martreport - analytics reports over a sales data mart
//
// Copyright (c) 2025 - 2026, the martreport authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package mart

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/salesmart/martreport/internal/datagen"
	"github.com/salesmart/martreport/internal/db"
	"github.com/salesmart/martreport/internal/logging"
)

// Reference data for the product dimension.
var productCategories = map[string][]string{
	"Bikes":       {"Mountain Bikes", "Road Bikes", "Touring Bikes"},
	"Components":  {"Handlebars", "Brakes", "Chains", "Forks", "Wheels"},
	"Clothing":    {"Jerseys", "Shorts", "Gloves", "Caps", "Socks"},
	"Accessories": {"Helmets", "Bottles and Cages", "Tires and Tubes", "Lights", "Locks"},
}

var productLines = []string{"Road", "Mountain", "Touring", "Other Sales"}

var countries = []string{
	"United States", "Australia", "United Kingdom",
	"Germany", "France", "Canada",
}

// Country weights skew toward the larger markets so country-level reports
// have uneven distributions worth looking at.
var countryWeights = []int{35, 20, 15, 12, 10, 8}

var genders = []string{"Male", "Female", "n/a"}
var genderWeights = []int{49, 49, 2}

var maritalStatuses = []string{"Married", "Single"}

const (
	// nullKeyPercent is the share of fact rows whose dimension keys are
	// left NULL, standing in for source records that never resolved.
	nullKeyPercent = 1

	// nullDatePercent is the share of fact rows with no order date.
	nullDatePercent = 1

	maxLinesPerOrder = 3
)

// SeedSpec sets the row counts and RNG seed for data generation.
type SeedSpec struct {
	Customers  int
	Products   int
	Orders     int
	RandomSeed uint64
}

// Generator produces synthetic data for the star schema.
type Generator struct {
	faker *datagen.Faker
	cfg   datagen.BatchInsertConfig
}

// NewGenerator creates a generator. A zero seed picks a random one, a
// non-zero seed makes the generated data reproducible.
func NewGenerator(seed uint64) *Generator {
	faker := datagen.NewFaker()
	if seed != 0 {
		faker = datagen.NewFakerWithSeed(seed)
	}
	return &Generator{
		faker: faker,
		cfg:   datagen.DefaultBatchConfig(),
	}
}

// GenerateData populates the star schema per the given spec. Dimensions
// load first so fact rows can reference their keys. Returns the number of
// fact rows inserted (orders can have multiple lines).
func (g *Generator) GenerateData(ctx context.Context, q db.Querier, spec SeedSpec) (int64, error) {
	logging.Info().
		Int("customers", spec.Customers).
		Int("products", spec.Products).
		Int("orders", spec.Orders).
		Msg("Generating mart data")

	if err := g.generateCustomers(ctx, q, spec.Customers); err != nil {
		return 0, fmt.Errorf("failed to generate dim_customers: %w", err)
	}
	if err := g.generateProducts(ctx, q, spec.Products); err != nil {
		return 0, fmt.Errorf("failed to generate dim_products: %w", err)
	}

	factRows, err := g.generateSales(ctx, q, spec.Orders, spec.Customers, spec.Products)
	if err != nil {
		return 0, fmt.Errorf("failed to generate fact_sales: %w", err)
	}
	return factRows, nil
}

func (g *Generator) generateCustomers(ctx context.Context, q db.Querier, count int) error {
	logging.Info().Int("count", count).Msg("Generating dim_customers")
	batch := make([]string, 0, g.cfg.BatchSize)
	progress := datagen.NewProgressReporter("dim_customers", int64(count), g.cfg.ProgressInterval)

	const columns = "(customer_key, customer_id, customer_number, first_name, last_name, country, marital_status, gender, birthdate, create_date)"

	birthStart := time.Date(1940, 1, 1, 0, 0, 0, 0, time.UTC)
	birthEnd := time.Date(2004, 12, 31, 0, 0, 0, 0, time.UTC)
	createStart := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	createEnd := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	for i := 1; i <= count; i++ {
		batch = append(batch, fmt.Sprintf("(%d, %d, '%s', '%s', '%s', '%s', '%s', '%s', '%s', '%s')",
			i,
			10000+i,
			fmt.Sprintf("CUST-%06d", 10000+i),
			datagen.EscapeSingleQuote(datagen.Truncate(g.faker.FirstName(), 50)),
			datagen.EscapeSingleQuote(datagen.Truncate(g.faker.LastName(), 50)),
			datagen.ChooseWeighted(g.faker, countries, countryWeights),
			datagen.Choose(g.faker, maritalStatuses),
			datagen.ChooseWeighted(g.faker, genders, genderWeights),
			g.faker.DateRange(birthStart, birthEnd).Format("2006-01-02"),
			g.faker.DateRange(createStart, createEnd).Format("2006-01-02"),
		))

		if len(batch) >= g.cfg.BatchSize {
			if err := datagen.ExecuteBatchInsert(ctx, q, "dim_customers", columns, batch); err != nil {
				return err
			}
			progress.Update(int64(len(batch)))
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		if err := datagen.ExecuteBatchInsert(ctx, q, "dim_customers", columns, batch); err != nil {
			return err
		}
		progress.Update(int64(len(batch)))
	}
	progress.Done()
	return nil
}

func (g *Generator) generateProducts(ctx context.Context, q db.Querier, count int) error {
	logging.Info().Int("count", count).Msg("Generating dim_products")
	batch := make([]string, 0, g.cfg.BatchSize)
	progress := datagen.NewProgressReporter("dim_products", int64(count), g.cfg.ProgressInterval)

	const columns = "(product_key, product_id, product_number, product_name, category, subcategory, product_line, cost, start_date)"

	// Sorted so a fixed RNG seed yields the same products every run.
	categoryNames := make([]string, 0, len(productCategories))
	for name := range productCategories {
		categoryNames = append(categoryNames, name)
	}
	sort.Strings(categoryNames)

	startLo := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	startHi := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	for i := 1; i <= count; i++ {
		category := datagen.Choose(g.faker, categoryNames)
		subcategory := datagen.Choose(g.faker, productCategories[category])

		batch = append(batch, fmt.Sprintf("(%d, %d, '%s', '%s', '%s', '%s', '%s', %.2f, '%s')",
			i,
			100+i,
			fmt.Sprintf("PR-%s-%04d", category[:2], 100+i),
			datagen.EscapeSingleQuote(datagen.Truncate(g.faker.ProductName(), 100)),
			category,
			subcategory,
			datagen.Choose(g.faker, productLines),
			g.faker.Price(2, 1500),
			g.faker.DateRange(startLo, startHi).Format("2006-01-02"),
		))

		if len(batch) >= g.cfg.BatchSize {
			if err := datagen.ExecuteBatchInsert(ctx, q, "dim_products", columns, batch); err != nil {
				return err
			}
			progress.Update(int64(len(batch)))
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		if err := datagen.ExecuteBatchInsert(ctx, q, "dim_products", columns, batch); err != nil {
			return err
		}
		progress.Update(int64(len(batch)))
	}
	progress.Done()
	return nil
}

func (g *Generator) generateSales(ctx context.Context, q db.Querier, orders, numCustomers, numProducts int) (int64, error) {
	logging.Info().Int("count", orders).Msg("Generating fact_sales")
	batch := make([]string, 0, g.cfg.BatchSize)
	progress := datagen.NewProgressReporter("fact_sales", int64(orders), g.cfg.ProgressInterval)

	const columns = "(order_number, product_key, customer_key, order_date, shipping_date, due_date, sales_amount, quantity, price)"

	orderLo := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	orderHi := time.Date(2025, 8, 15, 0, 0, 0, 0, time.UTC)

	var factRows int64
	for o := 1; o <= orders; o++ {
		orderNumber := fmt.Sprintf("SO%06d", o)
		orderDate := g.faker.DateRange(orderLo, orderHi)

		// Every line of an order shares its customer and dates.
		customerKey := fmt.Sprintf("%d", g.faker.Int(1, numCustomers))
		if g.faker.Int(1, 100) <= nullKeyPercent {
			customerKey = "NULL"
		}

		orderDateVal := fmt.Sprintf("'%s'", orderDate.Format("2006-01-02"))
		shipDateVal := fmt.Sprintf("'%s'", orderDate.AddDate(0, 0, 7).Format("2006-01-02"))
		dueDateVal := fmt.Sprintf("'%s'", orderDate.AddDate(0, 0, 12).Format("2006-01-02"))
		if g.faker.Int(1, 100) <= nullDatePercent {
			orderDateVal, shipDateVal, dueDateVal = "NULL", "NULL", "NULL"
		}

		lines := g.faker.Int(1, maxLinesPerOrder)
		for l := 0; l < lines; l++ {
			productKey := fmt.Sprintf("%d", g.faker.Int(1, numProducts))
			if g.faker.Int(1, 100) <= nullKeyPercent {
				productKey = "NULL"
			}

			qty := g.faker.Int(1, 4)
			price := g.faker.Price(2, 2000)
			amount := float64(qty) * price

			batch = append(batch, fmt.Sprintf("('%s', %s, %s, %s, %s, %s, %.2f, %d, %.2f)",
				orderNumber, productKey, customerKey,
				orderDateVal, shipDateVal, dueDateVal,
				amount, qty, price,
			))
			factRows++

			if len(batch) >= g.cfg.BatchSize {
				if err := datagen.ExecuteBatchInsert(ctx, q, "fact_sales", columns, batch); err != nil {
					return factRows, err
				}
				batch = batch[:0]
			}
		}
		progress.Update(1)
	}

	if len(batch) > 0 {
		if err := datagen.ExecuteBatchInsert(ctx, q, "fact_sales", columns, batch); err != nil {
			return factRows, err
		}
	}
	progress.Done()
	return factRows, nil
}
