// seed-sales loads the reference week of sales (2025-09-01 to 2025-09-07)
// used in demos and manual checks. Existing rows with the same ids are
// replaced; other rows are left alone.
//
// Usage: go run ./cmd/seed-sales
package main

import (
	"context"
	"os"

	"sales-reports/internal/core"
	"sales-reports/internal/db"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type seedRow struct {
	id, sku, price, branch, soldAt string
	units                          int
}

var seedRows = []seedRow{
	{"seed-001", "CLASSIC", "1.99", "Miraflores", "2025-09-01T09:15:00Z", 25},
	{"seed-002", "DOUBLE", "2.49", "Miraflores", "2025-09-02T11:40:00Z", 40},
	{"seed-003", "THINS", "2.19", "SanIsidro", "2025-09-03T14:05:00Z", 32},
	{"seed-004", "DOUBLE", "2.49", "SanIsidro", "2025-09-05T17:30:00Z", 55},
	{"seed-005", "CLASSIC", "1.99", "Miraflores", "2025-09-07T19:55:00Z", 20},
}

func main() {
	_ = godotenv.Load()
	log := logrus.New()

	ctx := context.Background()
	pool, err := db.NewPool(ctx, os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	for _, r := range seedRows {
		_, err := tx.Exec(ctx, `
			INSERT INTO sales (id, sku, units, price, branch, sold_at, created_by)
			VALUES ($1, $2, $3, $4::numeric, $5, $6::timestamptz, 'seed-sales')
			ON CONFLICT (id) DO UPDATE
			  SET sku = EXCLUDED.sku,
			      units = EXCLUDED.units,
			      price = EXCLUDED.price,
			      branch = EXCLUDED.branch,
			      sold_at = EXCLUDED.sold_at`,
			r.id, r.sku, r.units, r.price, r.branch, r.soldAt)
		if err != nil {
			log.Fatalf("failed to upsert %s: %v", r.id, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("failed to commit: %v", err)
	}

	// Read back through the production store so the seed doubles as a smoke test.
	from, _ := core.ParseDate("2025-09-01")
	to, _ := core.ParseDate("2025-09-07")
	agg := core.NewAggregationService(core.NewSalesStore(pool, 0))
	res, err := agg.Aggregate(ctx, core.NewDateRange(from, to), "")
	if err != nil {
		log.Fatalf("failed to aggregate seeded week: %v", err)
	}

	log.WithFields(logrus.Fields{
		"rows":          len(seedRows),
		"total_sales":   res.TotalSales,
		"total_units":   res.TotalUnits,
		"total_revenue": core.FormatMoney(res.TotalRevenue),
		"top_sku":       res.TopSKU,
		"top_branch":    res.TopBranch,
	}).Info("seed complete")
}
