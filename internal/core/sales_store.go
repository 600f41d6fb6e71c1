package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type salesStore struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// NewSalesStore constructs a SalesStore backed by the sales table.
// A positive timeout bounds each fetch.
func NewSalesStore(pool *pgxpool.Pool, timeout time.Duration) SalesStore {
	return &salesStore{pool: pool, timeout: timeout}
}

// FetchSales reads the whole matched set in one query, with no LIMIT.
func (s *salesStore) FetchSales(ctx context.Context, start, end time.Time, branch string) ([]SaleRecord, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	q := `
		SELECT id, sku, units, price, branch, sold_at
		FROM sales
		WHERE sold_at >= $1
		  AND sold_at <= $2`
	args := []any{start, end}
	if branch != "" {
		args = append(args, branch)
		q += fmt.Sprintf(" AND branch = $%d", len(args))
	}
	q += " ORDER BY sold_at ASC, id ASC"

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}
	defer rows.Close()

	var records []SaleRecord
	for rows.Next() {
		var rec SaleRecord
		if err := rows.Scan(&rec.ID, &rec.SKU, &rec.Units, &rec.UnitPrice, &rec.Branch, &rec.SoldAt); err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		rec.SoldAt = rec.SoldAt.UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sales row iteration error: %w", err)
	}
	return records, nil
}
