package core

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SalesStore is the read side of the sales table.
type SalesStore interface {
	// FetchSales returns every sale with start <= sold_at <= end, restricted to
	// branch when branch is non-empty. The result is never paginated.
	FetchSales(ctx context.Context, start, end time.Time, branch string) ([]SaleRecord, error)
}

// AggregationService computes report totals over a date range.
type AggregationService interface {
	// Aggregate fetches the matched set and reduces it. An empty matched set
	// yields the zero/N/A result with Summary already set to NoDataSummary.
	Aggregate(ctx context.Context, r DateRange, branch string) (*AggregationResult, error)
}

type aggregationService struct {
	store SalesStore
}

// NewAggregationService constructs an AggregationService over the given store.
func NewAggregationService(store SalesStore) AggregationService {
	return &aggregationService{store: store}
}

func (s *aggregationService) Aggregate(ctx context.Context, r DateRange, branch string) (*AggregationResult, error) {
	start, end := r.Window()
	records, err := s.store.FetchSales(ctx, start, end, branch)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sales: %w", err)
	}
	return Aggregate(records, r, branch), nil
}

// Aggregate reduces a matched set. Revenue is rounded half-up to 2 places once,
// after summing. When branch is set, TopBranch is branch without looking at the data.
func Aggregate(records []SaleRecord, r DateRange, branch string) *AggregationResult {
	res := &AggregationResult{
		Range:        r,
		BranchFilter: branch,
	}
	if len(records) == 0 {
		res.TotalRevenue = decimal.Zero.Round(2)
		res.TopSKU = NoData
		res.TopBranch = NoData
		res.Summary = NoDataSummary
		return res
	}

	revenue := decimal.Zero
	unitsBySKU := make(map[string]int64)
	unitsByBranch := make(map[string]int64)
	for _, rec := range records {
		res.TotalUnits += rec.Units
		revenue = revenue.Add(rec.LineTotal())
		unitsBySKU[rec.SKU] += rec.Units
		unitsByBranch[rec.Branch] += rec.Units
	}

	res.TotalSales = len(records)
	res.TotalRevenue = revenue.Round(2)
	res.TopSKU = maxKey(unitsBySKU)
	if branch != "" {
		res.TopBranch = branch
	} else {
		res.TopBranch = maxKey(unitsByBranch)
	}
	return res
}

// maxKey returns a key with the largest sum. Ties go to the lexicographically
// smallest key so a run is reproducible regardless of map order.
func maxKey(sums map[string]int64) string {
	best := NoData
	var bestSum int64
	found := false
	for k, v := range sums {
		if !found || v > bestSum || (v == bestSum && k < best) {
			best, bestSum, found = k, v, true
		}
	}
	return best
}
