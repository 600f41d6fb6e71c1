package core

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-date wire format used for report ranges.
const DateLayout = "2006-01-02"

// NoData is the sentinel placed in TopSKU and TopBranch when nothing matched.
const NoData = "N/A"

// NoDataSummary is the narrative used for an empty matched set.
const NoDataSummary = "No sales were recorded in this period."

// DefaultRangeDays is the length of the trailing window used when no range is given.
const DefaultRangeDays = 7

// SaleRecord is a single sale as stored in the sales table.
// Read-only from the reporting pipeline's point of view.
type SaleRecord struct {
	ID        string
	SKU       string
	Units     int64
	UnitPrice decimal.Decimal
	Branch    string
	SoldAt    time.Time
}

// LineTotal returns UnitPrice × Units, unrounded.
func (s SaleRecord) LineTotal() decimal.Decimal {
	return s.UnitPrice.Mul(decimal.NewFromInt(s.Units))
}

// DateRange is an inclusive range of calendar dates. From and To hold
// midnight UTC of their respective dates.
type DateRange struct {
	From time.Time
	To   time.Time
}

// NewDateRange truncates both ends to their UTC calendar date.
func NewDateRange(from, to time.Time) DateRange {
	return DateRange{From: calendarDate(from), To: calendarDate(to)}
}

// DefaultDateRange returns [today-7, today] where today is now's UTC date.
func DefaultDateRange(now time.Time) DateRange {
	to := calendarDate(now)
	return DateRange{From: to.AddDate(0, 0, -DefaultRangeDays), To: to}
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// Window returns the inclusive instant bounds of the range:
// From at 00:00:00.000 UTC and To at 23:59:59.999 UTC.
func (r DateRange) Window() (start, end time.Time) {
	start = r.From
	end = r.To.AddDate(0, 0, 1).Add(-time.Millisecond)
	return start, end
}

// Contains reports whether t falls inside the aggregation window.
func (r DateRange) Contains(t time.Time) bool {
	start, end := r.Window()
	return !t.Before(start) && !t.After(end)
}

func (r DateRange) String() string {
	return r.From.Format(DateLayout) + " to " + r.To.Format(DateLayout)
}

func calendarDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Flags are informational request options. They do not change aggregation.
type Flags struct {
	Premium       bool
	IncludeCharts bool
	AttachPDF     bool
}

// ReportRequest is the event handed from admission to the worker pool.
// BranchFilter == "" means global.
type ReportRequest struct {
	RequestID    string
	Range        DateRange
	BranchFilter string
	EmailTo      string
	RequestedBy  string
	Flags        Flags
	RequestedAt  time.Time
}

// AggregationResult is the derived, never-persisted summary of a matched set.
type AggregationResult struct {
	TotalSales   int
	TotalUnits   int64
	TotalRevenue decimal.Decimal
	TopSKU       string
	TopBranch    string
	Range        DateRange
	BranchFilter string
	Summary      string
}

// IsEmpty reports whether no records matched.
func (a *AggregationResult) IsEmpty() bool {
	return a.TotalSales == 0
}

// RequestState tracks a report request through the pipeline.
type RequestState string

const (
	StateAdmitted      RequestState = "ADMITTED"
	StateDispatched    RequestState = "DISPATCHED"
	StateAggregating   RequestState = "AGGREGATING"
	StateSummarizing   RequestState = "SUMMARIZING"
	StateDelivering    RequestState = "DELIVERING"
	StateDelivered     RequestState = "DELIVERED"
	StateErrorNotified RequestState = "ERROR_NOTIFIED"
	StateErrorSilent   RequestState = "ERROR_SILENT"
)
