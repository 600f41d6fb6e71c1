package app

import (
	"context"
	"errors"

	"sales-reports/internal/core"
)

// ErrInvalidInput marks admission failures caused by malformed client input.
var ErrInvalidInput = errors.New("invalid input")

// ReportService is the single interface the web adapter calls.
// It decouples presentation from the report pipeline.
type ReportService interface {
	// RequestSummary validates req, resolves the caller's effective branch,
	// emits exactly one report event and returns without waiting for it.
	// Only malformed input (wrapped ErrInvalidInput) or a scope error fails
	// synchronously; nothing after the hand-off is reported here.
	RequestSummary(ctx context.Context, caller core.Caller, req SummaryRequest) (*SummaryAck, error)
}

// Emitter hands an admitted request to the asynchronous side.
type Emitter interface {
	Submit(req core.ReportRequest) error
}
