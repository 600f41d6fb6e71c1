package app

import (
	"context"
	"fmt"
	"time"

	"sales-reports/internal/ai"
	"sales-reports/internal/core"

	"github.com/sirupsen/logrus"
)

// Summarizer turns aggregation facts into prose and never fails.
type Summarizer interface {
	Summarize(ctx context.Context, facts ai.SummaryFacts) string
}

// Delivery sends the report or, on failure, the failure notice.
type Delivery interface {
	Deliver(ctx context.Context, res *core.AggregationResult, req core.ReportRequest) core.RequestState
	NotifyFailure(ctx context.Context, req core.ReportRequest) core.RequestState
}

// Pipeline runs one report request from aggregation to delivery.
type Pipeline struct {
	aggregation core.AggregationService
	summarizer  Summarizer
	delivery    Delivery
	log         logrus.FieldLogger
}

// NewPipeline constructs a Pipeline.
func NewPipeline(aggregation core.AggregationService, summarizer Summarizer, delivery Delivery, log logrus.FieldLogger) *Pipeline {
	return &Pipeline{
		aggregation: aggregation,
		summarizer:  summarizer,
		delivery:    delivery,
		log:         log,
	}
}

// Handle is the worker pool entry point for one request.
func (p *Pipeline) Handle(ctx context.Context, req core.ReportRequest) {
	p.Process(ctx, req)
}

// Process runs aggregation, summary and delivery for req and returns the
// terminal state. It is the single place that decides between the failure
// notice and stopping; no error escapes it.
func (p *Pipeline) Process(ctx context.Context, req core.ReportRequest) core.RequestState {
	start := time.Now()
	log := p.log.WithField("request_id", req.RequestID)
	transition(log, core.StateDispatched)

	transition(log, core.StateAggregating)
	res, err := p.aggregate(ctx, req)
	if err != nil {
		log.WithError(err).WithField("state", core.StateAggregating).Error("aggregation failed")
		return finish(log, p.delivery.NotifyFailure(ctx, req), start)
	}

	if !res.IsEmpty() {
		transition(log, core.StateSummarizing)
		res.Summary = p.summarizer.Summarize(ctx, ai.FactsFrom(res))
	}

	transition(log, core.StateDelivering)
	return finish(log, p.delivery.Deliver(ctx, res, req), start)
}

func (p *Pipeline) aggregate(ctx context.Context, req core.ReportRequest) (res *core.AggregationResult, err error) {
	defer func() {
		if rv := recover(); rv != nil {
			err = fmt.Errorf("aggregation panic: %v", rv)
		}
	}()
	return p.aggregation.Aggregate(ctx, req.Range, req.BranchFilter)
}

func transition(log logrus.FieldLogger, state core.RequestState) {
	log.WithField("state", state).Info("report state changed")
}

func finish(log logrus.FieldLogger, state core.RequestState, start time.Time) core.RequestState {
	entry := log.WithFields(logrus.Fields{
		"state":    state,
		"duration": time.Since(start).String(),
	})
	switch state {
	case core.StateDelivered:
		entry.Info("report delivered")
	case core.StateErrorNotified:
		entry.Warn("report failed, requester notified")
	default:
		entry.Error("report failed, requester not notified")
	}
	return state
}
