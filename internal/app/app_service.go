package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sales-reports/internal/core"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const estimatedTime = "30-60 seconds"

type reportService struct {
	emitter  Emitter
	validate *validator.Validate
	log      logrus.FieldLogger
	now      func() time.Time
	newID    func() string
}

// Option customises a ReportService. Used by tests to pin the clock and ids.
type Option func(*reportService)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *reportService) { s.now = now }
}

// WithIDGenerator overrides the request id generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *reportService) { s.newID = newID }
}

// NewReportService constructs a ReportService that emits admitted requests to emitter.
func NewReportService(emitter Emitter, log logrus.FieldLogger, opts ...Option) ReportService {
	s := &reportService{
		emitter:  emitter,
		validate: validator.New(),
		log:      log,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RequestSummary admits one report request.
func (s *reportService) RequestSummary(ctx context.Context, caller core.Caller, req SummaryRequest) (*SummaryAck, error) {
	req.EmailTo = strings.TrimSpace(req.EmailTo)
	if err := s.validate.StructCtx(ctx, req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, describeValidation(err))
	}

	now := s.now().UTC()
	dateRange, err := resolveRange(req.From, req.To, now)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}

	branch, err := core.EffectiveBranch(caller.Role, req.Branch)
	if err != nil {
		return nil, err
	}

	event := core.ReportRequest{
		RequestID:    s.newID(),
		Range:        dateRange,
		BranchFilter: branch,
		EmailTo:      req.EmailTo,
		RequestedBy:  caller.ID,
		Flags: core.Flags{
			Premium:       req.Premium,
			IncludeCharts: req.Premium && req.IncludeCharts,
			AttachPDF:     req.Premium && req.AttachPDF,
		},
		RequestedAt: now,
	}

	if err := s.emitter.Submit(event); err != nil {
		return nil, fmt.Errorf("failed to emit report request: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"request_id":   event.RequestID,
		"state":        core.StateAdmitted,
		"requested_by": caller.ID,
		"role":         caller.Role.String(),
		"branch":       branch,
		"range":        dateRange.String(),
		"premium":      req.Premium,
	}).Info("report request admitted")

	ack := &SummaryAck{
		RequestID:     event.RequestID,
		Status:        StatusProcessing,
		Message:       fmt.Sprintf("Your sales summary is being generated and will be sent to %s", event.EmailTo),
		EstimatedTime: estimatedTime,
		RequestedAt:   now,
	}
	if req.Premium {
		ack.Features = premiumFeatures(event.Flags)
	}
	return ack, nil
}

// resolveRange applies the default window unless both dates are present.
func resolveRange(from, to string, now time.Time) (core.DateRange, error) {
	if from == "" || to == "" {
		return core.DefaultDateRange(now), nil
	}
	f, err := core.ParseDate(from)
	if err != nil {
		return core.DateRange{}, err
	}
	t, err := core.ParseDate(to)
	if err != nil {
		return core.DateRange{}, err
	}
	return core.NewDateRange(f, t), nil
}

func premiumFeatures(f core.Flags) []string {
	features := []string{"Premium email layout"}
	if f.IncludeCharts {
		features = append(features, "Charts")
	}
	if f.AttachPDF {
		features = append(features, "PDF attachment")
	}
	return features
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "email":
			msgs = append(msgs, fe.Field()+" must be a valid email address")
		case "datetime":
			msgs = append(msgs, fe.Field()+" must be a date in YYYY-MM-DD format")
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
