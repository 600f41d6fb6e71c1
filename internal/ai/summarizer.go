package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sales-reports/internal/core"

	"github.com/sirupsen/logrus"
)

// Summarizer wraps a TextGenerator and never fails: any generator error,
// timeout or panic yields FallbackSummary instead.
type Summarizer struct {
	gen     TextGenerator
	timeout time.Duration
	log     logrus.FieldLogger
}

// NewSummarizer constructs a Summarizer. gen may be nil, in which case every
// summary is the fallback. A positive timeout bounds each generator call.
func NewSummarizer(gen TextGenerator, timeout time.Duration, log logrus.FieldLogger) *Summarizer {
	return &Summarizer{gen: gen, timeout: timeout, log: log}
}

// Summarize returns the generated narrative, or the fallback on any failure.
func (s *Summarizer) Summarize(ctx context.Context, facts SummaryFacts) (summary string) {
	if s.gen == nil {
		return FallbackSummary(facts)
	}

	defer func() {
		if rv := recover(); rv != nil {
			s.log.WithField("panic", rv).Error("summary generator panicked, using fallback")
			summary = FallbackSummary(facts)
		}
	}()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	text, err := s.gen.GenerateSummary(ctx, facts)
	if err != nil {
		s.log.WithError(err).Warn("summary generation failed, using fallback")
		return FallbackSummary(facts)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		s.log.Warn("summary generator returned blank text, using fallback")
		return FallbackSummary(facts)
	}
	return text
}

// FallbackSummary is the fixed-template narrative built from the same four facts.
func FallbackSummary(facts SummaryFacts) string {
	return fmt.Sprintf(
		"During the reported period %s units were sold, generating total revenue of $%s. "+
			"The best-selling product was '%s', the clear customer favourite. "+
			"The '%s' branch led commercial performance.",
		core.FormatUnits(facts.TotalUnits),
		core.FormatMoney(facts.TotalRevenue),
		facts.TopSKU,
		facts.TopBranch,
	)
}
