package mail

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sales-reports/internal/core"

	"github.com/sirupsen/logrus"
)

const (
	reportSubject  = "Sales Summary"
	premiumSubject = "Premium Sales Summary"
	failureSubject = "Error - Sales Summary"
)

// Deliverer sends report emails: one primary attempt, then at most one
// failure notice. It never retries and never returns an error.
type Deliverer struct {
	transport Transport
	timeout   time.Duration
	log       logrus.FieldLogger
}

// NewDeliverer constructs a Deliverer. A positive timeout bounds each send.
func NewDeliverer(transport Transport, timeout time.Duration, log logrus.FieldLogger) *Deliverer {
	return &Deliverer{transport: transport, timeout: timeout, log: log}
}

// Deliver sends the report. If that fails, a failure notice follows.
func (d *Deliverer) Deliver(ctx context.Context, res *core.AggregationResult, req core.ReportRequest) core.RequestState {
	err := d.send(ctx, ReportMessage(res, req))
	if err == nil {
		return core.StateDelivered
	}
	d.log.WithError(err).WithField("request_id", req.RequestID).Error("report email failed, sending failure notice")
	return d.NotifyFailure(ctx, req)
}

// NotifyFailure sends the generic failure notice for req. A failure here is
// logged and swallowed.
func (d *Deliverer) NotifyFailure(ctx context.Context, req core.ReportRequest) core.RequestState {
	if err := d.send(ctx, FailureNotice(req)); err != nil {
		d.log.WithError(err).WithField("request_id", req.RequestID).Error("failure notice email failed")
		return core.StateErrorSilent
	}
	return core.StateErrorNotified
}

func (d *Deliverer) send(ctx context.Context, msg Message) (err error) {
	defer func() {
		if rv := recover(); rv != nil {
			err = fmt.Errorf("mail transport panic: %v", rv)
		}
	}()
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	return d.transport.Send(ctx, msg)
}

// ReportMessage renders the summary email for a completed aggregation.
func ReportMessage(res *core.AggregationResult, req core.ReportRequest) Message {
	branch := res.BranchFilter
	if branch == "" {
		branch = "All branches"
	}

	var b strings.Builder
	b.WriteString("SALES SUMMARY\n")
	b.WriteString("===============================================\n\n")
	fmt.Fprintf(&b, "Period: %s to %s\n", res.Range.From.Format(core.DateLayout), res.Range.To.Format(core.DateLayout))
	fmt.Fprintf(&b, "Branch: %s\n\n", branch)
	b.WriteString("KEY METRICS\n")
	b.WriteString("===============================================\n")
	fmt.Fprintf(&b, "- Total sales: %s transactions\n", core.FormatUnits(int64(res.TotalSales)))
	fmt.Fprintf(&b, "- Units sold: %s units\n", core.FormatUnits(res.TotalUnits))
	fmt.Fprintf(&b, "- Total revenue: $%s\n", core.FormatMoney(res.TotalRevenue))
	fmt.Fprintf(&b, "- Best-selling product: %s\n", res.TopSKU)
	fmt.Fprintf(&b, "- Leading branch: %s\n\n", res.TopBranch)
	b.WriteString("SUMMARY\n")
	b.WriteString("===============================================\n")
	b.WriteString(res.Summary)
	b.WriteString("\n\n")
	if extras := requestedExtras(req.Flags); len(extras) > 0 {
		fmt.Fprintf(&b, "Requested extras: %s\n\n", strings.Join(extras, ", "))
	}
	b.WriteString("===============================================\n")
	fmt.Fprintf(&b, "Requested by: %s\n", req.RequestedBy)
	fmt.Fprintf(&b, "Request ID: %s\n\n", req.RequestID)
	b.WriteString("This is an automated message. Please do not reply.\n")

	subject := reportSubject
	if req.Flags.Premium {
		subject = premiumSubject
	}
	return Message{
		To:      req.EmailTo,
		Subject: fmt.Sprintf("%s: %s", subject, res.Range),
		Body:    b.String(),
	}
}

// FailureNotice renders the generic error email. It carries the request id
// and no report figures.
func FailureNotice(req core.ReportRequest) Message {
	body := fmt.Sprintf(`ERROR GENERATING SALES SUMMARY

Sorry, the sales summary you requested could not be generated.

Request ID: %s

Please try again later or contact your administrator.
`, req.RequestID)
	return Message{To: req.EmailTo, Subject: failureSubject, Body: body}
}

func requestedExtras(f core.Flags) []string {
	var out []string
	if f.IncludeCharts {
		out = append(out, "charts")
	}
	if f.AttachPDF {
		out = append(out, "PDF attachment")
	}
	return out
}
