package app

// SummaryRequest is the input for requesting an emailed sales summary.
// From and To are optional YYYY-MM-DD dates; if either is missing the
// trailing seven days are used.
type SummaryRequest struct {
	From          string `validate:"omitempty,datetime=2006-01-02"`
	To            string `validate:"omitempty,datetime=2006-01-02"`
	Branch        string `validate:"max=100"`
	EmailTo       string `validate:"required,email,max=254"`
	Premium       bool
	IncludeCharts bool
	AttachPDF     bool
}
