package web

import (
	"net/http"

	"sales-reports/internal/app"
)

// summaryRequestBody is the JSON body of both summary endpoints. The flag
// fields are read only by the premium endpoint.
type summaryRequestBody struct {
	From          string `json:"from"`
	To            string `json:"to"`
	Branch        string `json:"branch"`
	EmailTo       string `json:"emailTo"`
	IncludeCharts bool   `json:"includeCharts"`
	AttachPDF     bool   `json:"attachPdf"`
}

// requestWeeklySummary handles POST /api/sales/summary/weekly.
func (h *Handler) requestWeeklySummary(w http.ResponseWriter, r *http.Request) {
	var body summaryRequestBody
	if !decodeJSON(w, r, &body) {
		return
	}
	h.admit(w, r, app.SummaryRequest{
		From:    body.From,
		To:      body.To,
		Branch:  body.Branch,
		EmailTo: body.EmailTo,
	})
}

// requestPremiumSummary handles POST /api/sales/summary/weekly/premium.
func (h *Handler) requestPremiumSummary(w http.ResponseWriter, r *http.Request) {
	var body summaryRequestBody
	if !decodeJSON(w, r, &body) {
		return
	}
	h.admit(w, r, app.SummaryRequest{
		From:          body.From,
		To:            body.To,
		Branch:        body.Branch,
		EmailTo:       body.EmailTo,
		Premium:       true,
		IncludeCharts: body.IncludeCharts,
		AttachPDF:     body.AttachPDF,
	})
}

func (h *Handler) admit(w http.ResponseWriter, r *http.Request, req app.SummaryRequest) {
	caller := callerFromContext(r.Context())
	if caller == nil {
		writeError(w, r, "not authenticated", "UNAUTHORIZED", http.StatusUnauthorized)
		return
	}

	ack, err := h.svc.RequestSummary(r.Context(), *caller, req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusAccepted, ack)
}
