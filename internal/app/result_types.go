package app

import "time"

// StatusProcessing is the only status an admitted request reports.
const StatusProcessing = "PROCESSING"

// SummaryAck is returned by RequestSummary once the event has been emitted.
type SummaryAck struct {
	RequestID     string    `json:"requestId"`
	Status        string    `json:"status"`
	Message       string    `json:"message"`
	EstimatedTime string    `json:"estimatedTime"`
	RequestedAt   time.Time `json:"requestedAt"`
	Features      []string  `json:"features,omitempty"` // premium requests only
}
