package models

// OutboundMessageRequest is a message pushed to a WhatsApp recipient.
type OutboundMessageRequest struct {
	To         string `json:"to" validate:"required,numeric,max=20"`
	Message    string `json:"message" validate:"required,max=4096"`
	PreviewURL bool   `json:"preview_url"`
}

// WeeklyReportDelivery tells which sinks received a generated weekly report.
type WeeklyReportDelivery struct {
	Report   WeeklyReport `json:"report"`
	Archived bool         `json:"archived"`
	Exported bool         `json:"exported"`
	Notified bool         `json:"notified"`
	Errors   []string     `json:"errors,omitempty"`
}
