package models

// Result statuses surfaced to the caller.
const (
	ResultPlaced      = "Placed"
	ResultDead        = "Dead"
	ResultRescheduled = "Rescheduled"
	ResultError       = "Error"
	ResultUnknown     = "Unknown"
)

// Result is the uniform outcome envelope every pipeline stage returns.
// Components convert their failures into it instead of bubbling raw
// errors up to the orchestrator.
type Result struct {
	StatusCode int    `json:"statusCode"`
	Status     string `json:"status"`
	Message    string `json:"message"`
	BookingID  int64  `json:"bookingId,omitempty"`
	PartnerID  string `json:"partnerId,omitempty"`
}

// OK reports whether the stage succeeded.
func (r Result) OK() bool {
	return r.StatusCode == 200
}
