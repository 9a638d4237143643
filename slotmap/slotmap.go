// Package slotmap resolves which partners the external availability
// service considers eligible for a date and slot.
package slotmap

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"urbane/models"
	"urbane/slots"
)

// Reschedule carries the reschedule context forwarded to the
// availability service.
type Reschedule struct {
	Status     bool   `json:"status"`
	BookingID  string `json:"bookingId"`
	Role       string `json:"role"`
	SlotNumber int    `json:"-"`
}

// Query is one availability lookup.
type Query struct {
	Latitude         float64
	Longitude        float64
	Price            float64
	Date             string // YYYY-MM-DD
	ClientID         string
	Minutes          int
	SlotNumber       int
	PreferredPartner string // "" when the caller said "none"
	Reschedule       *Reschedule
}

// TargetSlot picks the slot index used for matching: the requested
// reschedule slot when rescheduling, the original request slot otherwise.
func (q Query) TargetSlot() int {
	if q.Reschedule != nil && q.Reschedule.Status {
		return q.Reschedule.SlotNumber
	}
	return q.SlotNumber
}

// SlotMap is the per-slot eligibility entry for the requested date.
type SlotMap struct {
	SlotNo            int                 `json:"slot no."`
	AvailablePartners []models.PartnerRef `json:"availablePartners"`
}

// Outcome codes follow the upstream convention: 200 found, 201 nothing
// available, 401/500 upstream failure.
type Outcome struct {
	StatusCode    int
	SlotMap       *SlotMap
	Message       string
	BookingStatus string
}

type coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type apiRequest struct {
	NewBookingCoordinates coordinates `json:"newBookingCoordinates"`
	PriceToPay            float64     `json:"priceToPay"`
	PickedDate            []string    `json:"pickedDate"`
	ClientID              string      `json:"clientId"`
	Rescheduling          Reschedule  `json:"rescheduling"`
	ServiceMinutes        int         `json:"serviceMinutes"`
	PreferredPartner      string      `json:"preferredPartner"`
}

type apiResponse struct {
	DatesMap []struct {
		DateID string    `json:"dateId"`
		Slots  []SlotMap `json:"slots"`
	} `json:"datesMap"`
	Error string `json:"error"`
}

// Resolver calls the slot-availability service. Single attempt, no
// retries; the orchestrator owns any retry policy.
type Resolver struct {
	URL  string
	HTTP *http.Client
}

func NewResolver() *Resolver {
	url := os.Getenv("SLOT_API_URL")
	if url == "" {
		url = "http://localhost:7070/availabilityOfSlots"
	}
	return &Resolver{
		URL:  url,
		HTTP: &http.Client{Timeout: 5 * time.Second},
	}
}

// Resolve maps the upstream response onto one of the three outcomes.
func (r *Resolver) Resolve(ctx context.Context, q Query) Outcome {
	reqBody := apiRequest{
		NewBookingCoordinates: coordinates{Latitude: q.Latitude, Longitude: q.Longitude},
		PriceToPay:            q.Price,
		PickedDate:            []string{q.Date},
		ClientID:              q.ClientID,
		ServiceMinutes:        q.Minutes,
		PreferredPartner:      q.PreferredPartner,
		Rescheduling:          Reschedule{Role: "admin"},
	}
	if q.Reschedule != nil {
		reqBody.Rescheduling = *q.Reschedule
		if reqBody.Rescheduling.Role == "" {
			reqBody.Rescheduling.Role = "admin"
		}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return Outcome{StatusCode: 500, Message: "Internal Server Error."}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL, bytes.NewReader(payload))
	if err != nil {
		return Outcome{StatusCode: 500, Message: "Internal Server Error."}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.HTTP.Do(httpReq)
	if err != nil {
		return Outcome{StatusCode: 401, Message: "Error occured in fetching slot data."}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Outcome{StatusCode: 401, Message: resp.Status}
	}

	var data apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return Outcome{StatusCode: 401, Message: "Error occured in fetching slot data."}
	}
	if data.Error != "" {
		return Outcome{StatusCode: 401, Message: data.Error}
	}

	if len(data.DatesMap) == 0 {
		if q.PreferredPartner != "" {
			return Outcome{
				StatusCode:    201,
				Message:       "Requested partner is unavailable at the moment. Please select another partner.",
				BookingStatus: models.StatusDead,
			}
		}
		return Outcome{
			StatusCode:    201,
			Message:       "Due to high demand, your booking can not be placed at the moment. Please try again later.",
			BookingStatus: models.StatusDead,
		}
	}

	dateID := slots.DateIDFromISO(q.Date)
	target := q.TargetSlot()
	for _, dm := range data.DatesMap {
		if dm.DateID != dateID {
			continue
		}
		for i := range dm.Slots {
			if dm.Slots[i].SlotNo == target {
				sm := dm.Slots[i]
				return Outcome{StatusCode: 200, SlotMap: &sm, BookingStatus: models.StatusPending}
			}
		}
	}

	// The requested date/slot combination is absent from the response;
	// same terminal outcome as an empty map.
	return Outcome{
		StatusCode:    201,
		Message:       "Due to high demand, your booking can not be placed at the moment. Please try again later.",
		BookingStatus: models.StatusDead,
	}
}
