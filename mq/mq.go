// Package mq decouples booking side effects (missed leads, activity
// logs, push notifications) from the request path via a redis pub/sub
// channel. A dropped event costs a notification, never a booking.
package mq

import (
	"context"
	"encoding/json"
	"log"

	"urbane/models"
	"urbane/rdx"
	"urbane/recheck"
)

const Channel = "booking-events"

// Event types.
const (
	EventAssigned    = "booking_assigned"
	EventRescheduled = "booking_rescheduled"
	EventMissedLeads = "missed_leads"
)

// Event is the side-effect message published after a commit.
type Event struct {
	Type         string          `json:"type"`
	Booking      *models.Booking `json:"booking"`
	Misses       []recheck.Miss  `json:"misses,omitempty"`
	OldPartnerID string          `json:"oldPartnerId,omitempty"`
	NewPartnerID string          `json:"newPartnerId,omitempty"`
}

// Emit publishes the event. Failures are logged and swallowed; the
// commit that triggered the event already happened.
func Emit(ctx context.Context, e Event) {
	if rdx.Conn == nil {
		log.Printf("[Emit] redis not connected, dropping %s event", e.Type)
		return
	}

	data, err := json.Marshal(e)
	if err != nil {
		log.Printf("[Emit] Failed to marshal %s event: %v", e.Type, err)
		return
	}
	if err := rdx.Conn.Publish(ctx, Channel, data).Err(); err != nil {
		log.Printf("[Emit] Failed to publish %s event: %v", e.Type, err)
	}
}
