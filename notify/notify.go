// Package notify pushes job alerts to partner devices through the
// external push gateway. Everything here is fire-and-forget; a lost
// notification never fails a booking.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"urbane/models"
	"urbane/store"
)

type pushPayload struct {
	Token   string `json:"token"`
	Title   string `json:"title"`
	Body    string `json:"body"`
	Channel string `json:"channel"`
}

type Notifier struct {
	Store store.Store
	URL   string
	HTTP  *http.Client
}

func NewNotifier(st store.Store) *Notifier {
	return &Notifier{
		Store: st,
		URL:   os.Getenv("PUSH_API_URL"),
		HTTP:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (n *Notifier) push(ctx context.Context, p pushPayload) error {
	if n.URL == "" {
		return fmt.Errorf("notify: push url not configured")
	}
	body, err := json.Marshal(p)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("notify: push gateway returned %d", resp.StatusCode)
	}
	return nil
}

func (n *Notifier) token(ctx context.Context, partnerID string) (string, error) {
	p, err := n.Store.Partner(ctx, partnerID)
	if err != nil {
		return "", err
	}
	return p.FCMToken, nil
}

// NotifyAssignment tells the assigned partner about a new or
// rescheduled job. On successful delivery of a new-job alert the
// booking's delivery flag is set so the partner app stops polling.
func (n *Notifier) NotifyAssignment(ctx context.Context, b *models.Booking, rescheduled bool) {
	token, err := n.token(ctx, b.AssignedPartnerID)
	if err != nil {
		log.Printf("[notify] partner %s lookup failed: %v", b.AssignedPartnerID, err)
		return
	}
	if token == "" {
		log.Printf("[notify] partner %s has no device token", b.AssignedPartnerID)
		return
	}

	p := pushPayload{
		Token:   token,
		Title:   "New Job Alert",
		Body:    fmt.Sprintf("You have a new booking on %s", b.BookingDate.Format("02 Jan 2006")),
		Channel: "new_booking",
	}
	if rescheduled {
		p.Title = "Booking Rescheduled"
		p.Body = fmt.Sprintf("Booking #%d was moved to %s", b.BookingID, b.BookingDate.Format("02 Jan 2006"))
		p.Channel = "rescheduled_booking"
	}

	if err := n.push(ctx, p); err != nil {
		log.Printf("[notify] push to %s failed: %v", b.AssignedPartnerID, err)
		return
	}
	if !rescheduled {
		if err := n.Store.SetNotificationSeen(ctx, b.OrderID, true); err != nil {
			log.Printf("[notify] flag update for %s failed: %v", b.OrderID, err)
		}
	}
}

// NotifyMissedLead tells a skipped partner why the job went elsewhere.
func (n *Notifier) NotifyMissedLead(ctx context.Context, partnerID string, b *models.Booking, reason string) {
	token, err := n.token(ctx, partnerID)
	if err != nil || token == "" {
		return
	}

	reason = strings.TrimSpace(reason)
	body := "A booking in your area went to another partner"
	if reason != "" {
		body = "Missed booking: " + reason
	}
	if err := n.push(ctx, pushPayload{
		Token:   token,
		Title:   "Missed Lead",
		Body:    body,
		Channel: "missed_lead",
	}); err != nil {
		log.Printf("[notify] missed-lead push to %s failed: %v", partnerID, err)
	}
}
