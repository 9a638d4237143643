package mq

import (
	"context"
	"encoding/json"
	"log"

	"urbane/bookinglogs"
	"urbane/missedlead"
	"urbane/notify"
	"urbane/rdx"
)

// Worker consumes booking events and runs the side effects.
type Worker struct {
	Missed   *missedlead.Recorder
	Logs     *bookinglogs.Logger
	Notifier *notify.Notifier
}

func NewWorker(m *missedlead.Recorder, l *bookinglogs.Logger, n *notify.Notifier) *Worker {
	return &Worker{Missed: m, Logs: l, Notifier: n}
}

// Start blocks on the subscription loop; run it in its own goroutine.
func (w *Worker) Start(ctx context.Context) {
	sub := rdx.Conn.Subscribe(ctx, Channel)
	defer sub.Close()
	ch := sub.Channel()

	log.Println("[BookingWorker] Listening for booking events...")

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var e Event
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				log.Printf("[BookingWorker] Failed to parse event: %v", err)
				continue
			}
			w.Dispatch(ctx, e)
		}
	}
}

// Dispatch runs one event's side effects. Each effect failure is logged
// independently so one broken integration does not starve the others.
func (w *Worker) Dispatch(ctx context.Context, e Event) {
	switch e.Type {
	case EventAssigned:
		w.Notifier.NotifyAssignment(ctx, e.Booking, false)
		if err := w.Logs.LogBooking(ctx, e.Booking.AssignedPartnerID, e.Booking); err != nil {
			log.Printf("[BookingWorker] %v", err)
		}

	case EventRescheduled:
		w.Notifier.NotifyAssignment(ctx, e.Booking, true)
		if err := w.Logs.LogBooking(ctx, e.Booking.AssignedPartnerID, e.Booking); err != nil {
			log.Printf("[BookingWorker] %v", err)
		}
		if err := w.Missed.ReconcileReschedule(ctx, e.Booking, e.OldPartnerID, e.NewPartnerID); err != nil {
			log.Printf("[BookingWorker] %v", err)
		}

	case EventMissedLeads:
		if err := w.Missed.Record(ctx, e.Booking, e.Misses); err != nil {
			log.Printf("[BookingWorker] %v", err)
			return
		}
		for _, m := range e.Misses {
			w.Notifier.NotifyMissedLead(ctx, m.PartnerID, e.Booking, m.Reason)
		}

	default:
		log.Printf("[BookingWorker] Unknown event type %q", e.Type)
	}
}
