// Package bookinglogs maintains each partner's per-day activity
// document, a map keyed DDMMYYYY with a running amount and the bookings
// that landed that day.
package bookinglogs

import (
	"context"
	"fmt"
	"time"

	"urbane/models"
	"urbane/slots"
	"urbane/store"
)

type Logger struct {
	Store store.Store
	Now   func() time.Time
}

func NewLogger(st store.Store) *Logger {
	return &Logger{Store: st, Now: time.Now}
}

// LogBooking upserts the booking into the partner's day log. A booking
// already present has its status refreshed without re-counting its
// amount.
func (l *Logger) LogBooking(ctx context.Context, partnerID string, b *models.Booking) error {
	err := l.Store.RunTxn(ctx, func(ctx context.Context, tx store.Tx) error {
		doc, err := tx.BookingLog(ctx, partnerID)
		if err == store.ErrNotFound {
			doc = &models.BookingLog{PartnerID: partnerID, Logs: map[string]models.DayLog{}}
		} else if err != nil {
			return err
		}
		if doc.Logs == nil {
			doc.Logs = map[string]models.DayLog{}
		}

		key := slots.DayKey(b.BookingDate)
		day := doc.Logs[key]

		found := false
		for i := range day.Bookings {
			if day.Bookings[i].BookingID == b.BookingID {
				day.Bookings[i].Status = b.Status
				day.Bookings[i].BookingDate = b.BookingDate
				found = true
				break
			}
		}
		if !found {
			day.Bookings = append(day.Bookings, models.BookingLogEntry{
				BookingID:   b.BookingID,
				OrderID:     b.OrderID,
				Status:      b.Status,
				BookingDate: b.BookingDate,
				Amount:      b.Price,
			})
			day.Amount += b.Price
		}
		day.UpdatedAt = l.Now()
		doc.Logs[key] = day

		return tx.PutBookingLog(ctx, doc)
	})
	if err != nil {
		return fmt.Errorf("bookinglogs: %s: %w", partnerID, err)
	}
	return nil
}
