// Package missedlead tracks partners who were in line for an order but
// did not get it, so the partner app can surface lost demand.
package missedlead

import (
	"context"
	"fmt"
	"time"

	"urbane/models"
	"urbane/recheck"
	"urbane/store"
)

const reasonRescheduled = "Booking rescheduled"

type Recorder struct {
	Store store.Store
	Now   func() time.Time
}

func NewRecorder(st store.Store) *Recorder {
	return &Recorder{Store: st, Now: time.Now}
}

func (r *Recorder) upsert(ctx context.Context, tx store.Tx, b *models.Booking, partnerID, reason string) error {
	now := r.Now()
	ml, err := tx.MissedLead(ctx, partnerID, b.OrderID)
	if err == store.ErrNotFound {
		ml = &models.MissedLead{
			ID:        models.MissedLeadID(partnerID, b.OrderID),
			PartnerID: partnerID,
			OrderID:   b.OrderID,
			CreatedAt: now,
		}
	} else if err != nil {
		return err
	}

	ml.BookingID = b.BookingID
	ml.BookingDate = b.BookingDate
	ml.Reason = reason
	ml.Address = b.Address
	ml.ClientName = b.ClientName
	ml.Amount = b.Price
	ml.BookedSlots = b.BookedSlots
	ml.MissedAt = now
	return tx.PutMissedLead(ctx, ml)
}

// Record writes one missed-lead document per skipped candidate. Repeat
// misses for the same order update the existing document in place.
func (r *Recorder) Record(ctx context.Context, b *models.Booking, misses []recheck.Miss) error {
	if len(misses) == 0 {
		return nil
	}
	err := r.Store.RunTxn(ctx, func(ctx context.Context, tx store.Tx) error {
		for _, m := range misses {
			if err := r.upsert(ctx, tx, b, m.PartnerID, m.Reason); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("missedlead: record %s: %w", b.OrderID, err)
	}
	return nil
}

// ReconcileReschedule moves the miss bookkeeping after a reschedule:
// the partner who now holds the booking no longer missed it, and the
// partner who lost it did.
func (r *Recorder) ReconcileReschedule(ctx context.Context, b *models.Booking, oldPartnerID, newPartnerID string) error {
	if oldPartnerID == newPartnerID {
		return nil
	}
	err := r.Store.RunTxn(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := tx.DeleteMissedLead(ctx, newPartnerID, b.OrderID); err != nil {
			return err
		}
		return r.upsert(ctx, tx, b, oldPartnerID, reasonRescheduled)
	})
	if err != nil {
		return fmt.Errorf("missedlead: reconcile %s: %w", b.OrderID, err)
	}
	return nil
}
