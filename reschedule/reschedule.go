// Package reschedule moves a placed booking to a new partner, date or
// slot. The snapshot, the credit refund, the booking rewrite and both
// timing mutations commit in one transaction.
package reschedule

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"urbane/models"
	"urbane/slots"
	"urbane/store"
	"urbane/timing"
	"urbane/utils"

	"golang.org/x/sync/errgroup"
)

// Request is a validated reschedule command against an existing booking.
type Request struct {
	Booking      *models.Booking
	NewPartnerID string
	NewSlot      int
	NewDate      time.Time
	NewDateISO   string
	Role         string
	Reason       string
	AgentID      string
	AgentName    string
}

// Outcome reports what the reconciler changed, for downstream side
// effects (missed leads, notifications).
type Outcome struct {
	Booking      *models.Booking
	OldPartnerID string
	NewPartnerID string
	SamePartner  bool
}

type Reconciler struct {
	Store store.Store
	Now   func() time.Time
}

func NewReconciler(st store.Store) *Reconciler {
	return &Reconciler{Store: st, Now: time.Now}
}

// creditRefundable reports whether the old partner already committed to
// the job. Pending bookings have not cost the partner anything yet and
// cancelled ones were settled elsewhere.
func creditRefundable(status string) bool {
	return status != models.StatusPending && status != models.StatusCancelled
}

func leaveSlots(l *models.PartnerLeave, dateID string) []int {
	if l == nil {
		return nil
	}
	return l.SlotsPerDay[dateID]
}

// applyLeave marks approved-leave slots on a freshly created timing
// record.
func applyLeave(t *models.PartnerTiming, leave []int) {
	for _, s := range leave {
		t.Available = slots.Remove(t.Available, s)
		if !slots.Contains(t.Leave, s) {
			t.Leave = append(t.Leave, s)
		}
	}
	slots.Sorted(t.Leave)
}

// Reconcile applies the reschedule. Reads that do not need transaction
// isolation (leave documents, the new partner's profile) run up front in
// parallel.
func (r *Reconciler) Reconcile(ctx context.Context, req *Request) (*Outcome, error) {
	old := req.Booking
	oldPartnerID := old.AssignedPartnerID
	oldDateID := slots.DateID(old.BookingDate)
	newDateID := slots.DateID(req.NewDate)
	newReserved := slots.Reserved(old.Minutes, req.NewSlot)
	samePartner := req.NewPartnerID == oldPartnerID
	sameTimingDoc := samePartner && newDateID == oldDateID

	var (
		oldLeave, newLeave *models.PartnerLeave
		newProfile         *models.PartnerProfile
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		l, err := r.Store.ApprovedLeave(gctx, oldPartnerID, oldDateID)
		if err != nil && err != store.ErrNotFound {
			return err
		}
		oldLeave = l
		return nil
	})
	g.Go(func() error {
		l, err := r.Store.ApprovedLeave(gctx, req.NewPartnerID, newDateID)
		if err != nil && err != store.ErrNotFound {
			return err
		}
		newLeave = l
		return nil
	})
	g.Go(func() error {
		p, err := r.Store.Partner(gctx, req.NewPartnerID)
		if err != nil {
			return fmt.Errorf("partner %s: %w", req.NewPartnerID, err)
		}
		newProfile = p
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("reschedule: %w", err)
	}

	updated := r.rewrite(old, req, newProfile, newReserved)

	err := r.Store.RunTxn(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := tx.SnapshotRescheduled(ctx, old); err != nil {
			return err
		}

		if creditRefundable(old.Status) {
			if err := r.refundCredits(ctx, tx, old, oldPartnerID); err != nil {
				return err
			}
		}

		if err := tx.UpdateBooking(ctx, updated); err != nil {
			return err
		}

		if sameTimingDoc {
			// one record: compute the revert+book delta in memory and
			// write once, so a moved-within-day booking never momentarily
			// frees its own slots
			t, err := tx.Timing(ctx, oldPartnerID, oldDateID)
			if err == store.ErrNotFound {
				t = timing.Fresh(oldPartnerID, oldDateID, newReserved, newProfile.NonWorkingSlots, old.BookingID, r.Now())
				applyLeave(t, leaveSlots(oldLeave, oldDateID))
				return tx.PutTiming(ctx, t)
			}
			if err != nil {
				return err
			}
			timing.Revert(t, old.BookedSlots, old.BookingID, leaveSlots(oldLeave, oldDateID))
			timing.Book(t, newReserved, old.BookingID)
			return tx.PutTiming(ctx, t)
		}

		oldT, err := tx.Timing(ctx, oldPartnerID, oldDateID)
		switch {
		case err == store.ErrNotFound:
			// nothing to release
		case err != nil:
			return err
		default:
			timing.Revert(oldT, old.BookedSlots, old.BookingID, leaveSlots(oldLeave, oldDateID))
			if err := tx.PutTiming(ctx, oldT); err != nil {
				return err
			}
		}

		newT, err := tx.Timing(ctx, req.NewPartnerID, newDateID)
		switch {
		case err == store.ErrNotFound:
			newT = timing.Fresh(req.NewPartnerID, newDateID, newReserved, newProfile.NonWorkingSlots, old.BookingID, r.Now())
			applyLeave(newT, leaveSlots(newLeave, newDateID))
		case err != nil:
			return err
		default:
			timing.Book(newT, newReserved, old.BookingID)
		}
		return tx.PutTiming(ctx, newT)
	})
	if err != nil {
		return nil, fmt.Errorf("reschedule: commit %s: %w", old.OrderID, err)
	}

	return &Outcome{
		Booking:      updated,
		OldPartnerID: oldPartnerID,
		NewPartnerID: req.NewPartnerID,
		SamePartner:  samePartner,
	}, nil
}

// rewrite builds the post-reschedule booking document. The input
// booking is never mutated.
func (r *Reconciler) rewrite(old *models.Booking, req *Request, profile *models.PartnerProfile, reserved []int) *models.Booking {
	now := r.Now()
	b := *old
	b.Status = models.StatusPending
	b.SlotNumber = req.NewSlot
	b.BookedSlots = reserved
	b.BookingDate = req.NewDate
	b.BookingDateISO = req.NewDateISO
	b.AssignedPartnerID = req.NewPartnerID
	b.Assigned = &models.AssignedPartner{
		ID:         profile.ID,
		HubIDs:     profile.HubIDs,
		Name:       profile.Name,
		Phone:      profile.Phone,
		ProfileURL: profile.ProfileURL,
		Rating:     strconv.FormatFloat(profile.AvgRating, 'f', -1, 64),
	}
	b.RescheduledAt = &now

	oldName := ""
	if old.Assigned != nil {
		oldName = old.Assigned.Name
	}
	b.Reschedule = append(append([]models.RescheduleEntry(nil), old.Reschedule...), models.RescheduleEntry{
		PartnerID:      old.AssignedPartnerID,
		PartnerName:    oldName,
		RescheduleTime: now,
		RescheduleBy:   req.Role,
		Reason:         req.Reason,
		AgentID:        req.AgentID,
		AgentName:      req.AgentName,
	})
	b.PreviousPartner = append(append([]models.PartnerRef(nil), old.PreviousPartner...),
		models.PartnerRef{ID: old.AssignedPartnerID})

	if req.NewPartnerID != old.AssignedPartnerID {
		b.NotificationSeen = false
	}
	return &b
}

func (r *Reconciler) refundCredits(ctx context.Context, tx store.Tx, old *models.Booking, partnerID string) error {
	ci, err := tx.CreditInfo(ctx, partnerID)
	if err == store.ErrNotFound {
		ci = &models.CreditInfo{PartnerID: partnerID}
	} else if err != nil {
		return err
	}

	before := ci.AvailableCredits
	ci.AvailableCredits += old.Credits
	if err := tx.PutCreditInfo(ctx, ci); err != nil {
		return err
	}

	// ledger amounts are rupees, ten per credit
	return tx.AppendCreditTransaction(ctx, &models.CreditTransaction{
		ID:            utils.GetUUID(),
		PartnerID:     partnerID,
		Amount:        old.Credits * 10,
		Count:         old.Credits,
		DateTime:      r.Now(),
		Message:       "reimburse",
		OrderID:       old.BookingID,
		Type:          "recharge",
		AmountBefore:  before * 10,
		CreditsBefore: before,
		AmountAfter:   ci.AvailableCredits * 10,
		CreditsAfter:  ci.AvailableCredits,
	})
}
