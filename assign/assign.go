// Package assign commits an allocation decision: the sequential booking
// id, the booking document, and the partner's timing mutation land in
// one transaction so a retry never observes a half-assigned order.
package assign

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"urbane/models"
	"urbane/slots"
	"urbane/store"
	"urbane/timing"
	"urbane/utils"
)

// Request carries the validated booking input into the committer.
type Request struct {
	OrderID          string
	ClientID         string
	ClientName       string
	Address          string
	Minutes          int
	Price            float64
	WalletMoney      float64
	CouponID         string
	Latitude         float64
	Longitude        float64
	SlotNumber       int
	PreferredPartner string
	BookingDate      time.Time
	BookingDateISO   string
}

// Credits a partner spends to accept the booking.
func Credits(price float64) int {
	return int(math.Round(price / 50))
}

// DeadCredits is the credit value recorded on an unassignable booking,
// net of the platform's lead fee.
func DeadCredits(price float64) int {
	return int(math.Round((price - 99) / 50))
}

type Committer struct {
	Store store.Store
	Now   func() time.Time
}

func NewCommitter(st store.Store) *Committer {
	return &Committer{Store: st, Now: time.Now}
}

func (c *Committer) build(req *Request, id int64, status string) *models.Booking {
	credits := Credits(req.Price)
	if status == models.StatusDead {
		credits = DeadCredits(req.Price)
	}
	return &models.Booking{
		OrderID:          req.OrderID,
		BookingID:        id,
		ClientID:         req.ClientID,
		ClientName:       req.ClientName,
		Address:          req.Address,
		Minutes:          req.Minutes,
		Price:            req.Price,
		WalletMoney:      req.WalletMoney,
		CouponID:         req.CouponID,
		Latitude:         req.Latitude,
		Longitude:        req.Longitude,
		SlotNumber:       req.SlotNumber,
		BookedSlots:      slots.Reserved(req.Minutes, req.SlotNumber),
		Credits:          credits,
		Status:           status,
		PreferredPartner: req.PreferredPartner,
		BookingDate:      req.BookingDate,
		BookingDateISO:   req.BookingDateISO,
		Point:            models.NewGeoPoint(req.Latitude, req.Longitude),
		GeoHash:          utils.Geohash(req.Latitude, req.Longitude),
		CreatedAt:        c.Now(),
	}
}

// Commit assigns the booking to partnerID. The partner snapshot is read
// before the transaction; everything written happens inside it.
func (c *Committer) Commit(ctx context.Context, req *Request, partnerID string) (*models.Booking, error) {
	profile, err := c.Store.Partner(ctx, partnerID)
	if err != nil {
		return nil, fmt.Errorf("assign: partner %s: %w", partnerID, err)
	}

	reserved := slots.Reserved(req.Minutes, req.SlotNumber)
	dateID := slots.DateID(req.BookingDate)

	var booking *models.Booking
	err = c.Store.RunTxn(ctx, func(ctx context.Context, tx store.Tx) error {
		n, err := tx.Counter(ctx)
		if err != nil {
			return err
		}
		id := n + 1
		if err := tx.SetCounter(ctx, id); err != nil {
			return err
		}

		booking = c.build(req, id, models.StatusPending)
		booking.AssignedPartnerID = partnerID
		booking.Assigned = &models.AssignedPartner{
			ID:         profile.ID,
			HubIDs:     profile.HubIDs,
			Name:       profile.Name,
			Phone:      profile.Phone,
			ProfileURL: profile.ProfileURL,
			Rating:     strconv.FormatFloat(profile.AvgRating, 'f', -1, 64),
		}
		if err := tx.PutBooking(ctx, booking); err != nil {
			return err
		}

		t, err := tx.Timing(ctx, partnerID, dateID)
		switch {
		case err == store.ErrNotFound:
			t = timing.Fresh(partnerID, dateID, reserved, profile.NonWorkingSlots, id, c.Now())
		case err != nil:
			return err
		default:
			timing.Book(t, reserved, id)
		}
		return tx.PutTiming(ctx, t)
	})
	if err != nil {
		return nil, fmt.Errorf("assign: commit %s: %w", req.OrderID, err)
	}
	return booking, nil
}

// RecordDead persists the booking with the terminal status the
// eligibility lookup decided, dead(NOR) when the caller has none. It
// still consumes a sequential id so support can reference the order.
func (c *Committer) RecordDead(ctx context.Context, req *Request, status string) (*models.Booking, error) {
	if status == "" {
		status = models.StatusDead
	}
	var booking *models.Booking
	err := c.Store.RunTxn(ctx, func(ctx context.Context, tx store.Tx) error {
		n, err := tx.Counter(ctx)
		if err != nil {
			return err
		}
		id := n + 1
		if err := tx.SetCounter(ctx, id); err != nil {
			return err
		}
		booking = c.build(req, id, status)
		return tx.PutBooking(ctx, booking)
	})
	if err != nil {
		return nil, fmt.Errorf("assign: record dead %s: %w", req.OrderID, err)
	}
	return booking, nil
}
