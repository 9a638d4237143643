// Package store is the narrow contract between the allocation core and
// the document database. The core never touches collections directly;
// everything it needs is expressed here so the pipeline can be exercised
// against an in-memory fake.
package store

import (
	"context"
	"errors"
	"time"

	"urbane/models"
)

// ErrNotFound is returned for any missing document.
var ErrNotFound = errors.New("store: not found")

// Tx is the write surface available inside one multi-document
// transaction. The transaction body may be re-executed on write
// conflicts, so callers keep it free of external side effects.
type Tx interface {
	// Counter returns the last issued sequential booking id (0 when the
	// counter document does not exist yet).
	Counter(ctx context.Context) (int64, error)
	SetCounter(ctx context.Context, n int64) error

	PutBooking(ctx context.Context, b *models.Booking) error
	UpdateBooking(ctx context.Context, b *models.Booking) error
	// SnapshotRescheduled archives the pre-mutation copy of a booking.
	SnapshotRescheduled(ctx context.Context, b *models.Booking) error

	Timing(ctx context.Context, partnerID, dateID string) (*models.PartnerTiming, error)
	PutTiming(ctx context.Context, t *models.PartnerTiming) error

	CreditInfo(ctx context.Context, partnerID string) (*models.CreditInfo, error)
	PutCreditInfo(ctx context.Context, ci *models.CreditInfo) error
	AppendCreditTransaction(ctx context.Context, ct *models.CreditTransaction) error

	MissedLead(ctx context.Context, partnerID, orderID string) (*models.MissedLead, error)
	PutMissedLead(ctx context.Context, ml *models.MissedLead) error
	DeleteMissedLead(ctx context.Context, partnerID, orderID string) error

	BookingLog(ctx context.Context, partnerID string) (*models.BookingLog, error)
	PutBookingLog(ctx context.Context, bl *models.BookingLog) error
}

// Store is the read surface plus the transaction runner.
type Store interface {
	Booking(ctx context.Context, orderID string) (*models.Booking, error)
	Partner(ctx context.Context, partnerID string) (*models.PartnerProfile, error)
	Timing(ctx context.Context, partnerID, dateID string) (*models.PartnerTiming, error)
	// PartnerDayBookingCount counts a partner's active bookings on the
	// given calendar day.
	PartnerDayBookingCount(ctx context.Context, partnerID string, day time.Time) (int, error)
	// ApprovedLeave returns the approved leave document covering dateID
	// for the partner, or ErrNotFound.
	ApprovedLeave(ctx context.Context, partnerID, dateID string) (*models.PartnerLeave, error)
	User(ctx context.Context, clientID string) (*models.User, error)
	// UpdateWallet persists a client's new balance and optionally strips
	// a consumed coupon id.
	UpdateWallet(ctx context.Context, clientID string, balance float64, removeCouponID string) error

	// SetNotificationSeen flips the push-delivery flag on a booking.
	SetNotificationSeen(ctx context.Context, orderID string, seen bool) error

	DistanceConfig(ctx context.Context) (*models.DistanceConfig, error)
	// BumpDistanceHits increments the routing-API hit counters.
	BumpDistanceHits(ctx context.Context) error

	// RunTxn executes fn inside one serializable multi-document
	// transaction.
	RunTxn(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
