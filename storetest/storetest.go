// Package storetest provides an in-memory store.Store for exercising
// the allocation pipeline without a database.
package storetest

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"urbane/models"
	"urbane/slots"
	"urbane/store"
)

// Mem is a map-backed store.Store and store.Tx. RunTxn executes the
// body directly against the maps; there is no rollback, so a test that
// wants transaction-failure behaviour sets TxnErr.
type Mem struct {
	mu sync.Mutex

	Bookings    map[string]*models.Booking
	Rescheduled map[string]*models.Booking
	Partners    map[string]*models.PartnerProfile
	Timings     map[string]*models.PartnerTiming
	Leaves      []*models.PartnerLeave
	Users       map[string]*models.User
	CreditInfos map[string]*models.CreditInfo
	CreditTxns  []*models.CreditTransaction
	MissedLeads map[string]*models.MissedLead
	BookingLogs map[string]*models.BookingLog
	Config      *models.DistanceConfig
	CounterVal  int64
	DayCounts   map[string]int // partnerID_dateID -> active bookings
	DistanceHit int

	// TxnErr, when set, fails RunTxn before the body runs.
	TxnErr error
}

func New() *Mem {
	return &Mem{
		Bookings:    map[string]*models.Booking{},
		Rescheduled: map[string]*models.Booking{},
		Partners:    map[string]*models.PartnerProfile{},
		Timings:     map[string]*models.PartnerTiming{},
		Users:       map[string]*models.User{},
		CreditInfos: map[string]*models.CreditInfo{},
		MissedLeads: map[string]*models.MissedLead{},
		BookingLogs: map[string]*models.BookingLog{},
		DayCounts:   map[string]int{},
	}
}

// clone deep-copies a document so callers never alias stored state.
func clone[T any](v *T) *T {
	if v == nil {
		return nil
	}
	data, _ := json.Marshal(v)
	out := new(T)
	_ = json.Unmarshal(data, out)
	return out
}

func (m *Mem) Booking(_ context.Context, orderID string) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.Bookings[orderID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return clone(b), nil
}

func (m *Mem) Partner(_ context.Context, partnerID string) (*models.PartnerProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Partners[partnerID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return clone(p), nil
}

func (m *Mem) Timing(_ context.Context, partnerID, dateID string) (*models.PartnerTiming, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.Timings[models.TimingID(partnerID, dateID)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return clone(t), nil
}

func (m *Mem) PartnerDayBookingCount(_ context.Context, partnerID string, day time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.DayCounts[partnerID+"_"+slots.DateID(day)], nil
}

func (m *Mem) ApprovedLeave(_ context.Context, partnerID, dateID string) (*models.PartnerLeave, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.Leaves {
		if l.PartnerID != partnerID || l.Status != "approved" {
			continue
		}
		for _, d := range l.DayList {
			if d == dateID {
				return clone(l), nil
			}
		}
	}
	return nil, store.ErrNotFound
}

func (m *Mem) User(_ context.Context, clientID string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.Users[clientID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return clone(u), nil
}

func (m *Mem) UpdateWallet(_ context.Context, clientID string, balance float64, removeCouponID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.Users[clientID]
	if !ok {
		return store.ErrNotFound
	}
	u.Payment.Balance = balance
	if removeCouponID != "" {
		kept := u.CouponIDs[:0]
		for _, id := range u.CouponIDs {
			if id != removeCouponID {
				kept = append(kept, id)
			}
		}
		u.CouponIDs = kept
	}
	return nil
}

func (m *Mem) DistanceConfig(_ context.Context) (*models.DistanceConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Config == nil {
		return nil, store.ErrNotFound
	}
	return clone(m.Config), nil
}

func (m *Mem) BumpDistanceHits(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DistanceHit++
	return nil
}

func (m *Mem) RunTxn(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	if m.TxnErr != nil {
		return m.TxnErr
	}
	return fn(ctx, m)
}

// ---- store.Tx ----

func (m *Mem) Counter(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CounterVal, nil
}

func (m *Mem) SetCounter(_ context.Context, n int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CounterVal = n
	return nil
}

func (m *Mem) PutBooking(_ context.Context, b *models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Bookings[b.OrderID] = clone(b)
	return nil
}

func (m *Mem) UpdateBooking(_ context.Context, b *models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Bookings[b.OrderID]; !ok {
		return store.ErrNotFound
	}
	m.Bookings[b.OrderID] = clone(b)
	return nil
}

func (m *Mem) SnapshotRescheduled(_ context.Context, b *models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Rescheduled[b.OrderID] = clone(b)
	return nil
}

func (m *Mem) PutTiming(_ context.Context, t *models.PartnerTiming) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Timings[t.ID] = clone(t)
	return nil
}

func (m *Mem) CreditInfo(_ context.Context, partnerID string) (*models.CreditInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ci, ok := m.CreditInfos[partnerID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return clone(ci), nil
}

func (m *Mem) PutCreditInfo(_ context.Context, ci *models.CreditInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreditInfos[ci.PartnerID] = clone(ci)
	return nil
}

func (m *Mem) AppendCreditTransaction(_ context.Context, ct *models.CreditTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreditTxns = append(m.CreditTxns, clone(ct))
	return nil
}

func (m *Mem) MissedLead(_ context.Context, partnerID, orderID string) (*models.MissedLead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ml, ok := m.MissedLeads[models.MissedLeadID(partnerID, orderID)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return clone(ml), nil
}

func (m *Mem) PutMissedLead(_ context.Context, ml *models.MissedLead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MissedLeads[ml.ID] = clone(ml)
	return nil
}

func (m *Mem) DeleteMissedLead(_ context.Context, partnerID, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.MissedLeads, models.MissedLeadID(partnerID, orderID))
	return nil
}

func (m *Mem) BookingLog(_ context.Context, partnerID string) (*models.BookingLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bl, ok := m.BookingLogs[partnerID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return clone(bl), nil
}

func (m *Mem) PutBookingLog(_ context.Context, bl *models.BookingLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BookingLogs[bl.PartnerID] = clone(bl)
	return nil
}

// SetNotificationSeen flips the push-delivery flag on a booking.
func (m *Mem) SetNotificationSeen(_ context.Context, orderID string, seen bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.Bookings[orderID]
	if !ok {
		return store.ErrNotFound
	}
	b.NotificationSeen = seen
	return nil
}

var _ store.Store = (*Mem)(nil)
var _ store.Tx = (*Mem)(nil)
