package models

import "time"

// PartnerProfile is the partner document. Read-only from this service's
// perspective; the partner app owns it.
type PartnerProfile struct {
	ID               string   `json:"id" bson:"_id"`
	Name             string   `json:"name" bson:"name"`
	Phone            string   `json:"phone,omitempty" bson:"phone,omitempty"`
	ProfileURL       string   `json:"profileUrl,omitempty" bson:"profileUrl,omitempty"`
	Latitude         float64  `json:"latitude" bson:"latitude"`
	Longitude        float64  `json:"longitude" bson:"longitude"`
	Rank             float64  `json:"rank" bson:"rank"`
	AvgRating        float64  `json:"avgrating" bson:"avgrating"`
	CancellationRate float64  `json:"cancellationRate" bson:"cancellationRate"`
	NonWorkingSlots  []int    `json:"nonWorkingSlots" bson:"nonWorkingSlots"`
	HubIDs           []string `json:"hubIds,omitempty" bson:"hubIds,omitempty"`
	FCMToken         string   `json:"fcmtoken,omitempty" bson:"fcmtoken,omitempty"`
}

// SlotLogEntry ties a booking id to the slot indices it reserves inside
// a timing record's per-day booking log.
type SlotLogEntry struct {
	BookingID int64 `json:"bookingId" bson:"bookingId"`
	Slots     []int `json:"slots" bson:"slots"`
}

// PartnerTiming is a partner's per-day slot-state record, keyed
// "<partnerId>_<YYYYMMDD>". Created lazily on first reservation, never
// deleted.
type PartnerTiming struct {
	ID              string         `json:"id" bson:"_id"`
	PartnerID       string         `json:"partnerId" bson:"partnerId"`
	DateID          string         `json:"dateId" bson:"dateId"`
	Available       []int          `json:"available" bson:"available"`
	Booked          []int          `json:"booked" bson:"booked"`
	Leave           []int          `json:"leave" bson:"leave"`
	NonWorkingSlots []int          `json:"nonWorkingSlots" bson:"nonWorkingSlots"`
	Bookings        []SlotLogEntry `json:"bookings" bson:"bookings"`
	CreatedAt       time.Time      `json:"createdAt" bson:"createdAt"`
}

// TimingID builds a timing record key.
func TimingID(partnerID, dateID string) string {
	return partnerID + "_" + dateID
}

// PartnerLeave is an approved (or pending) leave request covering one or
// more days, with the slot indices claimed per day.
type PartnerLeave struct {
	ID          string           `json:"id" bson:"_id"`
	PartnerID   string           `json:"partnerId" bson:"partnerId"`
	Status      string           `json:"status" bson:"status"`
	DayList     []string         `json:"dayList" bson:"dayList"`
	SlotsPerDay map[string][]int `json:"slotsPerDay" bson:"slotsPerDay"`
}

// CreditInfo holds a partner's spendable credit balance, keyed by
// partner id.
type CreditInfo struct {
	PartnerID        string `json:"partnerId" bson:"_id"`
	AvailableCredits int    `json:"availablecredits" bson:"availablecredits"`
}

// CreditTransaction is one entry in a partner's credit ledger.
type CreditTransaction struct {
	ID            string    `json:"id" bson:"_id"`
	PartnerID     string    `json:"partnerId" bson:"partnerId"`
	Amount        int       `json:"amount" bson:"amount"`
	Count         int       `json:"count" bson:"count"`
	DateTime      time.Time `json:"datetime" bson:"datetime"`
	Message       string    `json:"message" bson:"message"`
	OrderID       int64     `json:"orderId" bson:"orderId"`
	Type          string    `json:"type" bson:"type"`
	AmountBefore  int       `json:"amountBefore" bson:"amountBefore"`
	CreditsBefore int       `json:"creditsBefore" bson:"creditsBefore"`
	AmountAfter   int       `json:"amountAfter" bson:"amountAfter"`
	CreditsAfter  int       `json:"creditsAfter" bson:"creditsAfter"`
}

// MissedLead records a partner who was a candidate for an order but got
// skipped, keyed "<partnerId>_<orderId>". Upserted in place on repeat
// misses for the same order.
type MissedLead struct {
	ID          string    `json:"id" bson:"_id"`
	PartnerID   string    `json:"partnerId" bson:"partnerId"`
	OrderID     string    `json:"orderId" bson:"orderId"`
	BookingID   int64     `json:"bookingId" bson:"bookingId"`
	BookingDate time.Time `json:"bookingDate" bson:"bookingDate"`
	Reason      string    `json:"reason" bson:"reason"`
	Address     string    `json:"address,omitempty" bson:"address,omitempty"`
	ClientName  string    `json:"name,omitempty" bson:"name,omitempty"`
	Amount      float64   `json:"amount" bson:"amount"`
	BookedSlots []int     `json:"bookedSlots" bson:"bookedSlots"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	MissedAt    time.Time `json:"missedAt" bson:"missedAt"`
}

func MissedLeadID(partnerID, orderID string) string {
	return partnerID + "_" + orderID
}

// BookingLogEntry is one booking inside a partner's per-day activity log.
type BookingLogEntry struct {
	BookingID      int64     `json:"bookingId" bson:"bookingId"`
	OrderID        string    `json:"orderId" bson:"orderId"`
	Status         string    `json:"status" bson:"status"`
	BookingDate    time.Time `json:"bookingDate" bson:"bookingDate"`
	Amount         float64   `json:"amount" bson:"amount"`
	RatedByPartner *float64  `json:"ratedByPartner,omitempty" bson:"ratedByPartner,omitempty"`
	RatedByClient  *float64  `json:"ratedByClient,omitempty" bson:"ratedByClient,omitempty"`
	Reviews        *string   `json:"reviews,omitempty" bson:"reviews,omitempty"`
}

// DayLog aggregates a partner's bookings for one calendar day (keyed
// DDMMYYYY in BookingLog.Logs).
type DayLog struct {
	Amount    float64           `json:"amount" bson:"amount"`
	Bookings  []BookingLogEntry `json:"bookings" bson:"bookings"`
	UpdatedAt time.Time         `json:"updatedAt" bson:"updatedAt"`
}

// BookingLog is a partner's booking-activity document, keyed by partner id.
type BookingLog struct {
	PartnerID string            `json:"partnerId" bson:"_id"`
	Logs      map[string]DayLog `json:"logs" bson:"logs"`
}

// User is the client document; only the wallet slice of it matters here.
type User struct {
	ID        string   `json:"id" bson:"_id"`
	Name      string   `json:"name" bson:"name"`
	Payment   Payment  `json:"payment" bson:"payment"`
	CouponIDs []string `json:"couponIds,omitempty" bson:"couponIds,omitempty"`
}

type Payment struct {
	Balance float64 `json:"balance" bson:"balance"`
}
