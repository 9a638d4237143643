package models

import "time"

// Booking statuses. Later lifecycle states (confirmed, tripstarted, ...)
// are written by other services; this one only ever sets pending and
// dead(NOR) and reads the rest.
const (
	StatusPending   = "pending"
	StatusDead      = "dead(NOR)"
	StatusCancelled = "cancelled"
)

// ActiveStatuses are the states that count toward a partner's workload
// for a given day.
var ActiveStatuses = []string{
	"pending", "confirmed", "tripstarted", "jobstarted", "jobfinished", "rated",
}

// GeoPoint is a GeoJSON point, coordinates ordered [longitude, latitude].
type GeoPoint struct {
	Type        string     `json:"type" bson:"type"`
	Coordinates [2]float64 `json:"coordinates" bson:"coordinates"`
}

func NewGeoPoint(lat, lng float64) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: [2]float64{lng, lat}}
}

// AssignedPartner is the partner snapshot embedded in a booking at
// assignment time.
type AssignedPartner struct {
	ID         string   `json:"id" bson:"id"`
	HubIDs     []string `json:"hubId,omitempty" bson:"hubId,omitempty"`
	Name       string   `json:"name" bson:"name"`
	Phone      string   `json:"phone,omitempty" bson:"phone,omitempty"`
	ProfileURL string   `json:"profileUrl,omitempty" bson:"profileUrl,omitempty"`
	Rating     string   `json:"rating" bson:"rating"`
}

// RescheduleEntry records one prior assignment of a rescheduled booking.
type RescheduleEntry struct {
	PartnerID      string    `json:"id" bson:"id"`
	PartnerName    string    `json:"name" bson:"name"`
	RescheduleTime time.Time `json:"rescheduleTime" bson:"rescheduleTime"`
	RescheduleBy   string    `json:"rescheduleBy" bson:"rescheduleBy"`
	Reason         string    `json:"reason,omitempty" bson:"reason,omitempty"`
	AgentID        string    `json:"agentId,omitempty" bson:"agentId,omitempty"`
	AgentName      string    `json:"agentName,omitempty" bson:"agentName,omitempty"`
}

// PartnerRef is a bare partner reference inside a slot map or a
// previous-partner list.
type PartnerRef struct {
	ID string `json:"id" bson:"id"`
}

// Booking is the persisted booking document, keyed by order id.
type Booking struct {
	OrderID           string            `json:"orderId" bson:"_id"`
	BookingID         int64             `json:"bookingid" bson:"bookingid"`
	ClientID          string            `json:"clientid" bson:"clientid"`
	ClientName        string            `json:"name" bson:"name"`
	Address           string            `json:"address,omitempty" bson:"address,omitempty"`
	Minutes           int               `json:"bookingsminutes" bson:"bookingsminutes"`
	Price             float64           `json:"priceToPay" bson:"priceToPay"`
	WalletMoney       float64           `json:"walletMoney,omitempty" bson:"walletMoney,omitempty"`
	CouponID          string            `json:"couponId,omitempty" bson:"couponId,omitempty"`
	Latitude          float64           `json:"latitude" bson:"latitude"`
	Longitude         float64           `json:"longitude" bson:"longitude"`
	SlotNumber        int               `json:"slotnumber" bson:"slotnumber"`
	BookedSlots       []int             `json:"listofbookedslots" bson:"listofbookedslots"`
	Credits           int               `json:"credits" bson:"credits"`
	Status            string            `json:"status" bson:"status"`
	PreferredPartner  string            `json:"preferredPartner" bson:"preferredPartner"`
	AssignedPartnerID string            `json:"assignedpartnerid,omitempty" bson:"assignedpartnerid,omitempty"`
	Assigned          *AssignedPartner  `json:"assigned,omitempty" bson:"assigned,omitempty"`
	BookingDate       time.Time         `json:"bookingdate" bson:"bookingdate"`
	BookingDateISO    string            `json:"bookingdateIsoString" bson:"bookingdateIsoString"`
	Point             GeoPoint          `json:"point" bson:"point"`
	GeoHash           string            `json:"geoHash,omitempty" bson:"geoHash,omitempty"`
	CreatedAt         time.Time         `json:"createdat" bson:"createdat"`
	RescheduledAt     *time.Time        `json:"rescheduledAt,omitempty" bson:"rescheduledAt,omitempty"`
	Reschedule        []RescheduleEntry `json:"reschedule,omitempty" bson:"reschedule,omitempty"`
	PreviousPartner   []PartnerRef      `json:"previousPartner,omitempty" bson:"previousPartner,omitempty"`
	NotificationSeen  bool              `json:"newBookingNotificationReceived" bson:"newBookingNotificationReceived"`
}

// ClientRescheduleCount counts history entries attributed to the client,
// used to enforce the two-reschedule limit.
func (b *Booking) ClientRescheduleCount() int {
	n := 0
	for _, r := range b.Reschedule {
		if r.RescheduleBy == "client" {
			n++
		}
	}
	return n
}
