// Package timing mutates partner per-day slot-state records. Both the
// assignment committer and the reschedule reconciler funnel their slot
// movements through here so the sorted/disjoint invariants hold after
// every write.
package timing

import (
	"time"

	"urbane/models"
	"urbane/slots"
)

// Fresh builds a timing record for a day with no prior reservations:
// the whole grid minus the reserved and non-working slots is available.
func Fresh(partnerID, dateID string, reserved, nonWorking []int, bookingID int64, now time.Time) *models.PartnerTiming {
	except := append(append([]int(nil), reserved...), nonWorking...)
	return &models.PartnerTiming{
		ID:              models.TimingID(partnerID, dateID),
		PartnerID:       partnerID,
		DateID:          dateID,
		Available:       slots.Grid(except),
		Booked:          slots.Sorted(append([]int(nil), reserved...)),
		Leave:           []int{},
		NonWorkingSlots: nonWorking,
		Bookings:        []models.SlotLogEntry{{BookingID: bookingID, Slots: reserved}},
		CreatedAt:       now,
	}
}

// Book moves the reserved slots from available to booked and upserts
// the day's log entry for the booking.
func Book(t *models.PartnerTiming, reserved []int, bookingID int64) {
	for _, s := range reserved {
		t.Available = slots.Remove(t.Available, s)
		if !slots.Contains(t.Booked, s) {
			t.Booked = append(t.Booked, s)
		}
	}

	found := false
	for i := range t.Bookings {
		if t.Bookings[i].BookingID == bookingID {
			t.Bookings[i].Slots = reserved
			found = true
			break
		}
	}
	if !found {
		t.Bookings = append(t.Bookings, models.SlotLogEntry{BookingID: bookingID, Slots: reserved})
	}

	sortAll(t)
}

// Revert releases a booking's slots. A slot claimed by an approved
// leave in the interim goes to leave rather than back to available; the
// booking's log entry is stripped.
func Revert(t *models.PartnerTiming, reserved []int, bookingID int64, approvedLeaveSlots []int) {
	for _, s := range reserved {
		t.Booked = slots.Remove(t.Booked, s)
		if slots.Contains(approvedLeaveSlots, s) {
			if !slots.Contains(t.Leave, s) {
				t.Leave = append(t.Leave, s)
			}
		} else if !slots.Contains(t.Available, s) {
			t.Available = append(t.Available, s)
		}
	}

	kept := t.Bookings[:0]
	for _, e := range t.Bookings {
		if e.BookingID != bookingID {
			kept = append(kept, e)
		}
	}
	t.Bookings = kept

	sortAll(t)
}

func sortAll(t *models.PartnerTiming) {
	slots.Sorted(t.Available)
	slots.Sorted(t.Booked)
	slots.Sorted(t.Leave)
}
