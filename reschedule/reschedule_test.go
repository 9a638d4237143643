package reschedule

import (
	"context"
	"reflect"
	"testing"
	"time"

	"urbane/models"
	"urbane/slots"
	"urbane/storetest"
)

var (
	oldDay = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	newDay = time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)
)

func placedBooking(status string) *models.Booking {
	return &models.Booking{
		OrderID:           "ord-1",
		BookingID:         42,
		ClientID:          "client-1",
		Minutes:           60,
		Price:             499,
		Credits:           10,
		SlotNumber:        4,
		BookedSlots:       []int{4, 5},
		Status:            status,
		AssignedPartnerID: "p1",
		Assigned:          &models.AssignedPartner{ID: "p1", Name: "Ravi"},
		BookingDate:       oldDay,
		BookingDateISO:    oldDay.Format(time.RFC3339),
		NotificationSeen:  true,
	}
}

func seed(mem *storetest.Mem, b *models.Booking) {
	mem.Bookings[b.OrderID] = b
	mem.Partners["p1"] = &models.PartnerProfile{ID: "p1", Name: "Ravi", AvgRating: 4}
	mem.Partners["p2"] = &models.PartnerProfile{ID: "p2", Name: "Sita", AvgRating: 5}
	mem.Timings["p1_20260314"] = &models.PartnerTiming{
		ID: "p1_20260314", PartnerID: "p1", DateID: "20260314",
		Available: []int{6, 7},
		Booked:    []int{4, 5},
		Bookings:  []models.SlotLogEntry{{BookingID: 42, Slots: []int{4, 5}}},
	}
}

func reconciler(mem *storetest.Mem) *Reconciler {
	r := NewReconciler(mem)
	r.Now = func() time.Time { return newDay }
	return r
}

func TestReconcileCrossPartner(t *testing.T) {
	mem := storetest.New()
	b := placedBooking("confirmed")
	seed(mem, b)

	out, err := reconciler(mem).Reconcile(context.Background(), &Request{
		Booking:      b,
		NewPartnerID: "p2",
		NewSlot:      8,
		NewDate:      newDay,
		NewDateISO:   newDay.Format(time.RFC3339),
		Role:         "client",
		Reason:       "travelling",
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.SamePartner {
		t.Fatal("partner changed, SamePartner must be false")
	}

	// pre-mutation copy archived
	snap := mem.Rescheduled["ord-1"]
	if snap == nil || snap.AssignedPartnerID != "p1" || snap.SlotNumber != 4 {
		t.Fatalf("snapshot = %+v", snap)
	}

	got := mem.Bookings["ord-1"]
	if got.AssignedPartnerID != "p2" || got.SlotNumber != 8 {
		t.Fatalf("booking not moved: %+v", got)
	}
	if got.Status != models.StatusPending {
		t.Fatalf("status = %q", got.Status)
	}
	if !reflect.DeepEqual(got.BookedSlots, []int{8, 9}) {
		t.Fatalf("booked slots = %v", got.BookedSlots)
	}
	if len(got.Reschedule) != 1 {
		t.Fatalf("history = %+v", got.Reschedule)
	}
	entry := got.Reschedule[0]
	if entry.PartnerID != "p1" || entry.RescheduleBy != "client" || entry.Reason != "travelling" {
		t.Fatalf("history entry = %+v", entry)
	}
	if len(got.PreviousPartner) != 1 || got.PreviousPartner[0].ID != "p1" {
		t.Fatalf("previous partners = %+v", got.PreviousPartner)
	}
	if got.NotificationSeen {
		t.Fatal("cross-partner move must reset the notification flag")
	}

	// old partner released, new partner reserved
	oldT := mem.Timings["p1_20260314"]
	if slots.Contains(oldT.Booked, 4) || slots.Contains(oldT.Booked, 5) {
		t.Fatalf("old slots not released: %v", oldT.Booked)
	}
	if !slots.Contains(oldT.Available, 4) || !slots.Contains(oldT.Available, 5) {
		t.Fatalf("old slots not available again: %v", oldT.Available)
	}
	newT := mem.Timings["p2_20260316"]
	if newT == nil {
		t.Fatal("new partner timing not created")
	}
	if !reflect.DeepEqual(newT.Booked, []int{8, 9}) {
		t.Fatalf("new booked = %v", newT.Booked)
	}
}

func TestReconcileRefundsCommittedPartner(t *testing.T) {
	mem := storetest.New()
	b := placedBooking("confirmed")
	seed(mem, b)
	mem.CreditInfos["p1"] = &models.CreditInfo{PartnerID: "p1", AvailableCredits: 3}

	if _, err := reconciler(mem).Reconcile(context.Background(), &Request{
		Booking: b, NewPartnerID: "p2", NewSlot: 8, NewDate: newDay,
		NewDateISO: newDay.Format(time.RFC3339), Role: "client",
	}); err != nil {
		t.Fatal(err)
	}

	if got := mem.CreditInfos["p1"].AvailableCredits; got != 13 {
		t.Fatalf("credits = %d, want 13", got)
	}
	if len(mem.CreditTxns) != 1 {
		t.Fatalf("ledger = %+v", mem.CreditTxns)
	}
	// rupee amounts run at ten per credit
	ct := mem.CreditTxns[0]
	if ct.Amount != 100 || ct.Count != 10 || ct.OrderID != 42 {
		t.Fatalf("ledger entry = %+v", ct)
	}
	if ct.CreditsBefore != 3 || ct.CreditsAfter != 13 || ct.AmountBefore != 30 || ct.AmountAfter != 130 {
		t.Fatalf("ledger entry = %+v", ct)
	}
	if ct.Message != "reimburse" || ct.Type != "recharge" {
		t.Fatalf("ledger entry = %+v", ct)
	}
}

func TestReconcileNoRefundForPendingBooking(t *testing.T) {
	mem := storetest.New()
	b := placedBooking(models.StatusPending)
	seed(mem, b)

	if _, err := reconciler(mem).Reconcile(context.Background(), &Request{
		Booking: b, NewPartnerID: "p2", NewSlot: 8, NewDate: newDay,
		NewDateISO: newDay.Format(time.RFC3339), Role: "client",
	}); err != nil {
		t.Fatal(err)
	}
	if len(mem.CreditTxns) != 0 || len(mem.CreditInfos) != 0 {
		t.Fatal("pending booking must not trigger a refund")
	}
}

func TestReconcileSamePartnerSameDaySingleRecord(t *testing.T) {
	mem := storetest.New()
	b := placedBooking(models.StatusPending)
	seed(mem, b)

	out, err := reconciler(mem).Reconcile(context.Background(), &Request{
		Booking:      b,
		NewPartnerID: "p1",
		NewSlot:      5,
		NewDate:      oldDay,
		NewDateISO:   b.BookingDateISO,
		Role:         "client",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !out.SamePartner {
		t.Fatal("same partner expected")
	}

	// moved from [4,5] to [5,6] in one record: 4 freed, 6 taken, 5 kept
	tm := mem.Timings["p1_20260314"]
	if !reflect.DeepEqual(tm.Booked, []int{5, 6}) {
		t.Fatalf("booked = %v", tm.Booked)
	}
	if !slots.Contains(tm.Available, 4) {
		t.Fatalf("slot 4 not released: %v", tm.Available)
	}
	if slots.Contains(tm.Available, 5) || slots.Contains(tm.Available, 6) {
		t.Fatalf("new slots leaked into available: %v", tm.Available)
	}
	if len(tm.Bookings) != 1 || !reflect.DeepEqual(tm.Bookings[0].Slots, []int{5, 6}) {
		t.Fatalf("log = %+v", tm.Bookings)
	}

	got := mem.Bookings["ord-1"]
	if !got.NotificationSeen {
		t.Fatal("same-partner move must keep the notification flag")
	}
}

func TestReconcileRevertRedirectsToLeave(t *testing.T) {
	mem := storetest.New()
	b := placedBooking(models.StatusPending)
	seed(mem, b)
	mem.Leaves = append(mem.Leaves, &models.PartnerLeave{
		ID: "lv1", PartnerID: "p1", Status: "approved",
		DayList:     []string{"20260314"},
		SlotsPerDay: map[string][]int{"20260314": {4}},
	})

	if _, err := reconciler(mem).Reconcile(context.Background(), &Request{
		Booking: b, NewPartnerID: "p2", NewSlot: 8, NewDate: newDay,
		NewDateISO: newDay.Format(time.RFC3339), Role: "client",
	}); err != nil {
		t.Fatal(err)
	}

	tm := mem.Timings["p1_20260314"]
	if !slots.Contains(tm.Leave, 4) {
		t.Fatalf("leave-claimed slot not redirected: %+v", tm)
	}
	if slots.Contains(tm.Available, 4) {
		t.Fatalf("leave-claimed slot leaked into available: %v", tm.Available)
	}
	if !slots.Contains(tm.Available, 5) {
		t.Fatalf("slot 5 should be available: %v", tm.Available)
	}
}

func TestReconcileAppendsHistory(t *testing.T) {
	mem := storetest.New()
	b := placedBooking(models.StatusPending)
	b.Reschedule = []models.RescheduleEntry{{PartnerID: "p0", RescheduleBy: "client"}}
	b.PreviousPartner = []models.PartnerRef{{ID: "p0"}}
	seed(mem, b)

	if _, err := reconciler(mem).Reconcile(context.Background(), &Request{
		Booking: b, NewPartnerID: "p2", NewSlot: 8, NewDate: newDay,
		NewDateISO: newDay.Format(time.RFC3339), Role: "agent",
		AgentID: "ag-7", AgentName: "Meera",
	}); err != nil {
		t.Fatal(err)
	}

	got := mem.Bookings["ord-1"]
	if len(got.Reschedule) != 2 || len(got.PreviousPartner) != 2 {
		t.Fatalf("history = %+v / %+v", got.Reschedule, got.PreviousPartner)
	}
	last := got.Reschedule[1]
	if last.RescheduleBy != "agent" || last.AgentID != "ag-7" || last.AgentName != "Meera" {
		t.Fatalf("entry = %+v", last)
	}
	// input document untouched
	if len(b.Reschedule) != 1 {
		t.Fatalf("input booking mutated: %+v", b.Reschedule)
	}
}
