package bookinglogs

import (
	"context"
	"testing"
	"time"

	"urbane/models"
	"urbane/storetest"
)

var day = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

func booking(id int64, price float64) *models.Booking {
	return &models.Booking{
		OrderID:     "ord-1",
		BookingID:   id,
		Price:       price,
		Status:      models.StatusPending,
		BookingDate: day,
	}
}

func TestLogBookingCreatesDayEntry(t *testing.T) {
	mem := storetest.New()
	if err := NewLogger(mem).LogBooking(context.Background(), "p1", booking(42, 499)); err != nil {
		t.Fatal(err)
	}

	doc := mem.BookingLogs["p1"]
	if doc == nil {
		t.Fatal("log document not created")
	}
	dl, ok := doc.Logs["14032026"]
	if !ok {
		t.Fatalf("day key missing: %v", doc.Logs)
	}
	if dl.Amount != 499 || len(dl.Bookings) != 1 || dl.Bookings[0].BookingID != 42 {
		t.Fatalf("day log = %+v", dl)
	}
}

func TestLogBookingAccumulatesAmountAcrossBookings(t *testing.T) {
	mem := storetest.New()
	l := NewLogger(mem)
	if err := l.LogBooking(context.Background(), "p1", booking(1, 200)); err != nil {
		t.Fatal(err)
	}
	b2 := booking(2, 300)
	b2.OrderID = "ord-2"
	if err := l.LogBooking(context.Background(), "p1", b2); err != nil {
		t.Fatal(err)
	}

	dl := mem.BookingLogs["p1"].Logs["14032026"]
	if dl.Amount != 500 || len(dl.Bookings) != 2 {
		t.Fatalf("day log = %+v", dl)
	}
}

func TestLogBookingUpsertDoesNotRecountAmount(t *testing.T) {
	mem := storetest.New()
	l := NewLogger(mem)
	b := booking(42, 499)
	if err := l.LogBooking(context.Background(), "p1", b); err != nil {
		t.Fatal(err)
	}
	b.Status = "confirmed"
	if err := l.LogBooking(context.Background(), "p1", b); err != nil {
		t.Fatal(err)
	}

	dl := mem.BookingLogs["p1"].Logs["14032026"]
	if dl.Amount != 499 {
		t.Fatalf("amount recounted: %v", dl.Amount)
	}
	if len(dl.Bookings) != 1 || dl.Bookings[0].Status != "confirmed" {
		t.Fatalf("entry = %+v", dl.Bookings)
	}
}

func TestLogBookingSeparateDays(t *testing.T) {
	mem := storetest.New()
	l := NewLogger(mem)
	if err := l.LogBooking(context.Background(), "p1", booking(1, 100)); err != nil {
		t.Fatal(err)
	}
	b2 := booking(2, 100)
	b2.OrderID = "ord-2"
	b2.BookingDate = day.AddDate(0, 0, 1)
	if err := l.LogBooking(context.Background(), "p1", b2); err != nil {
		t.Fatal(err)
	}

	logs := mem.BookingLogs["p1"].Logs
	if len(logs) != 2 {
		t.Fatalf("day keys = %v", logs)
	}
}
