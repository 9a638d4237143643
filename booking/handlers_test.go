package booking

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"urbane/assign"
	"urbane/globals"
	"urbane/models"
	"urbane/mq"
	"urbane/recheck"
	"urbane/reschedule"
	"urbane/scorer"
	"urbane/slotmap"
	"urbane/storetest"
	"urbane/wallet"

	"github.com/julienschmidt/httprouter"
)

func handlerService(mem *storetest.Mem, out slotmap.Outcome) *Service {
	return &Service{
		Store:       mem,
		Slots:       fakeSlots{out},
		Ranker:      scorer.NewRanker(mem, func(context.Context, float64, float64, float64, float64) float64 { return 100 }),
		Checker:     recheck.NewChecker(mem),
		Assign:      assign.NewCommitter(mem),
		Rescheduler: reschedule.NewReconciler(mem),
		Wallet:      wallet.NewDebitor(mem),
		Emit:        func(context.Context, mq.Event) {},
	}
}

func doCreate(t *testing.T, svc *Service, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body))
	rec := httptest.NewRecorder()
	svc.CreateBooking(rec, req, nil)
	return rec
}

func TestCreateBookingRejectsBadJSON(t *testing.T) {
	svc := handlerService(storetest.New(), slotmap.Outcome{})
	if rec := doCreate(t, svc, "{not json"); rec.Code != http.StatusBadRequest {
		t.Fatalf("code = %d", rec.Code)
	}
}

func TestCreateBookingRejectsMissingClient(t *testing.T) {
	svc := handlerService(storetest.New(), slotmap.Outcome{})
	body := `{"serviceMinutes":60,"priceToPay":499,"latitude":12.9,"longitude":77.6,"slotNumber":4,"date":"2099-03-14"}`
	if rec := doCreate(t, svc, body); rec.Code != http.StatusBadRequest {
		t.Fatalf("code = %d", rec.Code)
	}
}

func TestCreateBookingRejectsPastDate(t *testing.T) {
	svc := handlerService(storetest.New(), slotmap.Outcome{})
	body := `{"clientId":"c1","serviceMinutes":60,"priceToPay":499,"latitude":12.9,"longitude":77.6,"slotNumber":4,"date":"2020-01-01"}`
	if rec := doCreate(t, svc, body); rec.Code != http.StatusBadRequest {
		t.Fatalf("code = %d", rec.Code)
	}
}

func TestCreateBookingDeadPath(t *testing.T) {
	mem := storetest.New()
	svc := handlerService(mem, slotmap.Outcome{
		StatusCode:    201,
		Message:       "Due to high demand, your booking can not be placed at the moment. Please try again later.",
		BookingStatus: models.StatusDead,
	})
	body := `{"clientId":"c1","serviceMinutes":60,"priceToPay":499,"latitude":12.9,"longitude":77.6,"slotNumber":4,"date":"2099-03-14"}`

	rec := doCreate(t, svc, body)
	if rec.Code != 201 {
		t.Fatalf("code = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["status"] != models.ResultDead {
		t.Fatalf("resp = %v", resp)
	}
	// an order id was generated server-side
	if id, _ := resp["orderId"].(string); id == "" {
		t.Fatalf("resp = %v", resp)
	}
	if len(mem.Bookings) != 1 {
		t.Fatalf("bookings = %v", mem.Bookings)
	}
}

func TestRescheduleBookingUsesRoleFromContext(t *testing.T) {
	mem := storetest.New()
	b := &models.Booking{
		OrderID: "ord-1", BookingID: 42, Status: models.StatusPending,
		Reschedule: []models.RescheduleEntry{
			{RescheduleBy: "client"},
			{RescheduleBy: "client"},
		},
	}
	mem.Bookings["ord-1"] = b
	svc := handlerService(mem, slotmap.Outcome{StatusCode: 201, Message: "none"})

	body := `{"slotNumber":8,"date":"2099-03-16"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/ord-1/reschedule", strings.NewReader(body))
	req = req.WithContext(context.WithValue(req.Context(), globals.RoleKey, "client"))
	rec := httptest.NewRecorder()
	svc.RescheduleBooking(rec, req, httprouter.Params{{Key: "orderId", Value: "ord-1"}})

	if rec.Code != 400 {
		t.Fatalf("client over the limit must get 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRescheduleBookingMissingOrder(t *testing.T) {
	svc := handlerService(storetest.New(), slotmap.Outcome{StatusCode: 201})

	body := `{"slotNumber":8,"date":"2099-03-16"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/ghost/reschedule", strings.NewReader(body))
	rec := httptest.NewRecorder()
	svc.RescheduleBooking(rec, req, httprouter.Params{{Key: "orderId", Value: "ghost"}})

	if rec.Code != 404 {
		t.Fatalf("code = %d", rec.Code)
	}
}
