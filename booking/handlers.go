package booking

import (
	"encoding/json"
	"net/http"
	"time"

	"urbane/globals"
	"urbane/models"
	"urbane/utils"

	"github.com/go-playground/validator/v10"
	"github.com/julienschmidt/httprouter"
)

var validate = validator.New()

type createPayload struct {
	OrderID          string  `json:"orderId"`
	ClientID         string  `json:"clientId" validate:"required"`
	Name             string  `json:"name"`
	Address          string  `json:"address"`
	ServiceMinutes   int     `json:"serviceMinutes" validate:"required,min=1,max=720"`
	PriceToPay       float64 `json:"priceToPay" validate:"required,min=1"`
	WalletMoney      float64 `json:"walletMoney" validate:"min=0"`
	CouponID         string  `json:"couponId"`
	Latitude         float64 `json:"latitude" validate:"required"`
	Longitude        float64 `json:"longitude" validate:"required"`
	SlotNumber       int     `json:"slotNumber" validate:"min=0,max=23"`
	PreferredPartner string  `json:"preferredPartner"`
	Date             string  `json:"date" validate:"required,datetime=2006-01-02"`
}

type reschedulePayload struct {
	SlotNumber       int    `json:"slotNumber" validate:"min=0,max=23"`
	Date             string `json:"date" validate:"required,datetime=2006-01-02"`
	Reason           string `json:"reason"`
	PreferredPartner string `json:"preferredPartner"`
	AgentID          string `json:"agentId"`
	AgentName        string `json:"agentName"`
}

// parseDay accepts today or later; bookings cannot land in the past.
func parseDay(date string) (time.Time, bool) {
	day, err := time.ParseInLocation("2006-01-02", date, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	if day.Before(today) {
		return time.Time{}, false
	}
	return day, true
}

func role(r *http.Request) string {
	if v, ok := r.Context().Value(globals.RoleKey).(string); ok && v != "" {
		return v
	}
	return "client"
}

// CreateBooking handles POST /api/v1/bookings.
func (s *Service) CreateBooking(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var p createPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := validate.Struct(p); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	day, ok := parseDay(p.Date)
	if !ok {
		utils.RespondWithError(w, http.StatusBadRequest, "Booking date must be today or later")
		return
	}

	if p.OrderID == "" {
		p.OrderID = utils.GetUUID()
	}
	if p.PreferredPartner == "" {
		p.PreferredPartner = "none"
	}

	result := s.Create(r.Context(), &CreateRequest{
		OrderID:          p.OrderID,
		ClientID:         p.ClientID,
		ClientName:       p.Name,
		Address:          p.Address,
		Minutes:          p.ServiceMinutes,
		Price:            p.PriceToPay,
		WalletMoney:      p.WalletMoney,
		CouponID:         p.CouponID,
		Latitude:         p.Latitude,
		Longitude:        p.Longitude,
		SlotNumber:       p.SlotNumber,
		PreferredPartner: p.PreferredPartner,
		Date:             p.Date,
		BookingDate:      day,
	})
	respond(w, p.OrderID, result)
}

// RescheduleBooking handles POST /api/v1/bookings/:orderId/reschedule.
func (s *Service) RescheduleBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	orderID := ps.ByName("orderId")
	if orderID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing order id")
		return
	}

	var p reschedulePayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := validate.Struct(p); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	day, ok := parseDay(p.Date)
	if !ok {
		utils.RespondWithError(w, http.StatusBadRequest, "Booking date must be today or later")
		return
	}
	if p.PreferredPartner == "" {
		p.PreferredPartner = "none"
	}

	result := s.Reschedule(r.Context(), &RescheduleRequest{
		OrderID:          orderID,
		SlotNumber:       p.SlotNumber,
		Date:             p.Date,
		BookingDate:      day,
		PreferredPartner: p.PreferredPartner,
		Role:             role(r),
		Reason:           p.Reason,
		AgentID:          p.AgentID,
		AgentName:        p.AgentName,
	})
	respond(w, orderID, result)
}

func respond(w http.ResponseWriter, orderID string, res models.Result) {
	utils.RespondWithJSON(w, res.StatusCode, utils.M{
		"orderId":    orderID,
		"statusCode": res.StatusCode,
		"status":     res.Status,
		"message":    res.Message,
		"bookingId":  res.BookingID,
		"partnerId":  res.PartnerID,
	})
}
