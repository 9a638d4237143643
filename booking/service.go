// Package booking orchestrates the allocation pipeline: eligibility
// lookup, ranking, live recheck, then the assignment or reschedule
// commit, with side effects pushed onto the event channel.
package booking

import (
	"context"
	"log"
	"time"

	"urbane/assign"
	"urbane/models"
	"urbane/mq"
	"urbane/recheck"
	"urbane/reschedule"
	"urbane/scorer"
	"urbane/slotmap"
	"urbane/slots"
	"urbane/store"
)

const highDemandMessage = "Due to high demand, your booking can not be placed at the moment. Please try again later."

// Pipeline stage contracts, narrowed to what the orchestrator calls.
type (
	SlotResolver interface {
		Resolve(ctx context.Context, q slotmap.Query) slotmap.Outcome
	}
	PartnerRanker interface {
		Rank(ctx context.Context, refs []models.PartnerRef, lat, lng float64, day time.Time, reschedule bool, preferred string) ([]scorer.Candidate, error)
	}
	AvailabilityChecker interface {
		FirstFit(ctx context.Context, slotNo int, ranked []string, dateID string, b *models.Booking, reschedule bool) (recheck.Outcome, error)
	}
	AssignmentCommitter interface {
		Commit(ctx context.Context, req *assign.Request, partnerID string) (*models.Booking, error)
		RecordDead(ctx context.Context, req *assign.Request, status string) (*models.Booking, error)
	}
	RescheduleReconciler interface {
		Reconcile(ctx context.Context, req *reschedule.Request) (*reschedule.Outcome, error)
	}
	WalletDebitor interface {
		Debit(ctx context.Context, b *models.Booking) error
	}
)

// Service runs the two pipelines.
type Service struct {
	Store       store.Store
	Slots       SlotResolver
	Ranker      PartnerRanker
	Checker     AvailabilityChecker
	Assign      AssignmentCommitter
	Rescheduler RescheduleReconciler
	Wallet      WalletDebitor
	Emit        func(ctx context.Context, e mq.Event)
}

// CreateRequest is a validated booking command.
type CreateRequest struct {
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
	PreferredPartner string // "none" when the client has no preference
	Date             string // YYYY-MM-DD
	BookingDate      time.Time
}

func (r *CreateRequest) assignRequest() *assign.Request {
	return &assign.Request{
		OrderID:          r.OrderID,
		ClientID:         r.ClientID,
		ClientName:       r.ClientName,
		Address:          r.Address,
		Minutes:          r.Minutes,
		Price:            r.Price,
		WalletMoney:      r.WalletMoney,
		CouponID:         r.CouponID,
		Latitude:         r.Latitude,
		Longitude:        r.Longitude,
		SlotNumber:       r.SlotNumber,
		PreferredPartner: r.PreferredPartner,
		BookingDate:      r.BookingDate,
		BookingDateISO:   r.BookingDate.Format(time.RFC3339),
	}
}

func noPreference(preferred string) bool {
	return preferred == "" || preferred == "none"
}

func candidateIDs(cs []scorer.Candidate) []string {
	ids := make([]string, len(cs))
	for i, c := range cs {
		ids[i] = c.ID
	}
	return ids
}

// Create places a new booking, or records it dead when nobody can take
// it.
func (s *Service) Create(ctx context.Context, req *CreateRequest) models.Result {
	preferred := req.PreferredPartner
	if noPreference(preferred) {
		preferred = ""
	}

	out := s.Slots.Resolve(ctx, slotmap.Query{
		Latitude:         req.Latitude,
		Longitude:        req.Longitude,
		Price:            req.Price,
		Date:             req.Date,
		ClientID:         req.ClientID,
		Minutes:          req.Minutes,
		SlotNumber:       req.SlotNumber,
		PreferredPartner: preferred,
	})
	switch {
	case out.StatusCode == 201:
		return s.recordDead(ctx, req, out.Message, out.BookingStatus)
	case out.StatusCode != 200:
		return models.Result{StatusCode: out.StatusCode, Status: models.ResultError, Message: out.Message}
	}

	ranked, err := s.Ranker.Rank(ctx, out.SlotMap.AvailablePartners,
		req.Latitude, req.Longitude, req.BookingDate, false, req.PreferredPartner)
	if err != nil {
		log.Printf("booking: ranking failed for %s: %v", req.OrderID, err)
		return models.Result{StatusCode: 500, Status: models.ResultError, Message: "Internal Server Error."}
	}

	dateID := slots.DateID(req.BookingDate)
	fit, err := s.Checker.FirstFit(ctx, req.SlotNumber, candidateIDs(ranked), dateID, &models.Booking{}, false)
	if err != nil {
		log.Printf("booking: recheck failed for %s: %v", req.OrderID, err)
		return models.Result{StatusCode: 500, Status: models.ResultError, Message: "Internal Server Error."}
	}

	if !fit.Available {
		res := s.recordDead(ctx, req, highDemandMessage, models.StatusDead)
		if res.StatusCode == 201 && noPreference(req.PreferredPartner) {
			s.emitMisses(ctx, req, res.BookingID, fit.Misses)
		}
		return res
	}

	booked, err := s.Assign.Commit(ctx, req.assignRequest(), fit.PartnerID)
	if err != nil {
		log.Printf("booking: commit failed for %s: %v", req.OrderID, err)
		return models.Result{StatusCode: 500, Status: models.ResultError, Message: "Internal Server Error."}
	}

	s.Emit(ctx, mq.Event{Type: mq.EventAssigned, Booking: booked})
	if noPreference(req.PreferredPartner) && len(fit.Misses) > 0 {
		s.Emit(ctx, mq.Event{Type: mq.EventMissedLeads, Booking: booked, Misses: fit.Misses})
	}

	// the booking stands even if the wallet settlement fails; the id in
	// the log is enough for reconciliation
	if err := s.Wallet.Debit(ctx, booked); err != nil {
		log.Printf("booking: wallet debit failed for %s (booking %d): %v", req.OrderID, booked.BookingID, err)
	}

	return models.Result{
		StatusCode: 200,
		Status:     models.ResultPlaced,
		Message:    "Booking placed successfully.",
		BookingID:  booked.BookingID,
		PartnerID:  fit.PartnerID,
	}
}

func (s *Service) recordDead(ctx context.Context, req *CreateRequest, message, status string) models.Result {
	dead, err := s.Assign.RecordDead(ctx, req.assignRequest(), status)
	if err != nil {
		log.Printf("booking: dead record failed for %s: %v", req.OrderID, err)
		return models.Result{StatusCode: 500, Status: models.ResultError, Message: "Internal Server Error."}
	}
	return models.Result{
		StatusCode: 201,
		Status:     models.ResultDead,
		Message:    message,
		BookingID:  dead.BookingID,
	}
}

func (s *Service) emitMisses(ctx context.Context, req *CreateRequest, bookingID int64, misses []recheck.Miss) {
	if len(misses) == 0 {
		return
	}
	s.Emit(ctx, mq.Event{
		Type: mq.EventMissedLeads,
		Booking: &models.Booking{
			OrderID:     req.OrderID,
			BookingID:   bookingID,
			ClientName:  req.ClientName,
			Address:     req.Address,
			Price:       req.Price,
			BookedSlots: slots.Reserved(req.Minutes, req.SlotNumber),
			BookingDate: req.BookingDate,
		},
		Misses: misses,
	})
}

// RescheduleRequest is a validated reschedule command.
type RescheduleRequest struct {
	OrderID          string
	SlotNumber       int
	Date             string // YYYY-MM-DD
	BookingDate      time.Time
	PreferredPartner string
	Role             string
	Reason           string
	AgentID          string
	AgentName        string
}

// ClientRescheduleLimit caps client-initiated reschedules per booking.
const ClientRescheduleLimit = 2

// Reschedule moves an existing booking.
func (s *Service) Reschedule(ctx context.Context, req *RescheduleRequest) models.Result {
	b, err := s.Store.Booking(ctx, req.OrderID)
	if err == store.ErrNotFound {
		return models.Result{StatusCode: 404, Status: models.ResultError, Message: "Booking not found."}
	}
	if err != nil {
		log.Printf("booking: lookup failed for %s: %v", req.OrderID, err)
		return models.Result{StatusCode: 500, Status: models.ResultError, Message: "Internal Server Error."}
	}

	if req.Role == "client" && b.ClientRescheduleCount() >= ClientRescheduleLimit {
		return models.Result{
			StatusCode: 400,
			Status:     models.ResultError,
			Message:    "You have exceeded the maximum number of reschedules for this booking.",
			BookingID:  b.BookingID,
		}
	}

	preferred := req.PreferredPartner
	if noPreference(preferred) {
		preferred = ""
	}

	out := s.Slots.Resolve(ctx, slotmap.Query{
		Latitude:         b.Latitude,
		Longitude:        b.Longitude,
		Price:            b.Price,
		Date:             req.Date,
		ClientID:         b.ClientID,
		Minutes:          b.Minutes,
		SlotNumber:       b.SlotNumber,
		PreferredPartner: preferred,
		Reschedule: &slotmap.Reschedule{
			Status:     true,
			BookingID:  b.OrderID,
			Role:       req.Role,
			SlotNumber: req.SlotNumber,
		},
	})
	switch {
	case out.StatusCode == 201:
		return models.Result{StatusCode: 201, Status: models.ResultUnknown, Message: out.Message, BookingID: b.BookingID}
	case out.StatusCode != 200:
		return models.Result{StatusCode: out.StatusCode, Status: models.ResultError, Message: out.Message}
	}

	ranked, err := s.Ranker.Rank(ctx, out.SlotMap.AvailablePartners,
		b.Latitude, b.Longitude, req.BookingDate, true, req.PreferredPartner)
	if err != nil {
		log.Printf("booking: ranking failed for %s: %v", req.OrderID, err)
		return models.Result{StatusCode: 500, Status: models.ResultError, Message: "Internal Server Error."}
	}
	if noPreference(req.PreferredPartner) {
		ranked = scorer.ReorderForPreviousPartners(ranked, b.PreviousPartner, b.AssignedPartnerID)
	}

	dateID := slots.DateID(req.BookingDate)
	fit, err := s.Checker.FirstFit(ctx, req.SlotNumber, candidateIDs(ranked), dateID, b, true)
	if err != nil {
		log.Printf("booking: recheck failed for %s: %v", req.OrderID, err)
		return models.Result{StatusCode: 500, Status: models.ResultError, Message: "Internal Server Error."}
	}
	if !fit.Available {
		return models.Result{StatusCode: 201, Status: models.ResultUnknown, Message: highDemandMessage, BookingID: b.BookingID}
	}

	moved, err := s.Rescheduler.Reconcile(ctx, &reschedule.Request{
		Booking:      b,
		NewPartnerID: fit.PartnerID,
		NewSlot:      req.SlotNumber,
		NewDate:      req.BookingDate,
		NewDateISO:   req.BookingDate.Format(time.RFC3339),
		Role:         req.Role,
		Reason:       req.Reason,
		AgentID:      req.AgentID,
		AgentName:    req.AgentName,
	})
	if err != nil {
		log.Printf("booking: reschedule commit failed for %s: %v", req.OrderID, err)
		return models.Result{StatusCode: 500, Status: models.ResultError, Message: "Internal Server Error."}
	}

	s.Emit(ctx, mq.Event{
		Type:         mq.EventRescheduled,
		Booking:      moved.Booking,
		OldPartnerID: moved.OldPartnerID,
		NewPartnerID: moved.NewPartnerID,
	})

	return models.Result{
		StatusCode: 200,
		Status:     models.ResultRescheduled,
		Message:    "Booking rescheduled successfully.",
		BookingID:  b.BookingID,
		PartnerID:  fit.PartnerID,
	}
}
