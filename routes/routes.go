package routes

import (
	"urbane/booking"
	"urbane/middleware"
	"urbane/ratelim"

	"github.com/julienschmidt/httprouter"
)

func AddBookingRoutes(router *httprouter.Router, svc *booking.Service) {
	router.POST("/api/v1/bookings", ratelim.RateLimit(middleware.Authenticate(svc.CreateBooking)))
	router.POST("/api/v1/bookings/:orderId/reschedule", ratelim.RateLimit(middleware.Authenticate(svc.RescheduleBooking)))
}
