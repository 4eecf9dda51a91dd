package wire

import (
	"carwash-booking/internal/adaptor"
	"carwash-booking/pkg/middleware"
	"carwash-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireBooking(
	r chi.Router,
	bookingHandler *adaptor.BookingHandler,
	paymentHandler *adaptor.PaymentHandler,
	config *utils.Config,
	log *zap.Logger,
) {
	r.Route("/api/booking", func(r chi.Router) {
		// ==================== PUBLIC ROUTES ====================
		r.Post("/check-availability", bookingHandler.CheckAvailability)

		// ==================== PROTECTED ROUTES (require auth) ====================
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(config.JWT.Secret, log))

			r.Post("/", bookingHandler.CreateBooking)
			r.Get("/my-bookings", bookingHandler.MyBookings)
			r.Post("/confirm-payment", paymentHandler.ConfirmPayment)

			// ==================== OWNER ROUTES ====================
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(log, "owner", "admin"))

				r.Get("/owner", bookingHandler.OwnerBookings)
				r.Patch("/{id}/status", bookingHandler.UpdateStatus)
			})
		})
	})
}
