package adaptor

import (
	"encoding/json"
	"net/http"

	"carwash-booking/internal/usecase"
	"carwash-booking/pkg/database"

	"go.uber.org/zap"
)

const maxJSONBody = 1 << 20

type Handler struct {
	Booking *BookingHandler
	Payment *PaymentHandler
	Admin   *AdminHandler
	Health  *HealthHandler
}

func NewHandler(service *usecase.Service, db database.PgxIface, log *zap.Logger) *Handler {
	return &Handler{
		Booking: NewBookingHandler(service.Booking, log),
		Payment: NewPaymentHandler(service.Payment, log),
		Admin:   NewAdminHandler(service.Stats, log),
		Health:  NewHealthHandler(db, log),
	}
}

func jsonDecode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
