package adaptor

import (
	"net/http"

	"carwash-booking/internal/dto/request"
	"carwash-booking/internal/usecase"
	"carwash-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type BookingHandler struct {
	service usecase.BookingService
	log     *zap.Logger
}

func NewBookingHandler(service usecase.BookingService, log *zap.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log.With(zap.String("handler", "booking")),
	}
}

// CheckAvailability handles POST /api/booking/check-availability (public)
func (h *BookingHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	var req request.CheckAvailabilityRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	result, err := h.service.CheckAvailability(r.Context(), &req)
	if err != nil {
		writeError(w, h.log, err, "check availability")
		return
	}

	utils.ResponseSuccess(w, "success", result)
}

// CreateBooking handles POST /api/booking (protected)
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.CreateBookingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	booking, err := h.service.CreateBooking(r.Context(), userID, &req)
	if err != nil {
		writeError(w, h.log, err, "create booking")
		return
	}

	utils.ResponseCreated(w, "Booking created", booking)
}

// MyBookings handles GET /api/booking/my-bookings (protected)
func (h *BookingHandler) MyBookings(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	bookings, err := h.service.CustomerBookings(r.Context(), userID, paginationFrom(r))
	if err != nil {
		writeError(w, h.log, err, "customer bookings")
		return
	}

	utils.ResponseSuccess(w, "success", bookings)
}

// OwnerBookings handles GET /api/booking/owner (owner/admin)
func (h *BookingHandler) OwnerBookings(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	bookings, err := h.service.OwnerBookings(r.Context(), userID, paginationFrom(r))
	if err != nil {
		writeError(w, h.log, err, "owner bookings")
		return
	}

	utils.ResponseSuccess(w, "success", bookings)
}

// UpdateStatus handles PATCH /api/booking/{id}/status (owner/admin)
func (h *BookingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := utils.GetActorFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	bookingID := chi.URLParam(r, "id")
	if bookingID == "" {
		utils.ResponseBadRequest(w, "Booking ID is required", nil)
		return
	}

	var req request.UpdateBookingStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	booking, err := h.service.UpdateBookingStatus(r.Context(), actor, bookingID, &req)
	if err != nil {
		writeError(w, h.log, err, "update booking status")
		return
	}

	utils.ResponseSuccess(w, "Booking status updated", booking)
}

func paginationFrom(r *http.Request) *request.PaginatedRequest {
	query := r.URL.Query()
	return &request.PaginatedRequest{
		Page:    utils.ParseInt(query.Get("page"), 1),
		PerPage: utils.ParseInt(query.Get("per_page"), 10),
	}
}
