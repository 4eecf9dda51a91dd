package adaptor

import (
	"io"
	"net/http"

	"carwash-booking/internal/dto/request"
	"carwash-booking/internal/usecase"
	"carwash-booking/pkg/utils"

	"go.uber.org/zap"
)

// maxWebhookBody caps a gateway delivery. Stripe events are far smaller.
const maxWebhookBody = 64 << 10

type PaymentHandler struct {
	service usecase.PaymentService
	log     *zap.Logger
}

func NewPaymentHandler(service usecase.PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		log:     log.With(zap.String("handler", "payment")),
	}
}

// Webhook handles POST /api/stripe/webhook. The signature is checked
// against the raw bytes, then the delivery is acknowledged before its
// effect is applied.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		h.log.Warn("Failed to read webhook body", zap.Error(err))
		utils.ResponseBadRequest(w, "Invalid webhook body", nil)
		return
	}

	if err := h.service.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		writeError(w, h.log, err, "webhook")
		return
	}

	utils.WriteRaw(w, http.StatusOK, map[string]bool{"received": true})
}

// TestWebhook handles POST /api/stripe/test-webhook (payment test mode only)
func (h *PaymentHandler) TestWebhook(w http.ResponseWriter, r *http.Request) {
	var req request.TestWebhookRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	booking, err := h.service.TestWebhook(r.Context(), &req)
	if err != nil {
		writeError(w, h.log, err, "test webhook")
		return
	}

	utils.ResponseSuccess(w, "Test webhook processed", booking)
}

// ConfirmPayment handles POST /api/booking/confirm-payment (protected)
func (h *PaymentHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.ConfirmPaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	booking, err := h.service.ConfirmPayment(r.Context(), userID, &req)
	if err != nil {
		writeError(w, h.log, err, "confirm payment")
		return
	}

	utils.ResponseSuccess(w, "Payment confirmed", booking)
}
