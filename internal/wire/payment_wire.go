package wire

import (
	"carwash-booking/internal/adaptor"
	"carwash-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wirePayment(
	r chi.Router,
	paymentHandler *adaptor.PaymentHandler,
	config *utils.Config,
	log *zap.Logger,
) {
	// Authenticated by the Stripe-Signature header, not a bearer token.
	r.Post("/api/stripe/webhook", paymentHandler.Webhook)

	if config.Payment.TestMode {
		log.Warn("Payment test mode enabled, unsigned test webhooks are accepted")
		r.Post("/api/stripe/test-webhook", paymentHandler.TestWebhook)
	}
}
