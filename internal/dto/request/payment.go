package request

// TestWebhookRequest drives the reconciler without a signed delivery.
type TestWebhookRequest struct {
	PaymentIntentID string `json:"paymentIntentId" validate:"required,max=255"`
	EventType       string `json:"eventType" validate:"required,oneof=payment_intent.succeeded payment_intent.payment_failed"`
}
