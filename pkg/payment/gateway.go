// Package payment wraps the external payment processor behind a small
// interface so the booking engine can be tested without it.
package payment

import (
	"context"
	"math"
)

// Webhook event types the reconciler acts on.
const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
)

// Intent statuses reported by GetIntent.
const (
	IntentSucceeded = "succeeded"
	IntentCanceled  = "canceled"
)

// MetadataBookingID is the intent metadata key carrying the booking id.
const MetadataBookingID = "bookingId"

type IntentRequest struct {
	AmountMinor int64
	Currency    string
	Metadata    map[string]string
}

type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	AmountMinor  int64
	Currency     string
	Metadata     map[string]string
}

// Event is a verified webhook notification reduced to what reconciliation needs.
type Event struct {
	ID       string
	Type     string
	IntentID string
}

// Gateway creates and inspects payment intents and verifies webhooks.
// Processor failures come back as apperror kind Payment, bad signatures
// as kind Signature.
type Gateway interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	GetIntent(ctx context.Context, id string) (*Intent, error)
	CancelIntent(ctx context.Context, id string) error
	ParseWebhook(payload []byte, signatureHeader string) (*Event, error)
}

// ToMinorUnits converts a decimal price to the smallest currency unit,
// rounding half away from zero.
func ToMinorUnits(price float64) int64 {
	return int64(math.Round(price * 100))
}
