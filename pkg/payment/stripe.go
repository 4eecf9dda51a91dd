package payment

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"carwash-booking/pkg/apperror"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"
	"go.uber.org/zap"
)

type stripeGateway struct {
	api           *client.API
	webhookSecret string
	log           *zap.Logger
}

// NewStripeGateway builds a Gateway on the Stripe API. A nil backends
// value uses Stripe's default HTTP backends.
func NewStripeGateway(secretKey, webhookSecret string, backends *stripe.Backends, log *zap.Logger) Gateway {
	api := &client.API{}
	api.Init(secretKey, backends)

	return &stripeGateway{
		api:           api,
		webhookSecret: webhookSecret,
		log:           log.With(zap.String("gateway", "stripe")),
	}
}

func (g *stripeGateway) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	if req.AmountMinor <= 0 {
		return nil, apperror.Payment("payment amount must be positive", nil)
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.AmountMinor),
		Currency: stripe.String(strings.ToLower(req.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		g.log.Error("Failed to create payment intent",
			zap.Error(err),
			zap.Int64("amount", req.AmountMinor),
			zap.String("currency", req.Currency),
		)
		return nil, apperror.Payment("failed to create payment intent", err)
	}

	g.log.Info("Payment intent created",
		zap.String("payment_intent_id", pi.ID),
		zap.Int64("amount", pi.Amount),
	)

	return toIntent(pi), nil
}

func (g *stripeGateway) GetIntent(ctx context.Context, id string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.Get(id, params)
	if err != nil {
		g.log.Error("Failed to retrieve payment intent",
			zap.Error(err),
			zap.String("payment_intent_id", id),
		)
		return nil, apperror.Payment("failed to retrieve payment intent", err)
	}

	return toIntent(pi), nil
}

func (g *stripeGateway) CancelIntent(ctx context.Context, id string) error {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx

	if _, err := g.api.PaymentIntents.Cancel(id, params); err != nil {
		g.log.Warn("Failed to cancel payment intent",
			zap.Error(err),
			zap.String("payment_intent_id", id),
		)
		return apperror.Payment("failed to cancel payment intent", err)
	}

	return nil
}

// ParseWebhook verifies the Stripe-Signature header against the exact
// payload bytes before decoding anything.
func (g *stripeGateway) ParseWebhook(payload []byte, signatureHeader string) (*Event, error) {
	if g.webhookSecret == "" {
		return nil, apperror.Signature(errors.New("webhook secret not configured"))
	}

	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, apperror.Signature(err)
	}

	out := &Event{ID: event.ID, Type: string(event.Type)}
	if event.Data != nil && len(event.Data.Raw) > 0 && strings.HasPrefix(out.Type, "payment_intent.") {
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, apperror.Validation("malformed payment intent in event %s", event.ID)
		}
		out.IntentID = pi.ID
	}

	return out, nil
}

func toIntent(pi *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		AmountMinor:  pi.Amount,
		Currency:     string(pi.Currency),
		Metadata:     pi.Metadata,
	}
}
