package usecase

import (
	"context"

	"carwash-booking/internal/data/entity"
	"carwash-booking/internal/data/repository"
	"carwash-booking/internal/dto/request"
	"carwash-booking/internal/dto/response"
	"carwash-booking/pkg/apperror"
	"carwash-booking/pkg/notify"
	"carwash-booking/pkg/payment"
	"carwash-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PaymentService interface {
	// HandleWebhook verifies a delivery and schedules its effect. A nil
	// error means the delivery may be acknowledged.
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
	HandleEvent(ctx context.Context, event *payment.Event) error

	ConfirmPayment(ctx context.Context, customerID uuid.UUID, req *request.ConfirmPaymentRequest) (*response.BookingResponse, error)
	TestWebhook(ctx context.Context, req *request.TestWebhookRequest) (*response.BookingResponse, error)
}

type paymentService struct {
	repo     *repository.Repository
	gateway  payment.Gateway
	notifier notify.Notifier
	runner   TaskRunner
	testMode bool
	log      *zap.Logger
}

func NewPaymentService(
	repo *repository.Repository,
	gateway payment.Gateway,
	notifier notify.Notifier,
	runner TaskRunner,
	config *utils.Config,
	log *zap.Logger,
) PaymentService {
	return &paymentService{
		repo:     repo,
		gateway:  gateway,
		notifier: notifier,
		runner:   runner,
		testMode: config.Payment.TestMode,
		log:      log.With(zap.String("service", "payment")),
	}
}

func (s *paymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		s.log.Warn("Webhook rejected", zap.Error(err))
		return err
	}

	s.log.Info("Webhook received",
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type),
		zap.String("payment_intent_id", event.IntentID),
	)

	// Processing is detached from the request so the gateway gets its
	// acknowledgement within its response budget.
	err = s.runner.Submit("webhook "+event.Type, func(ctx context.Context) error {
		return s.HandleEvent(ctx, event)
	})
	if err != nil {
		return apperror.Wrap(apperror.KindInternal, "webhook not scheduled", err)
	}

	return nil
}

// HandleEvent applies a verified event. Redelivery is safe: transitions are
// keyed by intent id and the stored payment status, never by event id.
func (s *paymentService) HandleEvent(ctx context.Context, event *payment.Event) error {
	if event.IntentID == "" && (event.Type == payment.EventPaymentSucceeded || event.Type == payment.EventPaymentFailed) {
		s.log.Warn("Payment event without intent id", zap.String("event_id", event.ID))
		return nil
	}

	switch event.Type {
	case payment.EventPaymentSucceeded:
		_, err := s.applySucceeded(ctx, event.IntentID)
		return err
	case payment.EventPaymentFailed:
		_, err := s.applyFailed(ctx, event.IntentID)
		return err
	default:
		s.log.Info("Ignoring webhook event",
			zap.String("event_id", event.ID),
			zap.String("event_type", event.Type),
		)
		return nil
	}
}

// applySucceeded marks the payment paid. Booking status stays as is; the
// owner still has to accept.
func (s *paymentService) applySucceeded(ctx context.Context, intentID string) (*entity.Booking, error) {
	updated, err := s.repo.Booking.MarkPaymentPaid(ctx, intentID)
	if err != nil {
		return nil, err
	}

	if updated == nil {
		existing, err := s.repo.Booking.FindByIntentID(ctx, intentID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			s.log.Warn("No booking for payment intent", zap.String("payment_intent_id", intentID))
			return nil, nil
		}
		s.log.Info("Payment success already applied",
			zap.String("payment_intent_id", intentID),
			zap.String("booking_id", existing.ID.String()),
			zap.String("payment_status", string(existing.Payment.Status)),
		)
		return existing, nil
	}

	s.log.Info("Payment marked paid",
		zap.String("payment_intent_id", intentID),
		zap.String("booking_id", updated.ID.String()),
	)
	submitNotice(s.runner, s.notifier, s.log, noticeFor(notify.EventPaymentPaid, updated, nil))

	return updated, nil
}

// applyFailed marks a pending payment failed. A paid payment never goes
// back to failed.
func (s *paymentService) applyFailed(ctx context.Context, intentID string) (*entity.Booking, error) {
	updated, err := s.repo.Booking.MarkPaymentFailed(ctx, intentID)
	if err != nil {
		return nil, err
	}

	if updated == nil {
		existing, err := s.repo.Booking.FindByIntentID(ctx, intentID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			s.log.Warn("No booking for payment intent", zap.String("payment_intent_id", intentID))
			return nil, nil
		}
		s.log.Info("Payment failure not applied",
			zap.String("payment_intent_id", intentID),
			zap.String("booking_id", existing.ID.String()),
			zap.String("payment_status", string(existing.Payment.Status)),
		)
		return existing, nil
	}

	s.log.Info("Payment marked failed",
		zap.String("payment_intent_id", intentID),
		zap.String("booking_id", updated.ID.String()),
	)
	submitNotice(s.runner, s.notifier, s.log, noticeFor(notify.EventPaymentFailed, updated, nil))

	return updated, nil
}

// ConfirmPayment lets a customer confirm from the client after the payment
// sheet completes. Outside test mode the gateway must report success.
func (s *paymentService) ConfirmPayment(ctx context.Context, customerID uuid.UUID, req *request.ConfirmPaymentRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, validationError(errs)
	}

	booking, err := s.repo.Booking.FindByIntentID(ctx, req.PaymentIntentID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}
	if booking.CustomerID != customerID {
		return nil, apperror.Forbidden("not authorized to confirm this payment")
	}

	if booking.Payment.Status != entity.PaymentStatusPaid {
		if !s.testMode {
			intent, err := s.gateway.GetIntent(ctx, req.PaymentIntentID)
			if err != nil {
				return nil, err
			}
			if intent.Status != payment.IntentSucceeded {
				return nil, apperror.Validation("payment has not succeeded (status %s)", intent.Status)
			}
		}

		if booking, err = s.applySucceeded(ctx, req.PaymentIntentID); err != nil {
			return nil, err
		}
		if booking == nil {
			return nil, ErrBookingNotFound
		}
	}

	resp := response.BookingToResponse(booking)
	return &resp, nil
}

// TestWebhook runs the reconciler synchronously for an unsigned event.
// Only reachable in payment test mode.
func (s *paymentService) TestWebhook(ctx context.Context, req *request.TestWebhookRequest) (*response.BookingResponse, error) {
	if !s.testMode {
		return nil, apperror.Forbidden("test webhooks are disabled")
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, validationError(errs)
	}

	event := &payment.Event{
		ID:       "evt_test_" + uuid.NewString(),
		Type:     req.EventType,
		IntentID: req.PaymentIntentID,
	}
	if err := s.HandleEvent(ctx, event); err != nil {
		return nil, err
	}

	booking, err := s.repo.Booking.FindByIntentID(ctx, req.PaymentIntentID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}

	resp := response.BookingToResponse(booking)
	return &resp, nil
}
