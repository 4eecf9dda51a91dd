package usecase

import (
	"context"

	"carwash-booking/internal/data/repository"
	"carwash-booking/pkg/notify"
	"carwash-booking/pkg/payment"
	"carwash-booking/pkg/utils"
	"carwash-booking/pkg/worker"

	"go.uber.org/zap"
)

// TaskRunner accepts detached work. *worker.Dispatcher implements it.
type TaskRunner interface {
	Submit(name string, task worker.Task) error
}

type Service struct {
	Booking BookingService
	Payment PaymentService
	Stats   StatsService
}

func NewService(
	repo *repository.Repository,
	gateway payment.Gateway,
	notifier notify.Notifier,
	runner TaskRunner,
	config *utils.Config,
	log *zap.Logger,
) *Service {
	return &Service{
		Booking: NewBookingService(repo, gateway, notifier, runner, config, log),
		Payment: NewPaymentService(repo, gateway, notifier, runner, config, log),
		Stats:   NewStatsService(repo, config, log),
	}
}

// submitNotice hands a notice to the runner. Delivery failures are logged
// by the runner and never reach the caller.
func submitNotice(runner TaskRunner, notifier notify.Notifier, log *zap.Logger, notice notify.Notice) {
	err := runner.Submit("notify "+notice.Event, func(ctx context.Context) error {
		return notifier.Notify(ctx, notice)
	})
	if err != nil {
		log.Warn("Notification not scheduled",
			zap.Error(err),
			zap.String("event", notice.Event),
			zap.String("booking_id", notice.BookingID.String()),
		)
	}
}
