package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier writes notices to the logger. It is the fallback when no
// SMTP relay or broker is configured.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log.With(zap.String("notifier", "log"))}
}

func (l *LogNotifier) Notify(_ context.Context, notice Notice) error {
	l.log.Info(notice.Subject(),
		zap.String("event", notice.Event),
		zap.String("booking_id", notice.BookingID.String()),
		zap.String("carwash_id", notice.CarwashID.String()),
		zap.Time("scheduled_time", notice.ScheduledTime),
		zap.Float64("amount", notice.Amount),
		zap.String("currency", notice.Currency),
	)
	return nil
}
