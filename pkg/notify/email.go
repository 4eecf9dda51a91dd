package notify

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// MailSender is satisfied by *gomail.Dialer.
type MailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailNotifier mails the carwash owner when a booking is created.
type EmailNotifier struct {
	sender       MailSender
	from         string
	dashboardURL string
	log          *zap.Logger
}

func NewEmailNotifier(host string, port int, user, password, from, dashboardURL string, log *zap.Logger) *EmailNotifier {
	return NewEmailNotifierWithSender(gomail.NewDialer(host, port, user, password), from, dashboardURL, log)
}

func NewEmailNotifierWithSender(sender MailSender, from, dashboardURL string, log *zap.Logger) *EmailNotifier {
	return &EmailNotifier{
		sender:       sender,
		from:         from,
		dashboardURL: dashboardURL,
		log:          log.With(zap.String("notifier", "email")),
	}
}

func (e *EmailNotifier) Notify(ctx context.Context, notice Notice) error {
	if notice.Event != EventBookingCreated {
		return nil
	}
	if notice.OwnerEmail == "" {
		return errors.New("carwash has no owner email")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", e.from)
	m.SetHeader("To", notice.OwnerEmail)
	m.SetHeader("Subject", notice.Subject())
	m.SetBody("text/plain", notice.Summary(e.dashboardURL))

	if err := e.sender.DialAndSend(m); err != nil {
		e.log.Warn("Failed to send owner email",
			zap.Error(err),
			zap.String("booking_id", notice.BookingID.String()),
		)
		return err
	}

	e.log.Info("Owner email sent", zap.String("booking_id", notice.BookingID.String()))
	return nil
}
