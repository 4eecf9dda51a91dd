// Package notify delivers booking and payment notices to carwash owners
// and downstream consumers. Delivery is best effort.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Notice event names, also used as AMQP routing keys.
const (
	EventBookingCreated = "booking.created"
	EventPaymentPaid    = "payment.paid"
	EventPaymentFailed  = "payment.failed"
)

// Notice is a plain summary of a booking state change.
type Notice struct {
	Event         string    `json:"event"`
	BookingID     uuid.UUID `json:"bookingId"`
	CarwashID     uuid.UUID `json:"carwashId"`
	CarwashName   string    `json:"carwashName,omitempty"`
	OwnerEmail    string    `json:"-"`
	ServiceName   string    `json:"serviceName"`
	ScheduledTime time.Time `json:"scheduledTime"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	PaymentStatus string    `json:"paymentStatus"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// Subject is a one-line title for the notice.
func (n Notice) Subject() string {
	switch n.Event {
	case EventBookingCreated:
		return fmt.Sprintf("New booking: %s", n.ServiceName)
	case EventPaymentPaid:
		return fmt.Sprintf("Payment received: %s", n.ServiceName)
	case EventPaymentFailed:
		return fmt.Sprintf("Payment failed: %s", n.ServiceName)
	}
	return n.Event
}

// Summary renders the plain text body.
func (n Notice) Summary(dashboardURL string) string {
	body := fmt.Sprintf(
		"Service: %s\nScheduled: %s UTC\nAmount: %.2f %s\nPayment: %s\nBooking: %s\n",
		n.ServiceName,
		n.ScheduledTime.UTC().Format("2006-01-02 15:04"),
		n.Amount,
		n.Currency,
		n.PaymentStatus,
		n.BookingID,
	)
	if dashboardURL != "" {
		body += fmt.Sprintf("\nManage it at %s\n", dashboardURL)
	}
	return body
}

type Notifier interface {
	Notify(ctx context.Context, notice Notice) error
}
