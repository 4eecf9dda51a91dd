package entity

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusAccepted  BookingStatus = "accepted"
	BookingStatusRejected  BookingStatus = "rejected"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusAccepted, BookingStatusRejected,
		BookingStatusCancelled, BookingStatusCompleted:
		return true
	}
	return false
}

// Terminal statuses accept no further transitions.
func (s BookingStatus) Terminal() bool {
	return s == BookingStatusRejected || s == BookingStatusCancelled || s == BookingStatusCompleted
}

// Active statuses hold the slot.
func (s BookingStatus) Active() bool {
	return s == BookingStatusPending || s == BookingStatusAccepted
}

// AllowedFrom lists the statuses a booking may move to s from. Pending is
// only ever the initial status.
func (s BookingStatus) AllowedFrom() []BookingStatus {
	switch s {
	case BookingStatusAccepted:
		return []BookingStatus{BookingStatusPending}
	case BookingStatusCompleted:
		return []BookingStatus{BookingStatusAccepted}
	case BookingStatusRejected, BookingStatusCancelled:
		return []BookingStatus{BookingStatusPending, BookingStatusAccepted}
	}
	return nil
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// ServiceSnapshot is the catalog service as it was when the booking was made.
type ServiceSnapshot struct {
	Name     string  `db:"service_name"`
	Price    float64 `db:"service_price"`
	Duration int     `db:"service_duration"`
}

type Payment struct {
	Status   PaymentStatus `db:"payment_status"`
	IntentID *string       `db:"payment_intent_id"`
	Amount   float64       `db:"payment_amount"`
	Currency string        `db:"payment_currency"`
}

type Booking struct {
	BaseNoDelete
	CustomerID    uuid.UUID       `db:"customer_id"`
	CarwashID     uuid.UUID       `db:"carwash_id"`
	Service       ServiceSnapshot `db:"-"`
	ScheduledTime time.Time       `db:"scheduled_time"`
	Status        BookingStatus   `db:"status"`
	Payment       Payment         `db:"-"`
}

// BookingView is a booking joined with display names for listings.
type BookingView struct {
	Booking
	CarwashName   string
	CustomerName  string
	CustomerEmail string
}

// BookingStats is the admin dashboard aggregate.
type BookingStats struct {
	Total           int64
	ByStatus        map[BookingStatus]int64
	ByPaymentStatus map[PaymentStatus]int64
	Revenue         float64
	Recent          []*BookingView
}
