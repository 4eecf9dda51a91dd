package usecase

import (
	"time"

	"carwash-booking/internal/data/entity"
	"carwash-booking/pkg/notify"
)

func noticeFor(event string, b *entity.Booking, carwash *entity.Carwash) notify.Notice {
	n := notify.Notice{
		Event:         event,
		BookingID:     b.ID,
		CarwashID:     b.CarwashID,
		ServiceName:   b.Service.Name,
		ScheduledTime: b.ScheduledTime,
		Amount:        b.Payment.Amount,
		Currency:      b.Payment.Currency,
		PaymentStatus: string(b.Payment.Status),
		OccurredAt:    time.Now().UTC(),
	}
	if carwash != nil {
		n.CarwashName = carwash.Name
		n.OwnerEmail = carwash.Email
	}
	return n
}
