package response

import (
	"time"

	"carwash-booking/internal/data/entity"
)

type ServiceSnapshotResponse struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Duration int     `json:"duration"`
}

type PaymentResponse struct {
	Status          entity.PaymentStatus `json:"status"`
	PaymentIntentID *string              `json:"paymentIntentId,omitempty"`
	Amount          float64              `json:"amount"`
	Currency        string               `json:"currency"`
}

type CustomerSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

type CarwashSummary struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type BookingResponse struct {
	ID            string                  `json:"id"`
	Customer      CustomerSummary         `json:"customer"`
	Carwash       CarwashSummary          `json:"carwash"`
	Service       ServiceSnapshotResponse `json:"service"`
	ScheduledTime time.Time               `json:"scheduledTime"`
	Status        entity.BookingStatus    `json:"status"`
	Payment       PaymentResponse         `json:"payment"`
	CreatedAt     time.Time               `json:"createdAt"`
	UpdatedAt     time.Time               `json:"updatedAt"`
}

type CreateBookingResponse struct {
	Booking         BookingResponse `json:"booking"`
	ClientSecret    string          `json:"clientSecret"`
	PaymentIntentID string          `json:"paymentIntentId"`
}

type AvailabilityResponse struct {
	Available bool `json:"available"`
}

func BookingToResponse(b *entity.Booking) BookingResponse {
	return BookingResponse{
		ID:       b.ID.String(),
		Customer: CustomerSummary{ID: b.CustomerID.String()},
		Carwash:  CarwashSummary{ID: b.CarwashID.String()},
		Service: ServiceSnapshotResponse{
			Name:     b.Service.Name,
			Price:    b.Service.Price,
			Duration: b.Service.Duration,
		},
		ScheduledTime: b.ScheduledTime.UTC(),
		Status:        b.Status,
		Payment: PaymentResponse{
			Status:          b.Payment.Status,
			PaymentIntentID: b.Payment.IntentID,
			Amount:          b.Payment.Amount,
			Currency:        b.Payment.Currency,
		},
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

// BookingViewToResponse includes whatever display names the view carries.
func BookingViewToResponse(v *entity.BookingView) BookingResponse {
	resp := BookingToResponse(&v.Booking)
	resp.Carwash.Name = v.CarwashName
	resp.Customer.Name = v.CustomerName
	resp.Customer.Email = v.CustomerEmail
	return resp
}
