package request

type CheckAvailabilityRequest struct {
	CarwashID string `json:"carwashId" validate:"required,uuid"`
	Date      string `json:"date" validate:"required,slotdate"`
	Time      string `json:"time" validate:"required,slottime"`
}

type CreateBookingRequest struct {
	CarwashID string `json:"carwashId" validate:"required,uuid"`
	ServiceID string `json:"serviceId" validate:"required,uuid"`
	Date      string `json:"date" validate:"required,slotdate"`
	Time      string `json:"time" validate:"required,slottime"`
}

type UpdateBookingStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending accepted rejected cancelled completed"`
}

type ConfirmPaymentRequest struct {
	PaymentIntentID string `json:"paymentIntentId" validate:"required,max=255"`
}
