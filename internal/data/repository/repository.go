package repository

import (
	"carwash-booking/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	User    UserRepository
	Carwash CarwashRepository
	Booking BookingRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		User:    NewUserRepository(db, log),
		Carwash: NewCarwashRepository(db, log),
		Booking: NewBookingRepository(db, log),
	}
}
