package usecase

import (
	"context"

	"carwash-booking/internal/data/entity"
	"carwash-booking/internal/data/repository"
	"carwash-booking/internal/dto/response"
	"carwash-booking/pkg/utils"

	"go.uber.org/zap"
)

const recentBookingsLimit = 5

type StatsService interface {
	Statistics(ctx context.Context) (*response.StatisticsResponse, error)
}

type statsService struct {
	repo     *repository.Repository
	currency string
	log      *zap.Logger
}

func NewStatsService(repo *repository.Repository, config *utils.Config, log *zap.Logger) StatsService {
	return &statsService{
		repo:     repo,
		currency: config.Payment.Currency,
		log:      log.With(zap.String("service", "stats")),
	}
}

func (s *statsService) Statistics(ctx context.Context) (*response.StatisticsResponse, error) {
	stats, err := s.repo.Booking.Stats(ctx, recentBookingsLimit)
	if err != nil {
		return nil, err
	}

	resp := &response.StatisticsResponse{
		TotalBookings:   stats.Total,
		ByStatus:        make(map[string]int64),
		ByPaymentStatus: make(map[string]int64),
		Revenue:         stats.Revenue,
		Currency:        s.currency,
		RecentBookings:  make([]response.BookingResponse, 0, len(stats.Recent)),
	}

	// Every status is present so dashboards need no defaults.
	for _, st := range []entity.BookingStatus{
		entity.BookingStatusPending, entity.BookingStatusAccepted, entity.BookingStatusRejected,
		entity.BookingStatusCancelled, entity.BookingStatusCompleted,
	} {
		resp.ByStatus[string(st)] = stats.ByStatus[st]
	}
	for _, st := range []entity.PaymentStatus{
		entity.PaymentStatusPending, entity.PaymentStatusPaid, entity.PaymentStatusFailed, entity.PaymentStatusRefunded,
	} {
		resp.ByPaymentStatus[string(st)] = stats.ByPaymentStatus[st]
	}

	for _, v := range stats.Recent {
		resp.RecentBookings = append(resp.RecentBookings, response.BookingViewToResponse(v))
	}

	return resp, nil
}
