package usecase

import (
	"context"
	"slices"
	"time"

	"carwash-booking/internal/data/entity"
	"carwash-booking/internal/data/repository"
	"carwash-booking/internal/dto/request"
	"carwash-booking/internal/dto/response"
	"carwash-booking/pkg/apperror"
	"carwash-booking/pkg/notify"
	"carwash-booking/pkg/payment"
	"carwash-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrSlotTaken       = apperror.New(apperror.KindConflict, "This time slot is already booked")
	ErrPaymentRequired = apperror.New(apperror.KindValidation, "cannot accept booking without payment")
	ErrBookingNotFound = apperror.New(apperror.KindNotFound, "booking not found")
	ErrCarwashNotFound = apperror.New(apperror.KindNotFound, "carwash not found")
	ErrServiceNotFound = apperror.New(apperror.KindNotFound, "service not found")
	ErrNotBookingOwner = apperror.New(apperror.KindAuthorization, "not authorized to update this booking")
)

// rollbackTimeout bounds cleanup that must outlive a cancelled request.
const rollbackTimeout = 10 * time.Second

type BookingService interface {
	// Public
	CheckAvailability(ctx context.Context, req *request.CheckAvailabilityRequest) (*response.AvailabilityResponse, error)

	// Customer
	CreateBooking(ctx context.Context, customerID uuid.UUID, req *request.CreateBookingRequest) (*response.CreateBookingResponse, error)
	CustomerBookings(ctx context.Context, customerID uuid.UUID, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error)

	// Owner / admin
	OwnerBookings(ctx context.Context, ownerID uuid.UUID, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error)
	UpdateBookingStatus(ctx context.Context, actor utils.Actor, bookingID string, req *request.UpdateBookingStatusRequest) (*response.BookingResponse, error)
}

type bookingService struct {
	repo     *repository.Repository
	gateway  payment.Gateway
	notifier notify.Notifier
	runner   TaskRunner
	currency string
	log      *zap.Logger
}

func NewBookingService(
	repo *repository.Repository,
	gateway payment.Gateway,
	notifier notify.Notifier,
	runner TaskRunner,
	config *utils.Config,
	log *zap.Logger,
) BookingService {
	currency := config.Payment.Currency
	if currency == "" {
		currency = "gel"
	}

	return &bookingService{
		repo:     repo,
		gateway:  gateway,
		notifier: notifier,
		runner:   runner,
		currency: currency,
		log:      log.With(zap.String("service", "booking")),
	}
}

func validationError(errs map[string]string) error {
	return apperror.Validation("validation failed: %s", utils.FormatValidationErrors(errs))
}

func (s *bookingService) CheckAvailability(ctx context.Context, req *request.CheckAvailabilityRequest) (*response.AvailabilityResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, validationError(errs)
	}

	carwashID, _ := uuid.Parse(req.CarwashID)
	at, err := utils.ParseSlotTime(req.Date, req.Time)
	if err != nil {
		return nil, apperror.Validation("invalid date or time")
	}

	taken, err := s.repo.Booking.ExistsActiveAtSlot(ctx, carwashID, at)
	if err != nil {
		return nil, err
	}

	return &response.AvailabilityResponse{Available: !taken}, nil
}

func (s *bookingService) CreateBooking(ctx context.Context, customerID uuid.UUID, req *request.CreateBookingRequest) (*response.CreateBookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create booking validation failed", zap.Any("errors", errs))
		return nil, validationError(errs)
	}

	carwashID, _ := uuid.Parse(req.CarwashID)
	serviceID, _ := uuid.Parse(req.ServiceID)

	// Same derivation as CheckAvailability.
	at, err := utils.ParseSlotTime(req.Date, req.Time)
	if err != nil {
		return nil, apperror.Validation("invalid date or time")
	}

	taken, err := s.repo.Booking.ExistsActiveAtSlot(ctx, carwashID, at)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrSlotTaken
	}

	carwash, err := s.repo.Carwash.FindByID(ctx, carwashID)
	if err != nil {
		return nil, err
	}
	if carwash == nil {
		return nil, ErrCarwashNotFound
	}

	service := carwash.FindService(serviceID)
	if service == nil {
		return nil, ErrServiceNotFound
	}

	now := time.Now().UTC()
	booking := &entity.Booking{
		BaseNoDelete: entity.BaseNoDelete{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		CustomerID: customerID,
		CarwashID:  carwashID,
		Service: entity.ServiceSnapshot{
			Name:     service.Name,
			Price:    service.Price,
			Duration: service.Duration,
		},
		ScheduledTime: at,
		Status:        entity.BookingStatusPending,
		Payment: entity.Payment{
			Status:   entity.PaymentStatusPending,
			Amount:   service.Price,
			Currency: s.currency,
		},
	}

	// The insert is the real slot guard; the check above only saves work.
	created, err := s.repo.Booking.CreateIfSlotFree(ctx, booking)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, ErrSlotTaken
	}

	intent, err := s.gateway.CreateIntent(ctx, payment.IntentRequest{
		AmountMinor: payment.ToMinorUnits(booking.Payment.Amount),
		Currency:    booking.Payment.Currency,
		Metadata:    map[string]string{payment.MetadataBookingID: booking.ID.String()},
	})
	if err != nil {
		s.log.Error("Payment intent failed, rolling back booking",
			zap.Error(err),
			zap.String("booking_id", booking.ID.String()),
		)
		s.rollback(ctx, booking.ID, "")
		if apperror.Is(err, apperror.KindPayment) {
			return nil, err
		}
		return nil, apperror.Payment("failed to create payment intent", err)
	}

	if err := s.repo.Booking.SetPaymentIntent(ctx, booking.ID, intent.ID); err != nil {
		s.log.Error("Failed to persist payment intent, rolling back booking",
			zap.Error(err),
			zap.String("booking_id", booking.ID.String()),
			zap.String("payment_intent_id", intent.ID),
		)
		s.rollback(ctx, booking.ID, intent.ID)
		return nil, err
	}
	booking.Payment.IntentID = &intent.ID

	s.log.Info("Booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("carwash_id", carwashID.String()),
		zap.Time("scheduled_time", at),
		zap.String("payment_intent_id", intent.ID),
	)

	submitNotice(s.runner, s.notifier, s.log, noticeFor(notify.EventBookingCreated, booking, carwash))

	return &response.CreateBookingResponse{
		Booking:         response.BookingToResponse(booking),
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
	}, nil
}

// rollback removes a booking whose payment setup failed, freeing the slot,
// and cancels the intent if one was issued.
func (s *bookingService) rollback(ctx context.Context, bookingID uuid.UUID, intentID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()

	if err := s.repo.Booking.Delete(ctx, bookingID); err != nil {
		s.log.Error("Rollback failed, booking left behind",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
	}

	if intentID == "" {
		return
	}
	if err := s.gateway.CancelIntent(ctx, intentID); err != nil {
		s.log.Warn("Failed to cancel orphaned payment intent",
			zap.Error(err),
			zap.String("payment_intent_id", intentID),
		)
	}
}

func (s *bookingService) UpdateBookingStatus(ctx context.Context, actor utils.Actor, bookingID string, req *request.UpdateBookingStatusRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, validationError(errs)
	}

	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, apperror.Validation("invalid booking ID")
	}

	to := entity.BookingStatus(req.Status)
	if !to.Valid() {
		return nil, apperror.Validation("invalid status %q", req.Status)
	}

	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}

	if !actor.IsAdmin() {
		carwash, err := s.repo.Carwash.FindByID(ctx, booking.CarwashID)
		if err != nil {
			return nil, err
		}
		if carwash == nil || carwash.OwnerID != actor.UserID {
			s.log.Warn("Status update by non-owner",
				zap.String("booking_id", id.String()),
				zap.String("actor_id", actor.UserID.String()),
			)
			return nil, ErrNotBookingOwner
		}
	}

	if err := checkTransition(booking, to); err != nil {
		return nil, err
	}

	updated, err := s.repo.Booking.UpdateStatus(ctx, id, to, to.AllowedFrom(), to == entity.BookingStatusAccepted)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		// Lost a race with another writer; explain against the fresh row.
		current, err := s.repo.Booking.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, ErrBookingNotFound
		}
		if err := checkTransition(current, to); err != nil {
			return nil, err
		}
		return nil, apperror.Conflict("booking was modified concurrently, retry")
	}

	s.log.Info("Booking status updated",
		zap.String("booking_id", id.String()),
		zap.String("from", string(booking.Status)),
		zap.String("to", string(to)),
		zap.String("actor_id", actor.UserID.String()),
	)

	resp := response.BookingToResponse(updated)
	return &resp, nil
}

// checkTransition applies the lifecycle rules to the stored booking.
func checkTransition(b *entity.Booking, to entity.BookingStatus) error {
	if b.Status.Terminal() {
		return apperror.Conflict("booking is already %s", b.Status)
	}
	if to == entity.BookingStatusAccepted && b.Payment.Status != entity.PaymentStatusPaid {
		return ErrPaymentRequired
	}
	if !slices.Contains(to.AllowedFrom(), b.Status) {
		return apperror.Conflict("cannot change booking from %s to %s", b.Status, to)
	}
	return nil
}

func (s *bookingService) CustomerBookings(ctx context.Context, customerID uuid.UUID, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	views, err := s.repo.Booking.FindByCustomer(ctx, customerID, req.Limit(), req.Offset())
	if err != nil {
		return nil, err
	}

	total, err := s.repo.Booking.CountByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	data := make([]response.BookingResponse, 0, len(views))
	for _, v := range views {
		data = append(data, response.BookingViewToResponse(v))
	}

	return response.NewPaginatedResponse(data, pageOf(req), req.Limit(), total), nil
}

func (s *bookingService) OwnerBookings(ctx context.Context, ownerID uuid.UUID, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	views, err := s.repo.Booking.FindByOwner(ctx, ownerID, req.Limit(), req.Offset())
	if err != nil {
		return nil, err
	}

	total, err := s.repo.Booking.CountByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	customerIDs := make([]uuid.UUID, 0, len(views))
	for _, v := range views {
		if !slices.Contains(customerIDs, v.CustomerID) {
			customerIDs = append(customerIDs, v.CustomerID)
		}
	}

	// Names are display only; a directory failure still returns the listing.
	customers, err := s.repo.User.FindByIDs(ctx, customerIDs)
	if err != nil {
		s.log.Warn("Failed to load customer names", zap.Error(err))
	}

	data := make([]response.BookingResponse, 0, len(views))
	for _, v := range views {
		if u, ok := customers[v.CustomerID]; ok {
			v.CustomerName = u.Name
			v.CustomerEmail = u.Email
		}
		data = append(data, response.BookingViewToResponse(v))
	}

	return response.NewPaginatedResponse(data, pageOf(req), req.Limit(), total), nil
}

func pageOf(req *request.PaginatedRequest) int {
	if req.Page < 1 {
		return 1
	}
	return req.Page
}
