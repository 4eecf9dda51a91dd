package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"carwash-booking/internal/data/entity"
	"carwash-booking/internal/dto/request"
	"carwash-booking/pkg/apperror"
	"carwash-booking/pkg/notify"
	"carwash-booking/pkg/payment"
	"carwash-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) createRequest(date, clock string) *request.CreateBookingRequest {
	return &request.CreateBookingRequest{
		CarwashID: f.carwash.ID.String(),
		ServiceID: f.service.ID.String(),
		Date:      date,
		Time:      clock,
	}
}

func (f *fixture) mustCreate(t *testing.T, date, clock string) (uuid.UUID, string) {
	t.Helper()
	resp, err := f.booking.CreateBooking(context.Background(), f.customerID, f.createRequest(date, clock))
	require.NoError(t, err)
	return uuid.MustParse(resp.Booking.ID), resp.PaymentIntentID
}

func (f *fixture) owner() utils.Actor {
	return utils.Actor{UserID: f.ownerID, Role: "owner"}
}

func TestCreateBooking_Scenario(t *testing.T) {
	f := newFixture(t)

	resp, err := f.booking.CreateBooking(context.Background(), f.customerID, f.createRequest("2024-01-01", "10:00"))
	require.NoError(t, err)

	assert.Equal(t, entity.BookingStatusPending, resp.Booking.Status)
	assert.Equal(t, entity.PaymentStatusPending, resp.Booking.Payment.Status)
	assert.Equal(t, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), resp.Booking.ScheduledTime)
	assert.Equal(t, 15.0, resp.Booking.Payment.Amount)
	assert.Equal(t, "gel", resp.Booking.Payment.Currency)
	assert.NotEmpty(t, resp.ClientSecret)
	assert.NotEmpty(t, resp.PaymentIntentID)
	require.NotNil(t, resp.Booking.Payment.PaymentIntentID)
	assert.Equal(t, resp.PaymentIntentID, *resp.Booking.Payment.PaymentIntentID)

	require.Len(t, f.gateway.requests, 1)
	req := f.gateway.requests[0]
	assert.Equal(t, int64(1500), req.AmountMinor)
	assert.Equal(t, "gel", req.Currency)
	assert.Equal(t, resp.Booking.ID, req.Metadata[payment.MetadataBookingID])

	stored, err := f.bookings.FindByIntentID(context.Background(), resp.PaymentIntentID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, resp.Booking.ID, stored.ID.String())

	require.Len(t, f.notifier.notices, 1)
	notice := f.notifier.notices[0]
	assert.Equal(t, notify.EventBookingCreated, notice.Event)
	assert.Equal(t, "owner@sparkle.ge", notice.OwnerEmail)
	assert.Equal(t, "Wash", notice.ServiceName)
}

func TestCreateBooking_SlotAlreadyBooked(t *testing.T) {
	f := newFixture(t)
	f.mustCreate(t, "2024-01-01", "10:00")

	_, err := f.booking.CreateBooking(context.Background(), uuid.New(), f.createRequest("2024-01-01", "10:00"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSlotTaken))
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
	assert.Len(t, f.gateway.requests, 1, "no intent for a rejected booking")
}

func TestCreateBooking_ConcurrentSameSlot(t *testing.T) {
	f := newFixture(t)

	const attempts = 25
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)

	start := make(chan struct{})
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.booking.CreateBooking(context.Background(), uuid.New(), f.createRequest("2024-03-15", "09:30"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case apperror.Is(err, apperror.KindConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, conflicts)

	active := 0
	for _, b := range f.bookings.bookings {
		if b.Status.Active() {
			active++
		}
	}
	assert.Equal(t, 1, active)
}

func TestCreateBooking_SlotFreedByCancellation(t *testing.T) {
	f := newFixture(t)
	id, _ := f.mustCreate(t, "2024-01-01", "10:00")

	_, err := f.booking.UpdateBookingStatus(context.Background(), f.owner(), id.String(),
		&request.UpdateBookingStatusRequest{Status: "cancelled"})
	require.NoError(t, err)

	avail, err := f.booking.CheckAvailability(context.Background(), &request.CheckAvailabilityRequest{
		CarwashID: f.carwash.ID.String(), Date: "2024-01-01", Time: "10:00",
	})
	require.NoError(t, err)
	assert.True(t, avail.Available)

	f.mustCreate(t, "2024-01-01", "10:00")
}

func TestCreateBooking_CatalogMisses(t *testing.T) {
	f := newFixture(t)

	req := f.createRequest("2024-01-01", "10:00")
	req.CarwashID = uuid.NewString()
	_, err := f.booking.CreateBooking(context.Background(), f.customerID, req)
	assert.ErrorIs(t, err, ErrCarwashNotFound)

	req = f.createRequest("2024-01-01", "10:00")
	req.ServiceID = uuid.NewString()
	_, err = f.booking.CreateBooking(context.Background(), f.customerID, req)
	assert.ErrorIs(t, err, ErrServiceNotFound)

	assert.Empty(t, f.bookings.bookings)
}

func TestCreateBooking_InvalidInput(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		edit func(r *request.CreateBookingRequest)
	}{
		{"bad date", func(r *request.CreateBookingRequest) { r.Date = "01/01/2024" }},
		{"bad time", func(r *request.CreateBookingRequest) { r.Time = "25:00" }},
		{"bad carwash id", func(r *request.CreateBookingRequest) { r.CarwashID = "nope" }},
		{"missing service", func(r *request.CreateBookingRequest) { r.ServiceID = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := f.createRequest("2024-01-01", "10:00")
			tt.edit(req)
			_, err := f.booking.CreateBooking(context.Background(), f.customerID, req)
			assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
		})
	}
}

func TestCreateBooking_IntentFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	f.gateway.createErr = apperror.Payment("card network down", errors.New("503"))

	_, err := f.booking.CreateBooking(context.Background(), f.customerID, f.createRequest("2024-01-01", "10:00"))
	require.Error(t, err)
	assert.Equal(t, apperror.KindPayment, apperror.KindOf(err))
	assert.Empty(t, f.bookings.bookings, "booking must be rolled back")
	assert.Empty(t, f.notifier.notices)

	f.gateway.createErr = nil
	f.mustCreate(t, "2024-01-01", "10:00")
}

func TestCreateBooking_IntentFailureWrapsUnclassified(t *testing.T) {
	f := newFixture(t)
	f.gateway.createErr = errors.New("connection reset")

	_, err := f.booking.CreateBooking(context.Background(), f.customerID, f.createRequest("2024-01-01", "10:00"))
	assert.Equal(t, apperror.KindPayment, apperror.KindOf(err))
	assert.Empty(t, f.bookings.bookings)
}

func TestCreateBooking_PersistIntentFailureCancelsIntent(t *testing.T) {
	f := newFixture(t)
	f.bookings.setIntentErr = errors.New("write timeout")

	_, err := f.booking.CreateBooking(context.Background(), f.customerID, f.createRequest("2024-01-01", "10:00"))
	require.Error(t, err)
	assert.Empty(t, f.bookings.bookings)
	assert.Equal(t, []string{"pi_test_1"}, f.gateway.cancelled)
}

func TestCreateBooking_SnapshotSurvivesCatalogEdit(t *testing.T) {
	f := newFixture(t)
	f.service.Price = 20
	f.service.Duration = 30

	id, _ := f.mustCreate(t, "2024-01-01", "10:00")

	f.service.Price = 25
	f.service.Name = "Premium Wash"

	stored, err := f.bookings.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, entity.ServiceSnapshot{Name: "Wash", Price: 20, Duration: 30}, stored.Service)
	assert.Equal(t, 20.0, stored.Payment.Amount)
}

func TestUpdateBookingStatus_AcceptRequiresPaid(t *testing.T) {
	for _, status := range []entity.PaymentStatus{entity.PaymentStatusPending, entity.PaymentStatusFailed} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture(t)
			id, _ := f.mustCreate(t, "2024-01-01", "10:00")
			f.bookings.bookings[id].Payment.Status = status

			_, err := f.booking.UpdateBookingStatus(context.Background(), f.owner(), id.String(),
				&request.UpdateBookingStatusRequest{Status: "accepted"})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrPaymentRequired)
			assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
			assert.Equal(t, entity.BookingStatusPending, f.bookings.bookings[id].Status)
		})
	}
}

func TestUpdateBookingStatus_AcceptAfterWebhook(t *testing.T) {
	f := newFixture(t)
	id, intentID := f.mustCreate(t, "2024-01-01", "10:00")
	update := &request.UpdateBookingStatusRequest{Status: "accepted"}

	_, err := f.booking.UpdateBookingStatus(context.Background(), f.owner(), id.String(), update)
	require.ErrorIs(t, err, ErrPaymentRequired)

	err = f.payment.HandleEvent(context.Background(), &payment.Event{
		ID: "evt_1", Type: payment.EventPaymentSucceeded, IntentID: intentID,
	})
	require.NoError(t, err)

	stored, _ := f.bookings.FindByID(context.Background(), id)
	assert.Equal(t, entity.PaymentStatusPaid, stored.Payment.Status)
	assert.Equal(t, entity.BookingStatusPending, stored.Status)

	resp, err := f.booking.UpdateBookingStatus(context.Background(), f.owner(), id.String(), update)
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusAccepted, resp.Status)

	resp, err = f.booking.UpdateBookingStatus(context.Background(), f.owner(), id.String(),
		&request.UpdateBookingStatusRequest{Status: "completed"})
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusCompleted, resp.Status)
}

func TestUpdateBookingStatus_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		from    entity.BookingStatus
		paid    bool
		to      string
		wantErr apperror.Kind
	}{
		{"reject pending", entity.BookingStatusPending, false, "rejected", -1},
		{"cancel accepted", entity.BookingStatusAccepted, true, "cancelled", -1},
		{"complete accepted", entity.BookingStatusAccepted, true, "completed", -1},
		{"complete pending", entity.BookingStatusPending, true, "completed", apperror.KindConflict},
		{"back to pending", entity.BookingStatusAccepted, true, "pending", apperror.KindConflict},
		{"accept accepted", entity.BookingStatusAccepted, true, "accepted", apperror.KindConflict},
		{"reopen rejected", entity.BookingStatusRejected, true, "accepted", apperror.KindConflict},
		{"cancel completed", entity.BookingStatusCompleted, true, "cancelled", apperror.KindConflict},
		{"unknown status", entity.BookingStatusPending, false, "archived", apperror.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			id, _ := f.mustCreate(t, "2024-01-01", "10:00")
			f.bookings.bookings[id].Status = tt.from
			if tt.paid {
				f.bookings.bookings[id].Payment.Status = entity.PaymentStatusPaid
			}

			resp, err := f.booking.UpdateBookingStatus(context.Background(), f.owner(), id.String(),
				&request.UpdateBookingStatusRequest{Status: tt.to})
			if tt.wantErr < 0 {
				require.NoError(t, err)
				assert.Equal(t, entity.BookingStatus(tt.to), resp.Status)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, apperror.KindOf(err))
			assert.Equal(t, tt.from, f.bookings.bookings[id].Status)
		})
	}
}

func TestUpdateBookingStatus_Authorization(t *testing.T) {
	f := newFixture(t)
	id, _ := f.mustCreate(t, "2024-01-01", "10:00")
	req := &request.UpdateBookingStatusRequest{Status: "rejected"}

	_, err := f.booking.UpdateBookingStatus(context.Background(),
		utils.Actor{UserID: uuid.New(), Role: "owner"}, id.String(), req)
	assert.ErrorIs(t, err, ErrNotBookingOwner)
	assert.Equal(t, apperror.KindAuthorization, apperror.KindOf(err))

	_, err = f.booking.UpdateBookingStatus(context.Background(),
		utils.Actor{UserID: f.customerID, Role: "customer"}, id.String(), req)
	assert.ErrorIs(t, err, ErrNotBookingOwner)

	resp, err := f.booking.UpdateBookingStatus(context.Background(),
		utils.Actor{UserID: uuid.New(), Role: "admin"}, id.String(), req)
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusRejected, resp.Status)
}

func TestUpdateBookingStatus_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.booking.UpdateBookingStatus(context.Background(), f.owner(), uuid.NewString(),
		&request.UpdateBookingStatusRequest{Status: "rejected"})
	assert.ErrorIs(t, err, ErrBookingNotFound)

	_, err = f.booking.UpdateBookingStatus(context.Background(), f.owner(), "not-a-uuid",
		&request.UpdateBookingStatusRequest{Status: "rejected"})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestCheckAvailability(t *testing.T) {
	f := newFixture(t)
	f.mustCreate(t, "2024-01-01", "10:00")

	check := func(date, clock string) bool {
		resp, err := f.booking.CheckAvailability(context.Background(), &request.CheckAvailabilityRequest{
			CarwashID: f.carwash.ID.String(), Date: date, Time: clock,
		})
		require.NoError(t, err)
		return resp.Available
	}

	assert.False(t, check("2024-01-01", "10:00"))
	assert.True(t, check("2024-01-01", "10:01"))
	assert.True(t, check("2024-01-02", "10:00"))
}

func TestListings(t *testing.T) {
	f := newFixture(t)
	first, _ := f.mustCreate(t, "2024-01-01", "09:00")
	second, _ := f.mustCreate(t, "2024-01-03", "09:00")
	third, _ := f.mustCreate(t, "2024-01-02", "09:00")

	page := &request.PaginatedRequest{Page: 1, PerPage: 10}

	mine, err := f.booking.CustomerBookings(context.Background(), f.customerID, page)
	require.NoError(t, err)
	require.Len(t, mine.Data, 3)
	assert.Equal(t, []string{second.String(), third.String(), first.String()},
		[]string{mine.Data[0].ID, mine.Data[1].ID, mine.Data[2].ID})
	assert.Equal(t, "Sparkle", mine.Data[0].Carwash.Name)
	assert.Equal(t, int64(3), mine.Pagination.Total)

	owned, err := f.booking.OwnerBookings(context.Background(), f.ownerID, &request.PaginatedRequest{Page: 2, PerPage: 2})
	require.NoError(t, err)
	require.Len(t, owned.Data, 1)
	assert.Equal(t, first.String(), owned.Data[0].ID)
	assert.Equal(t, "Nino", owned.Data[0].Customer.Name)
	assert.Equal(t, "nino@example.com", owned.Data[0].Customer.Email)
	assert.Equal(t, 2, owned.Pagination.TotalPages)

	other, err := f.booking.OwnerBookings(context.Background(), uuid.New(), page)
	require.NoError(t, err)
	assert.Empty(t, other.Data)
}
