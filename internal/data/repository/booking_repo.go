package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"carwash-booking/internal/data/entity"
	"carwash-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type BookingRepository interface {
	// CreateIfSlotFree inserts the booking unless another pending or
	// accepted booking holds the same slot. It reports false when the slot
	// was taken.
	CreateIfSlotFree(ctx context.Context, booking *entity.Booking) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByIntentID(ctx context.Context, intentID string) (*entity.Booking, error)
	ExistsActiveAtSlot(ctx context.Context, carwashID uuid.UUID, at time.Time) (bool, error)
	SetPaymentIntent(ctx context.Context, id uuid.UUID, intentID string) error
	Delete(ctx context.Context, id uuid.UUID) error

	// Guarded transitions. A nil booking means the guard did not hold and
	// nothing was written.
	UpdateStatus(ctx context.Context, id uuid.UUID, to entity.BookingStatus, from []entity.BookingStatus, requirePaid bool) (*entity.Booking, error)
	MarkPaymentPaid(ctx context.Context, intentID string) (*entity.Booking, error)
	MarkPaymentFailed(ctx context.Context, intentID string) (*entity.Booking, error)

	// Listings
	FindByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]*entity.BookingView, error)
	CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error)
	FindByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*entity.BookingView, error)
	CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error)
	Stats(ctx context.Context, recent int) (*entity.BookingStats, error)
}

const bookingColumns = `b.id, b.customer_id, b.carwash_id, b.service_name, b.service_price::float8, b.service_duration,
	b.scheduled_time, b.status, b.payment_status, b.payment_intent_id, b.payment_amount::float8, b.payment_currency,
	b.created_at, b.updated_at`

type bookingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingRepository(db database.PgxIface, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

func scanBooking(row pgx.Row, extra ...any) (*entity.Booking, error) {
	var b entity.Booking
	dest := []any{
		&b.ID,
		&b.CustomerID,
		&b.CarwashID,
		&b.Service.Name,
		&b.Service.Price,
		&b.Service.Duration,
		&b.ScheduledTime,
		&b.Status,
		&b.Payment.Status,
		&b.Payment.IntentID,
		&b.Payment.Amount,
		&b.Payment.Currency,
		&b.CreatedAt,
		&b.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	b.ScheduledTime = b.ScheduledTime.UTC()
	return &b, nil
}

func (r *bookingRepository) CreateIfSlotFree(ctx context.Context, booking *entity.Booking) (bool, error) {
	query := `
		INSERT INTO bookings AS b (id, customer_id, carwash_id, service_name, service_price, service_duration,
		                           scheduled_time, status, payment_status, payment_amount, payment_currency,
		                           created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (carwash_id, scheduled_time) WHERE status IN ('pending', 'accepted') DO NOTHING
		RETURNING b.id
	`

	var id uuid.UUID
	err := r.db.QueryRow(ctx, query,
		booking.ID,
		booking.CustomerID,
		booking.CarwashID,
		booking.Service.Name,
		booking.Service.Price,
		booking.Service.Duration,
		booking.ScheduledTime,
		string(booking.Status),
		string(booking.Payment.Status),
		booking.Payment.Amount,
		booking.Payment.Currency,
		booking.CreatedAt,
		booking.UpdatedAt,
	).Scan(&id)

	if errors.Is(err, pgx.ErrNoRows) || database.IsUniqueViolation(err) {
		r.log.Info("Slot already taken",
			zap.String("carwash_id", booking.CarwashID.String()),
			zap.Time("scheduled_time", booking.ScheduledTime),
		)
		return false, nil
	}
	if err != nil {
		r.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("booking_id", booking.ID.String()),
			zap.String("carwash_id", booking.CarwashID.String()),
		)
		return false, fmt.Errorf("create booking %s: %w", booking.ID, err)
	}

	return true, nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.id = $1`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id, err)
	}

	return booking, nil
}

func (r *bookingRepository) FindByIntentID(ctx context.Context, intentID string) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.payment_intent_id = $1`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, intentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by payment intent",
			zap.Error(err),
			zap.String("payment_intent_id", intentID),
		)
		return nil, fmt.Errorf("find booking by payment intent %s: %w", intentID, err)
	}

	return booking, nil
}

func (r *bookingRepository) ExistsActiveAtSlot(ctx context.Context, carwashID uuid.UUID, at time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE carwash_id = $1 AND scheduled_time = $2 AND status IN ('pending', 'accepted')
		)
	`

	var exists bool
	if err := r.db.QueryRow(ctx, query, carwashID, at).Scan(&exists); err != nil {
		r.log.Error("Failed to check slot",
			zap.Error(err),
			zap.String("carwash_id", carwashID.String()),
			zap.Time("scheduled_time", at),
		)
		return false, fmt.Errorf("check slot %s at %s: %w", carwashID, at.Format(time.RFC3339), err)
	}

	return exists, nil
}

func (r *bookingRepository) SetPaymentIntent(ctx context.Context, id uuid.UUID, intentID string) error {
	query := `UPDATE bookings SET payment_intent_id = $2, updated_at = now() WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, intentID)
	if err != nil {
		r.log.Error("Failed to set payment intent",
			zap.Error(err),
			zap.String("booking_id", id.String()),
			zap.String("payment_intent_id", intentID),
		)
		return fmt.Errorf("set payment intent on booking %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set payment intent on booking %s: booking missing", id)
	}

	return nil
}

func (r *bookingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM bookings WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, id); err != nil {
		r.log.Error("Failed to delete booking",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return fmt.Errorf("delete booking %s: %w", id, err)
	}

	return nil
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, to entity.BookingStatus, from []entity.BookingStatus, requirePaid bool) (*entity.Booking, error) {
	query := `
		UPDATE bookings AS b
		SET status = $2, updated_at = now()
		WHERE b.id = $1
		  AND b.status = ANY($3)
		  AND (b.payment_status = 'paid' OR NOT $4)
		RETURNING ` + bookingColumns

	allowed := make([]string, len(from))
	for i, s := range from {
		allowed[i] = string(s)
	}

	booking, err := scanBooking(r.db.QueryRow(ctx, query, id, string(to), allowed, requirePaid))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to update booking status",
			zap.Error(err),
			zap.String("booking_id", id.String()),
			zap.String("status", string(to)),
		)
		return nil, fmt.Errorf("update booking %s status to %s: %w", id, to, err)
	}

	return booking, nil
}

func (r *bookingRepository) MarkPaymentPaid(ctx context.Context, intentID string) (*entity.Booking, error) {
	query := `
		UPDATE bookings AS b
		SET payment_status = 'paid', updated_at = now()
		WHERE b.payment_intent_id = $1 AND b.payment_status IN ('pending', 'failed')
		RETURNING ` + bookingColumns

	return r.markPayment(ctx, query, intentID, entity.PaymentStatusPaid)
}

func (r *bookingRepository) MarkPaymentFailed(ctx context.Context, intentID string) (*entity.Booking, error) {
	query := `
		UPDATE bookings AS b
		SET payment_status = 'failed', updated_at = now()
		WHERE b.payment_intent_id = $1 AND b.payment_status = 'pending'
		RETURNING ` + bookingColumns

	return r.markPayment(ctx, query, intentID, entity.PaymentStatusFailed)
}

func (r *bookingRepository) markPayment(ctx context.Context, query, intentID string, to entity.PaymentStatus) (*entity.Booking, error) {
	booking, err := scanBooking(r.db.QueryRow(ctx, query, intentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to update payment status",
			zap.Error(err),
			zap.String("payment_intent_id", intentID),
			zap.String("payment_status", string(to)),
		)
		return nil, fmt.Errorf("mark payment %s as %s: %w", intentID, to, err)
	}

	return booking, nil
}

func (r *bookingRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]*entity.BookingView, error) {
	query := `
		SELECT ` + bookingColumns + `, c.name
		FROM bookings b
		JOIN carwashes c ON c.id = b.carwash_id
		WHERE b.customer_id = $1
		ORDER BY b.scheduled_time DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, customerID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find bookings by customer",
			zap.Error(err),
			zap.String("customer_id", customerID.String()),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find bookings by customer %s: %w", customerID, err)
	}
	defer rows.Close()

	var views []*entity.BookingView
	for rows.Next() {
		var carwashName string
		booking, err := scanBooking(rows, &carwashName)
		if err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		views = append(views, &entity.BookingView{Booking: *booking, CarwashName: carwashName})
	}

	return views, rows.Err()
}

func (r *bookingRepository) CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM bookings WHERE customer_id = $1`

	var count int64
	if err := r.db.QueryRow(ctx, query, customerID).Scan(&count); err != nil {
		r.log.Error("Failed to count bookings by customer",
			zap.Error(err),
			zap.String("customer_id", customerID.String()),
		)
		return 0, fmt.Errorf("count bookings by customer %s: %w", customerID, err)
	}

	return count, nil
}

func (r *bookingRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*entity.BookingView, error) {
	query := `
		SELECT ` + bookingColumns + `, c.name
		FROM bookings b
		JOIN carwashes c ON c.id = b.carwash_id
		WHERE c.owner_id = $1
		ORDER BY b.scheduled_time DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, ownerID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find bookings by owner",
			zap.Error(err),
			zap.String("owner_id", ownerID.String()),
		)
		return nil, fmt.Errorf("find bookings by owner %s: %w", ownerID, err)
	}
	defer rows.Close()

	var views []*entity.BookingView
	for rows.Next() {
		var carwashName string
		booking, err := scanBooking(rows, &carwashName)
		if err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		views = append(views, &entity.BookingView{Booking: *booking, CarwashName: carwashName})
	}

	return views, rows.Err()
}

func (r *bookingRepository) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM bookings b
		JOIN carwashes c ON c.id = b.carwash_id
		WHERE c.owner_id = $1
	`

	var count int64
	if err := r.db.QueryRow(ctx, query, ownerID).Scan(&count); err != nil {
		r.log.Error("Failed to count bookings by owner",
			zap.Error(err),
			zap.String("owner_id", ownerID.String()),
		)
		return 0, fmt.Errorf("count bookings by owner %s: %w", ownerID, err)
	}

	return count, nil
}

func (r *bookingRepository) Stats(ctx context.Context, recent int) (*entity.BookingStats, error) {
	stats := &entity.BookingStats{
		ByStatus:        make(map[entity.BookingStatus]int64),
		ByPaymentStatus: make(map[entity.PaymentStatus]int64),
	}

	if err := r.countGrouped(ctx, "status", func(key string, n int64) {
		stats.ByStatus[entity.BookingStatus(key)] = n
		stats.Total += n
	}); err != nil {
		return nil, err
	}

	if err := r.countGrouped(ctx, "payment_status", func(key string, n int64) {
		stats.ByPaymentStatus[entity.PaymentStatus(key)] = n
	}); err != nil {
		return nil, err
	}

	revenueQuery := `SELECT COALESCE(SUM(service_price), 0)::float8 FROM bookings WHERE status = 'completed'`
	if err := r.db.QueryRow(ctx, revenueQuery).Scan(&stats.Revenue); err != nil {
		r.log.Error("Failed to sum revenue", zap.Error(err))
		return nil, fmt.Errorf("sum revenue: %w", err)
	}

	recentQuery := `
		SELECT ` + bookingColumns + `, c.name, u.name, u.email
		FROM bookings b
		JOIN carwashes c ON c.id = b.carwash_id
		JOIN users u ON u.id = b.customer_id
		ORDER BY b.created_at DESC
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, recentQuery, recent)
	if err != nil {
		r.log.Error("Failed to find recent bookings", zap.Error(err))
		return nil, fmt.Errorf("find recent bookings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var view entity.BookingView
		booking, err := scanBooking(rows, &view.CarwashName, &view.CustomerName, &view.CustomerEmail)
		if err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		view.Booking = *booking
		stats.Recent = append(stats.Recent, &view)
	}

	return stats, rows.Err()
}

// countGrouped runs a COUNT(*) grouped by a fixed column name.
func (r *bookingRepository) countGrouped(ctx context.Context, column string, add func(key string, n int64)) error {
	query := fmt.Sprintf(`SELECT %[1]s, COUNT(*) FROM bookings GROUP BY %[1]s`, column)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.log.Error("Failed to count bookings", zap.Error(err), zap.String("column", column))
		return fmt.Errorf("count bookings by %s: %w", column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key string
			n   int64
		)
		if err := rows.Scan(&key, &n); err != nil {
			return fmt.Errorf("scan %s count: %w", column, err)
		}
		add(key, n)
	}

	return rows.Err()
}
