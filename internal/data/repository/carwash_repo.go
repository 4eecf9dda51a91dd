package repository

import (
	"context"
	"errors"
	"fmt"

	"carwash-booking/internal/data/entity"
	"carwash-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// CarwashRepository is the read side of the carwash catalog.
type CarwashRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Carwash, error)
	FindService(ctx context.Context, carwashID, serviceID uuid.UUID) (*entity.CarwashService, error)
}

type carwashRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewCarwashRepository(db database.PgxIface, log *zap.Logger) CarwashRepository {
	return &carwashRepository{
		db:  db,
		log: log.With(zap.String("repository", "carwash")),
	}
}

// FindByID loads the carwash together with its offered services.
func (r *carwashRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Carwash, error) {
	query := `
		SELECT id, owner_id, name, email, address, created_at
		FROM carwashes
		WHERE id = $1
	`

	var carwash entity.Carwash
	err := r.db.QueryRow(ctx, query, id).Scan(
		&carwash.ID,
		&carwash.OwnerID,
		&carwash.Name,
		&carwash.Email,
		&carwash.Address,
		&carwash.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find carwash by ID",
			zap.Error(err),
			zap.String("carwash_id", id.String()),
		)
		return nil, fmt.Errorf("find carwash by ID %s: %w", id, err)
	}

	servicesQuery := `
		SELECT id, carwash_id, name, price::float8, duration
		FROM carwash_services
		WHERE carwash_id = $1
		ORDER BY name
	`

	rows, err := r.db.Query(ctx, servicesQuery, id)
	if err != nil {
		r.log.Error("Failed to find carwash services",
			zap.Error(err),
			zap.String("carwash_id", id.String()),
		)
		return nil, fmt.Errorf("find services of carwash %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var s entity.CarwashService
		if err := rows.Scan(&s.ID, &s.CarwashID, &s.Name, &s.Price, &s.Duration); err != nil {
			r.log.Error("Failed to scan carwash service row", zap.Error(err))
			return nil, fmt.Errorf("scan carwash service row: %w", err)
		}
		carwash.Services = append(carwash.Services, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate services of carwash %s: %w", id, err)
	}

	return &carwash, nil
}

func (r *carwashRepository) FindService(ctx context.Context, carwashID, serviceID uuid.UUID) (*entity.CarwashService, error) {
	query := `
		SELECT id, carwash_id, name, price::float8, duration
		FROM carwash_services
		WHERE carwash_id = $1 AND id = $2
	`

	var s entity.CarwashService
	err := r.db.QueryRow(ctx, query, carwashID, serviceID).Scan(&s.ID, &s.CarwashID, &s.Name, &s.Price, &s.Duration)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find carwash service",
			zap.Error(err),
			zap.String("carwash_id", carwashID.String()),
			zap.String("service_id", serviceID.String()),
		)
		return nil, fmt.Errorf("find service %s of carwash %s: %w", serviceID, carwashID, err)
	}

	return &s, nil
}
