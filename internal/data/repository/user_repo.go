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

// UserRepository is the read side of the user directory, used to enrich
// listings for display.
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*entity.User, error)
}

type userRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewUserRepository(db database.PgxIface, log *zap.Logger) UserRepository {
	return &userRepository{
		db:  db,
		log: log.With(zap.String("repository", "user")),
	}
}

func (ur *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	query := `SELECT id, name, email, role, created_at FROM users WHERE id = $1`

	var user entity.User
	err := ur.db.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Role,
		&user.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		ur.log.Error("Failed to find user by ID",
			zap.Error(err),
			zap.String("user_id", id.String()),
		)
		return nil, fmt.Errorf("find user by ID %s: %w", id, err)
	}

	return &user, nil
}

// FindByIDs returns the users that exist among ids, keyed by id.
func (ur *userRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*entity.User, error) {
	users := make(map[uuid.UUID]*entity.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	query := `SELECT id, name, email, role, created_at FROM users WHERE id = ANY($1)`

	rows, err := ur.db.Query(ctx, query, ids)
	if err != nil {
		ur.log.Error("Failed to find users by IDs", zap.Error(err), zap.Int("count", len(ids)))
		return nil, fmt.Errorf("find users by IDs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var user entity.User
		if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.Role, &user.CreatedAt); err != nil {
			ur.log.Error("Failed to scan user row", zap.Error(err))
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		users[user.ID] = &user
	}

	return users, rows.Err()
}
