package entity

import (
	"github.com/google/uuid"
)

type Carwash struct {
	BaseSimple
	OwnerID  uuid.UUID         `db:"owner_id"`
	Name     string            `db:"name"`
	Email    string            `db:"email"`
	Address  string            `db:"address"`
	Services []*CarwashService `db:"-"`
}

type CarwashService struct {
	ID        uuid.UUID `db:"id"`
	CarwashID uuid.UUID `db:"carwash_id"`
	Name      string    `db:"name"`
	Price     float64   `db:"price"`
	Duration  int       `db:"duration"` // minutes
}

// FindService returns the offered service with id, or nil.
func (c *Carwash) FindService(id uuid.UUID) *CarwashService {
	for _, s := range c.Services {
		if s.ID == id {
			return s
		}
	}
	return nil
}
