package wire

import (
	"carwash-booking/internal/adaptor"
	"carwash-booking/pkg/middleware"
	"carwash-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireAdmin(
	r chi.Router,
	adminHandler *adaptor.AdminHandler,
	config *utils.Config,
	log *zap.Logger,
) {
	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Authenticate(config.JWT.Secret, log))
		r.Use(middleware.RequireRole(log, "admin"))

		r.Get("/statistics", adminHandler.Statistics)
	})
}
