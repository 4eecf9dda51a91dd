package adaptor

import (
	"context"
	"net/http"
	"time"

	"carwash-booking/internal/dto/response"
	"carwash-booking/internal/usecase"
	"carwash-booking/pkg/database"
	"carwash-booking/pkg/utils"

	"go.uber.org/zap"
)

type AdminHandler struct {
	service usecase.StatsService
	log     *zap.Logger
}

func NewAdminHandler(service usecase.StatsService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{
		service: service,
		log:     log.With(zap.String("handler", "admin")),
	}
}

// Statistics handles GET /api/admin/statistics (admin only)
func (h *AdminHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Statistics(r.Context())
	if err != nil {
		writeError(w, h.log, err, "statistics")
		return
	}

	utils.ResponseSuccess(w, "success", stats)
}

type HealthHandler struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewHealthHandler(db database.PgxIface, log *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:  db,
		log: log.With(zap.String("handler", "health")),
	}
}

// Check handles GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.log.Warn("Database ping failed", zap.Error(err))
		utils.ResponseJSON(w, http.StatusServiceUnavailable, false, "unhealthy",
			response.HealthResponse{Status: "degraded", Database: "unreachable"}, nil)
		return
	}

	utils.ResponseSuccess(w, "healthy", response.HealthResponse{Status: "ok", Database: "ok"})
}
