package wire

import (
	"carwash-booking/internal/adaptor"
	"carwash-booking/internal/data/repository"
	"carwash-booking/internal/usecase"
	"carwash-booking/pkg/database"
	"carwash-booking/pkg/middleware"
	"carwash-booking/pkg/notify"
	"carwash-booking/pkg/payment"
	"carwash-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Deps are the process-wide collaborators built in main.
type Deps struct {
	DB       database.PgxIface
	Repo     *repository.Repository
	Gateway  payment.Gateway
	Notifier notify.Notifier
	Runner   usecase.TaskRunner
}

type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

// Wiring builds services, handlers and routes from deps.
func Wiring(deps Deps, config *utils.Config, logger *zap.Logger) *App {
	service := usecase.NewService(deps.Repo, deps.Gateway, deps.Notifier, deps.Runner, config, logger)
	handler := adaptor.NewHandler(service, deps.DB, logger)

	return &App{
		Router:  setupRouter(handler, config, logger),
		Service: service,
	}
}

func setupRouter(handler *adaptor.Handler, config *utils.Config, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS(config.App.CORSOrigins))

	wireBooking(r, handler.Booking, handler.Payment, config, logger)
	wirePayment(r, handler.Payment, config, logger)
	wireAdmin(r, handler.Admin, config, logger)

	r.Get("/health", handler.Health.Check)

	return r
}
