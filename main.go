package main

import (
	"context"
	"log"

	"carwash-booking/cmd"
	"carwash-booking/internal/data/repository"
	"carwash-booking/internal/wire"
	"carwash-booking/pkg/database"
	"carwash-booking/pkg/notify"
	"carwash-booking/pkg/payment"
	"carwash-booking/pkg/utils"
	"carwash-booking/pkg/worker"

	"go.uber.org/zap"
)

func main() {
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := utils.InitLogger(config.App.Name, config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
		zap.Bool("payment_test_mode", config.Payment.TestMode),
	)

	ctx := context.Background()

	db, err := database.InitDB(ctx, config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		logger.Fatal("Failed to apply schema", zap.Error(err))
	}
	logger.Info("Database connected successfully")

	notifiers := notify.Multi{notify.NewLogNotifier(logger)}
	if config.Email.Enabled() {
		notifiers = append(notifiers, notify.NewEmailNotifier(
			config.Email.Host, config.Email.Port, config.Email.User, config.Email.Password,
			config.Email.From, config.Email.DashboardURL, logger,
		))
	}
	if config.Broker.URL != "" {
		publisher, err := notify.NewPublisher(config.Broker.URL, config.Broker.Exchange)
		if err != nil {
			logger.Fatal("Failed to connect to broker", zap.Error(err))
		}
		defer func() { _ = publisher.Close() }()
		notifiers = append(notifiers, publisher)
	}

	if config.Payment.StripeSecretKey == "" {
		logger.Warn("STRIPE_SECRET_KEY is empty, payment intents will fail")
	}
	gateway := payment.NewStripeGateway(config.Payment.StripeSecretKey, config.Payment.StripeWebhookSecret, nil, logger)

	dispatcher := worker.NewDispatcher(config.Worker.Concurrency, config.Worker.TaskTimeout, logger)

	app := wire.Wiring(wire.Deps{
		DB:       db,
		Repo:     repository.NewRepository(db, logger),
		Gateway:  gateway,
		Notifier: notifiers,
		Runner:   dispatcher,
	}, config, logger)

	err = cmd.APIServer(ctx, app.Router, config.App.Port, config.App.ShutdownTimeout, logger, dispatcher.Shutdown)
	if err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
		return
	}
	logger.Info("Server stopped")
}
