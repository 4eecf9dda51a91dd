package utils

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Email    EmailConfig
	Payment  PaymentConfig
	Broker   BrokerConfig
	Worker   WorkerConfig
}

type AppConfig struct {
	Name            string
	Port            string
	Debug           bool
	LogPath         string
	ShutdownTimeout time.Duration
	CORSOrigins     []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
}

type JWTConfig struct {
	Secret string
}

type EmailConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	From         string
	DashboardURL string
}

// Enabled reports whether an SMTP relay is configured.
func (c EmailConfig) Enabled() bool {
	return c.Host != "" && c.From != ""
}

type PaymentConfig struct {
	StripeSecretKey     string
	StripeWebhookSecret string
	Currency            string
	TestMode            bool
}

type BrokerConfig struct {
	URL      string
	Exchange string
}

type WorkerConfig struct {
	Concurrency int
	TaskTimeout time.Duration
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("APP_NAME", "carwash-booking")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("SHUTDOWN_TIMEOUT_SECONDS", 15)
	viper.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("PAYMENT_CURRENCY", "gel")
	viper.SetDefault("PAYMENT_TEST_MODE", false)
	viper.SetDefault("AMQP_EXCHANGE", "carwash.events")
	viper.SetDefault("WORKER_CONCURRENCY", 8)
	viper.SetDefault("WORKER_TASK_TIMEOUT_SECONDS", 30)

	// .env is optional, the environment always wins
	if err := viper.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:            viper.GetString("APP_NAME"),
			Port:            viper.GetString("PORT"),
			Debug:           viper.GetBool("DEBUG"),
			LogPath:         viper.GetString("LOG_PATH"),
			ShutdownTimeout: time.Duration(viper.GetInt("SHUTDOWN_TIMEOUT_SECONDS")) * time.Second,
			CORSOrigins:     splitList(viper.GetString("CORS_ORIGINS")),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
		},
		JWT: JWTConfig{
			Secret: viper.GetString("JWT_SECRET"),
		},
		Email: EmailConfig{
			Host:         viper.GetString("SMTP_HOST"),
			Port:         viper.GetInt("SMTP_PORT"),
			User:         viper.GetString("SMTP_USER"),
			Password:     viper.GetString("SMTP_PASS"),
			From:         viper.GetString("EMAIL_FROM"),
			DashboardURL: viper.GetString("DASHBOARD_URL"),
		},
		Payment: PaymentConfig{
			StripeSecretKey:     viper.GetString("STRIPE_SECRET_KEY"),
			StripeWebhookSecret: viper.GetString("STRIPE_WEBHOOK_SECRET"),
			Currency:            strings.ToLower(viper.GetString("PAYMENT_CURRENCY")),
			TestMode:            viper.GetBool("PAYMENT_TEST_MODE"),
		},
		Broker: BrokerConfig{
			URL:      viper.GetString("AMQP_URL"),
			Exchange: viper.GetString("AMQP_EXCHANGE"),
		},
		Worker: WorkerConfig{
			Concurrency: viper.GetInt("WORKER_CONCURRENCY"),
			TaskTimeout: time.Duration(viper.GetInt("WORKER_TASK_TIMEOUT_SECONDS")) * time.Second,
		},
	}

	if config.JWT.Secret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if config.Payment.StripeWebhookSecret == "" && !config.Payment.TestMode {
		return nil, errors.New("STRIPE_WEBHOOK_SECRET is required outside payment test mode")
	}

	return config, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
