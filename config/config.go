package config

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/linesmerrill/police-case-api/logging"
)

// Config holds the project config values
type Config struct {
	URL          string
	DatabaseName string
	BaseURL      string
	Port         string
	Env          string
	// Store selects the workflow store, "mongo" or "memory"
	Store string

	JWTSecret           string
	ServiceUser         string
	ServicePasswordHash string

	StripeSecretKey     string
	StripeWebhookSecret string
	PaymentCurrency     string

	SendGridAPIKey string
	MailFrom       string
	NotifyEmails   []string

	KafkaBrokers []string
	KafkaTopic   string

	SchedulerEnabled bool
}

// New sets up all config related services
func New() *Config {
	env := getenv("ENV", "production")

	// setup zap logger and replace default logger
	logger, err := setLogger(env)
	if err != nil {
		logger = zap.NewExample()
	}
	_ = zap.ReplaceGlobals(logger)

	return &Config{
		URL:                 os.Getenv("DB_URI"),
		DatabaseName:        getenv("DB_NAME", "police_case"),
		BaseURL:             os.Getenv("BASE_URL"),
		Port:                getenv("PORT", "8080"),
		Env:                 env,
		Store:               getenv("STORE", "mongo"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		ServiceUser:         os.Getenv("SERVICE_USER"),
		ServicePasswordHash: os.Getenv("SERVICE_PASSWORD_HASH"),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		PaymentCurrency:     getenv("PAYMENT_CURRENCY", "usd"),
		SendGridAPIKey:      os.Getenv("SENDGRID_API_KEY"),
		MailFrom:            getenv("MAIL_FROM", "noreply@police-case.local"),
		NotifyEmails:        splitList(os.Getenv("NOTIFY_EMAILS")),
		KafkaBrokers:        splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:          getenv("KAFKA_TOPIC", "police-case-events"),
		SchedulerEnabled:    getbool("SCHEDULER_ENABLED", true),
	}
}

func setLogger(env string) (*zap.Logger, error) {
	return logging.New(env)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getbool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().With(zap.Error(err)).Error(message)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatusCode)
	w.Write([]byte(fmt.Sprintf(`{"response": "%s, %v"}`, message, err)))
}
