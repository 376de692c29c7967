package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

// Config is the explicit runtime configuration, injected at startup.
type Config struct {
	Port           string        `envconfig:"PORT" default:"4000"`
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"info"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"10s"`

	MongoURI      string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDatabase string `envconfig:"MONGO_DATABASE" default:"ecommerce"`
	StoreDriver   string `envconfig:"STORE_DRIVER" default:"mongo"`

	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`
	PublicURL string `envconfig:"PUBLIC_URL" default:"http://localhost:4000"`

	SettlementCurrency         string `envconfig:"SETTLEMENT_CURRENCY" default:"inr"`
	DeliveryChargeMinorUnits   int64  `envconfig:"DELIVERY_CHARGE_MINOR_UNITS" default:"1000"`
	PaymentProvider            string `envconfig:"PAYMENT_PROVIDER" default:"stripe"`
	GatewayAPIKey              string `envconfig:"GATEWAY_API_KEY"`
	GatewayAPISecret           string `envconfig:"GATEWAY_API_SECRET"`
	DiscardUnpaidGatewayOrders bool   `envconfig:"DISCARD_UNPAID_GATEWAY_ORDERS" default:"true"`
	StrictStatusTransitions    bool   `envconfig:"STRICT_STATUS_TRANSITIONS" default:"false"`

	EmailProvider    string `envconfig:"EMAIL_PROVIDER" default:"postmark"`
	EmailSender      string `envconfig:"EMAIL_SENDER"`
	PostmarkAPIToken string `envconfig:"POSTMARK_API_TOKEN"`
	SendGridAPIKey   string `envconfig:"SENDGRID_API_KEY"`

	NotifyWorkers     int           `envconfig:"NOTIFY_WORKERS" default:"2"`
	NotifyQueueSize   int           `envconfig:"NOTIFY_QUEUE_SIZE" default:"256"`
	NotifyMaxAttempts int           `envconfig:"NOTIFY_MAX_ATTEMPTS" default:"5"`
	NotifyBaseBackoff time.Duration `envconfig:"NOTIFY_BASE_BACKOFF" default:"2s"`
}

// Load reads an optional .env file and then the process environment.
func Load(logger *logrus.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if os.IsNotExist(err) {
			logger.Info("No .env file found. Proceeding with environment variables.")
		} else {
			logger.Warnf("Error loading .env file (but continuing): %v", err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks option combinations envconfig cannot express.
func (c *Config) Validate() error {
	c.StoreDriver = strings.ToLower(c.StoreDriver)
	c.PaymentProvider = strings.ToLower(c.PaymentProvider)
	c.EmailProvider = strings.ToLower(c.EmailProvider)
	c.SettlementCurrency = strings.ToLower(c.SettlementCurrency)

	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is not set")
	}
	switch c.StoreDriver {
	case "mongo", "memory":
	default:
		return fmt.Errorf("STORE_DRIVER must be mongo or memory, got %q", c.StoreDriver)
	}
	switch c.PaymentProvider {
	case "stripe":
	case "razorpay":
		if c.GatewayAPISecret == "" {
			return fmt.Errorf("GATEWAY_API_SECRET is required for razorpay")
		}
	default:
		return fmt.Errorf("PAYMENT_PROVIDER must be stripe or razorpay, got %q", c.PaymentProvider)
	}
	switch c.EmailProvider {
	case "postmark":
		if c.PostmarkAPIToken == "" {
			return fmt.Errorf("POSTMARK_API_TOKEN is not set")
		}
	case "sendgrid":
		if c.SendGridAPIKey == "" {
			return fmt.Errorf("SENDGRID_API_KEY is not set")
		}
	case "log":
	default:
		return fmt.Errorf("EMAIL_PROVIDER must be postmark, sendgrid or log, got %q", c.EmailProvider)
	}
	if c.DeliveryChargeMinorUnits < 0 {
		return fmt.Errorf("DELIVERY_CHARGE_MINOR_UNITS cannot be negative")
	}
	if c.NotifyWorkers < 1 || c.NotifyQueueSize < 1 || c.NotifyMaxAttempts < 1 {
		return fmt.Errorf("notification workers, queue size and attempts must be positive")
	}
	return nil
}

// NewLogger builds the JSON logger used across the service.
func NewLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.JSONFormatter{})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
		logger.Warnf("Invalid LOG_LEVEL '%s', using default: %s", level, lvl.String())
	}
	logger.SetLevel(lvl)
	return logger
}
