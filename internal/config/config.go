package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/MarkoPoloResearchLab/savings/pkg/ledger"
)

const (
	DriverGorm = "gorm"
	DriverPgx  = "pgx"

	defaultListenAddr        = ":8080"
	defaultDatabaseURL       = "sqlite:///tmp/savings.db"
	defaultAllowedOrigin     = "http://localhost:3000"
	defaultPaystackBaseURL   = "https://api.paystack.co"
	defaultGatewayTimeout    = 10 * time.Second
	defaultWebhookWorkers    = 4
	defaultWebhookQueueSize  = 256
	defaultWebhookJobTimeout = 30 * time.Second
	defaultLowStockPercent   = 10
	defaultAMQPExchange      = "savings.events"
	defaultShutdownTimeout   = 5 * time.Second
)

// Config aggregates runtime settings for savingsd.
type Config struct {
	ListenAddr          string
	DatabaseURL         string
	StoreDriver         string
	JWTSecret           string
	JWTIssuer           string
	PaystackSecretKey   string
	PaystackBaseURL     string
	PaystackCallbackURL string
	GatewayTimeout      time.Duration
	TransferSettlement  string
	AllowedOrigins      []string
	WebhookWorkers      int
	WebhookQueueSize    int
	WebhookJobTimeout   time.Duration
	LowStockPercent     int64
	AMQPURL             string
	AMQPExchange        string
	MetricsEnabled      bool
	ShutdownTimeout     time.Duration
}

// Validate fills defaults and rejects values the service cannot start with.
func (cfg *Config) Validate() error {
	cfg.ListenAddr = defaultIfEmpty(cfg.ListenAddr, defaultListenAddr)
	cfg.DatabaseURL = defaultIfEmpty(cfg.DatabaseURL, defaultDatabaseURL)
	cfg.StoreDriver = strings.ToLower(defaultIfEmpty(cfg.StoreDriver, DriverGorm))
	cfg.JWTIssuer = strings.TrimSpace(cfg.JWTIssuer)
	cfg.PaystackBaseURL = defaultIfEmpty(cfg.PaystackBaseURL, defaultPaystackBaseURL)
	cfg.AMQPExchange = defaultIfEmpty(cfg.AMQPExchange, defaultAMQPExchange)
	if cfg.GatewayTimeout <= 0 {
		cfg.GatewayTimeout = defaultGatewayTimeout
	}
	if cfg.WebhookWorkers <= 0 {
		cfg.WebhookWorkers = defaultWebhookWorkers
	}
	if cfg.WebhookQueueSize <= 0 {
		cfg.WebhookQueueSize = defaultWebhookQueueSize
	}
	if cfg.WebhookJobTimeout <= 0 {
		cfg.WebhookJobTimeout = defaultWebhookJobTimeout
	}
	if cfg.LowStockPercent == 0 {
		cfg.LowStockPercent = defaultLowStockPercent
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{defaultAllowedOrigin}
	}

	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return fmt.Errorf("jwt secret is required")
	}
	if strings.TrimSpace(cfg.PaystackSecretKey) == "" {
		return fmt.Errorf("paystack secret key is required")
	}
	switch cfg.StoreDriver {
	case DriverGorm:
	case DriverPgx:
		if !IsPostgresURL(cfg.DatabaseURL) {
			return fmt.Errorf("store driver %q requires a postgres database url", DriverPgx)
		}
	default:
		return fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
	mode, err := ledger.ParseTransferSettlement(cfg.TransferSettlement)
	if err != nil {
		return err
	}
	cfg.TransferSettlement = string(mode)
	if cfg.LowStockPercent < 0 || cfg.LowStockPercent > 100 {
		return fmt.Errorf("low stock percent must be between 0 and 100, got %d", cfg.LowStockPercent)
	}
	return nil
}

// IsPostgresURL reports whether dsn names a postgres database.
func IsPostgresURL(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

func defaultIfEmpty(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return strings.TrimSpace(value)
}

// ParseAllowedOrigins splits comma-delimited origins into a slice.
func ParseAllowedOrigins(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	normalized := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			normalized = append(normalized, trimmed)
		}
	}
	return normalized
}
