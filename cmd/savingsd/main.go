package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/MarkoPoloResearchLab/savings/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

const (
	envPrefix   = "SAVINGS"
	dotEnvFile  = ".env"
	serviceName = "savingsd"

	flagListenAddr          = "listen-addr"
	flagDatabaseURL         = "database-url"
	flagStoreDriver         = "store-driver"
	flagJWTSecret           = "jwt-secret"
	flagJWTIssuer           = "jwt-issuer"
	flagPaystackSecretKey   = "paystack-secret-key"
	flagPaystackBaseURL     = "paystack-base-url"
	flagPaystackCallbackURL = "paystack-callback-url"
	flagGatewayTimeout      = "gateway-timeout"
	flagTransferSettlement  = "transfer-settlement"
	flagAllowedOrigins      = "allowed-origins"
	flagWebhookWorkers      = "webhook-workers"
	flagWebhookQueueSize    = "webhook-queue-size"
	flagLowStockPercent     = "low-stock-percent"
	flagAMQPURL             = "amqp-url"
	flagAMQPExchange        = "amqp-exchange"
	flagMetricsEnabled      = "metrics-enabled"

	flagUserName  = "name"
	flagUserEmail = "email"
	flagUserPhone = "phone"
	flagUserRole  = "role"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := &config.Config{}
	cmd := &cobra.Command{
		Use:           serviceName,
		Short:         "Savings ledger HTTP service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd, cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg)
		},
	}

	flags := cmd.PersistentFlags()
	flags.String(flagListenAddr, ":8080", "HTTP listen address")
	flags.String(flagDatabaseURL, "sqlite:///tmp/savings.db", "PostgreSQL URL or SQLite path")
	flags.String(flagStoreDriver, config.DriverGorm, "store implementation: gorm or pgx (pgx requires PostgreSQL)")
	flags.String(flagJWTSecret, "", "HS256 secret used to verify bearer tokens")
	flags.String(flagJWTIssuer, "", "required token issuer, empty to accept any")
	flags.String(flagPaystackSecretKey, "", "Paystack secret key")
	flags.String(flagPaystackBaseURL, "https://api.paystack.co", "Paystack API base URL")
	flags.String(flagPaystackCallbackURL, "", "URL Paystack redirects to after checkout")
	flags.Duration(flagGatewayTimeout, 10*time.Second, "timeout for each gateway call")
	flags.String(flagTransferSettlement, "manual", "transfer deposit settlement: manual or immediate")
	flags.String(flagAllowedOrigins, "", "comma-separated CORS origins")
	flags.Int(flagWebhookWorkers, 4, "webhook settlement workers")
	flags.Int(flagWebhookQueueSize, 256, "webhook settlement queue capacity")
	flags.Int64(flagLowStockPercent, 10, "remaining-capacity percent that flags low stock")
	flags.String(flagAMQPURL, "", "AMQP broker URL for balance events, empty to disable")
	flags.String(flagAMQPExchange, "savings.events", "AMQP topic exchange for balance events")
	flags.Bool(flagMetricsEnabled, true, "expose Prometheus metrics on /metrics")

	cmd.AddCommand(newMigrateCommand(cfg), newAddUserCommand(cfg))
	return cmd
}

func newMigrateCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context(), cfg)
		},
	}
}

func newAddUserCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "adduser",
		Short: "Create an account holder",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString(flagUserName)
			email, _ := cmd.Flags().GetString(flagUserEmail)
			phone, _ := cmd.Flags().GetString(flagUserPhone)
			role, _ := cmd.Flags().GetString(flagUserRole)
			user, err := runAddUser(cmd.Context(), cfg, name, email, phone, role)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %d (%s, %s)\n", user.ID, user.Email, user.Role)
			return nil
		},
	}
	cmd.Flags().String(flagUserName, "", "display name")
	cmd.Flags().String(flagUserEmail, "", "email address")
	cmd.Flags().String(flagUserPhone, "", "phone number")
	cmd.Flags().String(flagUserRole, "Customer", "account type: Customer or Owner")
	return cmd
}

func loadConfig(cmd *cobra.Command, cfg *config.Config) error {
	if err := gotenv.Load(dotEnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load %s: %w", dotEnvFile, err)
	}
	settings := viper.New()
	settings.SetEnvPrefix(envPrefix)
	settings.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	settings.AutomaticEnv()
	if err := settings.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	*cfg = config.Config{
		ListenAddr:          settings.GetString(flagListenAddr),
		DatabaseURL:         settings.GetString(flagDatabaseURL),
		StoreDriver:         settings.GetString(flagStoreDriver),
		JWTSecret:           settings.GetString(flagJWTSecret),
		JWTIssuer:           settings.GetString(flagJWTIssuer),
		PaystackSecretKey:   settings.GetString(flagPaystackSecretKey),
		PaystackBaseURL:     settings.GetString(flagPaystackBaseURL),
		PaystackCallbackURL: settings.GetString(flagPaystackCallbackURL),
		GatewayTimeout:      settings.GetDuration(flagGatewayTimeout),
		TransferSettlement:  settings.GetString(flagTransferSettlement),
		AllowedOrigins:      config.ParseAllowedOrigins(settings.GetString(flagAllowedOrigins)),
		WebhookWorkers:      settings.GetInt(flagWebhookWorkers),
		WebhookQueueSize:    settings.GetInt(flagWebhookQueueSize),
		LowStockPercent:     settings.GetInt64(flagLowStockPercent),
		AMQPURL:             settings.GetString(flagAMQPURL),
		AMQPExchange:        settings.GetString(flagAMQPExchange),
		MetricsEnabled:      settings.GetBool(flagMetricsEnabled),
	}
	if cmd.Name() == serviceName {
		return cfg.Validate()
	}
	return validateForMaintenance(cfg)
}

// validateForMaintenance applies defaults but skips the secrets only serve needs.
func validateForMaintenance(cfg *config.Config) error {
	jwtSecret, paystackKey := cfg.JWTSecret, cfg.PaystackSecretKey
	if jwtSecret == "" {
		cfg.JWTSecret = "unused"
	}
	if paystackKey == "" {
		cfg.PaystackSecretKey = "unused"
	}
	err := cfg.Validate()
	cfg.JWTSecret, cfg.PaystackSecretKey = jwtSecret, paystackKey
	return err
}
