package main

import (
	"context"
	"fmt"
	"time"

	"github.com/MarkoPoloResearchLab/savings/internal/config"
	"github.com/MarkoPoloResearchLab/savings/internal/events"
	"github.com/MarkoPoloResearchLab/savings/internal/httpapi"
	"github.com/MarkoPoloResearchLab/savings/internal/observability"
	"github.com/MarkoPoloResearchLab/savings/internal/paystack"
	"github.com/MarkoPoloResearchLab/savings/internal/webhook"
	"github.com/MarkoPoloResearchLab/savings/pkg/ledger"
	"go.uber.org/zap"
)

func runServer(ctx context.Context, cfg *config.Config) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	gateway, err := paystack.NewClient(paystack.Config{
		SecretKey:   cfg.PaystackSecretKey,
		BaseURL:     cfg.PaystackBaseURL,
		CallbackURL: cfg.PaystackCallbackURL,
	})
	if err != nil {
		return fmt.Errorf("paystack client: %w", err)
	}

	operationLoggers := ledger.MultiOperationLogger{observability.NewZapOperationLogger(logger)}
	var (
		metrics         *observability.Metrics
		httpMetrics     httpapi.Metrics
		webhookObserver webhook.Observer
	)
	if cfg.MetricsEnabled {
		metrics = observability.NewMetrics()
		operationLoggers = append(operationLoggers, metrics)
		httpMetrics = metrics
		webhookObserver = metrics
	}
	if cfg.AMQPURL != "" {
		publisher, err := events.Dial(cfg.AMQPURL, cfg.AMQPExchange, logger)
		if err != nil {
			return fmt.Errorf("events publisher: %w", err)
		}
		defer func() {
			if closeErr := publisher.Close(); closeErr != nil {
				logger.Warn("events publisher close", zap.Error(closeErr))
			}
		}()
		operationLoggers = append(operationLoggers, publisher)
	}

	transferSettlement, err := ledger.ParseTransferSettlement(cfg.TransferSettlement)
	if err != nil {
		return err
	}
	clock := func() int64 { return time.Now().UTC().Unix() }
	service, err := ledger.NewService(store, gateway, clock,
		ledger.WithOperationLogger(operationLoggers),
		ledger.WithGatewayTimeout(cfg.GatewayTimeout),
		ledger.WithTransferSettlement(transferSettlement),
		ledger.WithLowStockPercent(cfg.LowStockPercent),
	)
	if err != nil {
		return fmt.Errorf("ledger service init: %w", err)
	}

	dispatcher, err := webhook.NewDispatcher(service, webhook.DispatcherConfig{
		Workers:    cfg.WebhookWorkers,
		QueueSize:  cfg.WebhookQueueSize,
		JobTimeout: cfg.WebhookJobTimeout,
	}, logger, webhookObserver)
	if err != nil {
		return fmt.Errorf("webhook dispatcher: %w", err)
	}
	if err := dispatcher.Start(ctx); err != nil {
		return err
	}
	defer dispatcher.Stop()
	receiver := webhook.NewReceiver(cfg.PaystackSecretKey, dispatcher, logger, webhookObserver)

	router, err := httpapi.NewRouter(httpapi.Config{
		JWTSecret:      cfg.JWTSecret,
		JWTIssuer:      cfg.JWTIssuer,
		AllowedOrigins: cfg.AllowedOrigins,
	}, httpapi.Dependencies{
		Ledger:  service,
		Webhook: receiver.Handle,
		Metrics: httpMetrics,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("router: %w", err)
	}

	logger.Info("savings service starting",
		zap.String("listen_addr", cfg.ListenAddr),
		zap.String("store_driver", cfg.StoreDriver),
		zap.String("transfer_settlement", cfg.TransferSettlement),
		zap.Bool("metrics", cfg.MetricsEnabled),
		zap.Bool("events", cfg.AMQPURL != ""),
	)
	return httpapi.Run(ctx, cfg.ListenAddr, router, logger, cfg.ShutdownTimeout)
}

func runMigrate(ctx context.Context, cfg *config.Config) error {
	return prepareSchema(ctx, cfg)
}

func runAddUser(ctx context.Context, cfg *config.Config, name string, email string, phone string, rawRole string) (ledger.User, error) {
	role, err := ledger.ParseRole(rawRole)
	if err != nil {
		return ledger.User{}, err
	}
	input, err := ledger.NewUserInput(name, email, phone, role, time.Now().UTC().Unix())
	if err != nil {
		return ledger.User{}, err
	}
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return ledger.User{}, err
	}
	defer closeStore()
	return store.CreateUser(ctx, input)
}
