package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"bankdash/internal/amqp"
	"bankdash/internal/auth"
	"bankdash/internal/backend"
	"bankdash/internal/cache"
	"bankdash/internal/cli"
	apphttp "bankdash/internal/http"
	"bankdash/internal/i18n"
	"bankdash/internal/ledger"
	applog "bankdash/internal/log"
	"bankdash/internal/metrics"
	"bankdash/internal/services"
	"bankdash/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg)
	ctx := context.Background()

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	store, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Slog()).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	// Resets go through the broker when one is configured, otherwise they
	// are delivered in process.
	var notifier auth.ResetNotifier = worker.NewResetWorker(
		worker.LogMailer{Logger: logger.WithComponent(applog.ComponentWorker).Slog()},
		store.Store,
		logger.WithComponent(applog.ComponentWorker).Slog(),
	)
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger.WithComponent(applog.ComponentAMQP).Slog())
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, delivering resets in process", applog.FieldError, err)
		} else {
			notifier = amqpClient
			logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	sessions := auth.NewSessionStore(cfg.SessionTTL)
	authSvc := auth.NewService(store.Store, sessions,
		auth.WithNotifier(notifier),
		auth.WithLogger(logger.WithComponent(applog.ComponentAuth).Slog()),
	)
	demo := ledger.DemoUser(cfg.DemoEmail, cfg.DemoFirstName, cfg.DemoLastName, ledger.DemoSeed)
	if _, err := authSvc.EnsureUser(ctx, demo, cfg.DemoPassword); err != nil {
		logger.Error("Failed to provision demo user", applog.FieldError, err)
		os.Exit(1)
	}

	txs := services.NewTransactionService(store.Store, cfg.Location(), cfg.CacheTTL)
	dash := services.NewDashboardService(store.Store, cfg.Currency, cfg.CacheTTL)

	m := metrics.New()
	m.RegisterCache("transactions", txs.CacheStats)
	m.RegisterCache("dashboard", dash.CacheStats)

	sweeper := cache.NewManager(logger.WithComponent(applog.ComponentCache).Slog())
	sweeper.Register(txs)
	sweeper.Register(dash)
	sweeper.Register(sessions)
	sweeper.StartCleanup(time.Minute)

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Auth:               authSvc,
		Transactions:       txs,
		Dashboard:          dash,
		I18n:               i18n.MustLoad(),
		Metrics:            m,
		Logger:             logger,
		Currency:           cfg.Currency,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		SecureCookies:      cfg.SecureCookies,
		Ready:              store.Ready,
	})
	if err != nil {
		logger.Error("Failed to build HTTP server", applog.FieldError, err)
		os.Exit(1)
	}

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		sweeper.Stop()
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("AMQP close error", applog.FieldError, err)
			}
		}
		if err := store.Close(); err != nil {
			logger.Warn("Backend close error", applog.FieldError, err)
		}
	})

	logger.Info("Starting bankdash server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"amqp_enabled", amqpClient != nil,
		applog.FieldOperation, applog.OpStartup)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
