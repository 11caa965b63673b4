package main

import (
	"context"
	"errors"
	"os"
	"time"

	"bankdash/internal/amqp"
	"bankdash/internal/backend"
	"bankdash/internal/cli"
	applog "bankdash/internal/log"
	"bankdash/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg).WithComponent(applog.ComponentWorker)

	logger.Info("Starting bankdash-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	store, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Slog()).CreateBackend(context.Background(), bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err)
		os.Exit(1)
	}
	defer store.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger.WithComponent(applog.ComponentAMQP).Slog())
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	resets := worker.NewResetWorker(worker.LogMailer{Logger: logger.Slog()}, store.Store, logger.Slog())

	ctx, done := cli.GracefulShutdown(logger, 10*time.Second, nil)

	go func() {
		err := amqpClient.ConsumePasswordResets(ctx, resets.HandleResetMessage)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", applog.FieldError, err)
			os.Exit(1)
		}
	}()

	logger.Info("Consuming password resets", "queue", cfg.AMQPQueue, "backend", cfg.DataBackend)
	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
