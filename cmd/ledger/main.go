package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"ledger/internal/amqp"
	"ledger/internal/backend"
	"ledger/internal/cache"
	"ledger/internal/cli"
	apphttp "ledger/internal/http"
	"ledger/internal/log"
	"ledger/internal/period"
	"ledger/internal/services"
	"ledger/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL")).WithComponent(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Failed to read backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}

	store, err := period.NewStore(res.Mode, res.Table, period.Options{
		CacheSize: cfg.CacheSize,
		CacheTTL:  cfg.CacheTTL,
		Logger:    logger,
	})
	if err != nil {
		logger.Error("Failed to initialize period store", log.FieldError, err)
		os.Exit(1)
	}

	caches := cache.NewManager(logger)
	caches.Register(store.Cache())
	caches.StartCleanup(cfg.CacheTTL)

	var (
		notifier  services.Notifier
		publisher *amqp.Client
	)
	if cfg.AMQPURL != "" {
		publisher, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		notifier = publisher
	} else {
		logger.Info("Change events disabled - no AMQP_URL provided")
	}

	ledger := services.NewLedgerService(store, notifier, logger)
	srv := apphttp.NewServer(":"+cfg.Port, ledger, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		caches.Stop()
		if publisher != nil {
			if err := publisher.Close(); err != nil {
				logger.Error("AMQP close error", log.FieldError, err)
			}
		}
		if err := res.Close(); err != nil {
			logger.Error("Backend close error", log.FieldError, err)
		}
	})

	// Other instances writing the same table announce their changes here.
	if publisher != nil && cfg.AMQPQueue != "" {
		invalidator := worker.NewInvalidationWorker(store, logger)
		go func() {
			if err := invalidator.Run(ctx, publisher); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Partition change consumer stopped", log.FieldError, err)
			}
		}()
	}

	logger.Info("Starting ledger server",
		"port", cfg.Port,
		log.FieldBackend, cfg.DataBackend,
		log.FieldStorageMode, string(store.Mode()))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
