package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/olivergrant/ibts-backend/pkg/config"
	"github.com/olivergrant/ibts-backend/pkg/db"
	"github.com/olivergrant/ibts-backend/pkg/logger"
	"github.com/olivergrant/ibts-backend/pkg/mailer"
	"github.com/olivergrant/ibts-backend/pkg/metrics"
	"github.com/olivergrant/ibts-backend/pkg/migrate"
	"github.com/olivergrant/ibts-backend/pkg/outbox"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "notification-processor"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = config.ServiceKindNotifier

	logg = logger.New(logger.Options{
		ServiceName: "notification-processor",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	sender, err := mailer.NewSMTPSender(cfg.SMTP)
	if err != nil {
		logg.Error(context.Background(), "failed to configure mail sender", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	outboxMetrics := metrics.NewOutboxMetrics(registry)

	service, err := NewService(ServiceParams{
		Config:     cfg,
		Logger:     logg,
		DB:         dbClient,
		Repository: outbox.NewRepository(),
		Sender:     sender,
		Metrics:    outboxMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notification processor", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": config.ServiceKindNotifier,
	})
	logg.Info(ctx, "starting notification processor")

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	metricsSrv := &http.Server{Addr: ":" + cfg.App.Port, Handler: metricsMux}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "metrics server stopped", err)
		}
	}()
	defer func() { _ = metricsSrv.Shutdown(context.Background()) }()

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "notification processor stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "notification processor shutting down gracefully")
}
