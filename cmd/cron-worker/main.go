package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/olivergrant/ibts-backend/internal/cron"
	"github.com/olivergrant/ibts-backend/internal/incidents"
	"github.com/olivergrant/ibts-backend/internal/invitations"
	"github.com/olivergrant/ibts-backend/pkg/config"
	"github.com/olivergrant/ibts-backend/pkg/db"
	"github.com/olivergrant/ibts-backend/pkg/logger"
	"github.com/olivergrant/ibts-backend/pkg/metrics"
	"github.com/olivergrant/ibts-backend/pkg/migrate"
	"github.com/olivergrant/ibts-backend/pkg/outbox"
	"github.com/olivergrant/ibts-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = config.ServiceKindCron

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	staleIncidentJob, err := cron.NewStaleIncidentJob(cron.StaleIncidentJobParams{
		Logger:     logg,
		Repository: incidents.NewRepository(dbClient.DB()),
		MaxAge:     cfg.Cron.StaleIncidentAge,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create stale incident job", err)
		os.Exit(1)
	}

	invitationCleanupJob, err := cron.NewInvitationCleanupJob(cron.InvitationCleanupJobParams{
		Logger:     logg,
		Repository: invitations.NewRepository(dbClient.DB()),
		Retention:  cfg.Notify.InvitationRetention,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create invitation cleanup job", err)
		os.Exit(1)
	}

	outboxRetentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: outbox.NewRepository(),
		Retention:  cfg.Outbox.RetentionAge,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox retention job", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(lockName(cfg.App.Env)), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry(staleIncidentJob, invitationCleanupJob, outboxRetentionJob)
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Cron.CleanupInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockName(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("cron-worker:%s", env)
}
