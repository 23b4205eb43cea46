package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/olivergrant/ibts-backend/api/routes"
	"github.com/olivergrant/ibts-backend/internal/auth"
	"github.com/olivergrant/ibts-backend/internal/incidents"
	"github.com/olivergrant/ibts-backend/internal/invitations"
	"github.com/olivergrant/ibts-backend/internal/notes"
	"github.com/olivergrant/ibts-backend/internal/notifier"
	"github.com/olivergrant/ibts-backend/internal/users"
	"github.com/olivergrant/ibts-backend/pkg/config"
	"github.com/olivergrant/ibts-backend/pkg/db"
	"github.com/olivergrant/ibts-backend/pkg/logger"
	"github.com/olivergrant/ibts-backend/pkg/migrate"
	"github.com/olivergrant/ibts-backend/pkg/outbox"
	"github.com/olivergrant/ibts-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = config.ServiceKindAPI

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	producer, err := notifier.NewProducer(notifier.ProducerParams{
		Store:   outbox.NewRepository(),
		BaseURL: cfg.Notify.BaseURL,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notification producer", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(dbClient.DB()),
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create register service", err)
		os.Exit(1)
	}

	userService, err := users.NewService(users.ServiceParams{
		DB:             dbClient,
		Repo:           users.NewRepository(dbClient.DB()),
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	incidentService, err := incidents.NewService(incidents.ServiceParams{
		DB:       dbClient,
		Repo:     incidents.NewRepository(dbClient.DB()),
		Producer: producer,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create incidents service", err)
		os.Exit(1)
	}

	noteService, err := notes.NewService(notes.ServiceParams{
		DB:            dbClient,
		IncidentsRepo: incidents.NewRepository(dbClient.DB()),
		Producer:      producer,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notes service", err)
		os.Exit(1)
	}

	invitationService, err := invitations.NewService(invitations.ServiceParams{
		DB:       dbClient,
		Producer: producer,
		Config:   cfg.Notify,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create invitations service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			authService,
			registerService,
			userService,
			incidentService,
			noteService,
			invitationService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
