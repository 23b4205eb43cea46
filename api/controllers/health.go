package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/olivergrant/ibts-backend/api/responses"
	"github.com/olivergrant/ibts-backend/pkg/config"
	"github.com/olivergrant/ibts-backend/pkg/db"
	pkgerrors "github.com/olivergrant/ibts-backend/pkg/errors"
	"github.com/olivergrant/ibts-backend/pkg/logger"
)

const readinessTimeout = 2 * time.Second

type redisPinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-IBTS-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when the backing stores answer.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redisPinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-IBTS-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := map[string]string{}
		healthy := true

		if dbP != nil {
			if err := dbP.Ping(ctx); err != nil {
				checks["database"] = "down"
				healthy = false
				if logg != nil {
					logg.Error(ctx, "database readiness check failed", err)
				}
			} else {
				checks["database"] = "up"
			}
		}
		if redisP != nil {
			if err := redisP.Ping(ctx); err != nil {
				checks["redis"] = "down"
				healthy = false
				if logg != nil {
					logg.Error(ctx, "redis readiness check failed", err)
				}
			} else {
				checks["redis"] = "up"
			}
		}

		if !healthy {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "dependencies unavailable").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
