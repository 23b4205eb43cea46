package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/olivergrant/ibts-backend/pkg/db/models"
	"github.com/olivergrant/ibts-backend/pkg/logger"
)

const defaultStaleIncidentAge = 7 * 24 * time.Hour

type StaleIncidentJobParams struct {
	Logger     *logger.Logger
	Repository staleIncidentRepo
	MaxAge     time.Duration
}

type staleIncidentRepo interface {
	ListOpenBefore(ctx context.Context, cutoff time.Time) ([]models.Incident, error)
}

// NewStaleIncidentJob reports open incidents that have gone unattended for
// longer than the configured age.
func NewStaleIncidentJob(params StaleIncidentJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("incidents repository required")
	}
	maxAge := params.MaxAge
	if maxAge <= 0 {
		maxAge = defaultStaleIncidentAge
	}
	return &staleIncidentJob{
		logg:   params.Logger,
		repo:   params.Repository,
		maxAge: maxAge,
		now:    time.Now,
	}, nil
}

type staleIncidentJob struct {
	logg   *logger.Logger
	repo   staleIncidentRepo
	maxAge time.Duration
	now    func() time.Time
}

func (j *staleIncidentJob) Name() string { return "stale-incident-check" }

func (j *staleIncidentJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.maxAge)
	incidents, err := j.repo.ListOpenBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("stale incident check: %w", err)
	}
	for _, incident := range incidents {
		logCtx := j.logg.WithFields(ctx, map[string]any{
			"incident_id": incident.ID,
			"title":       incident.Title,
			"priority":    incident.Priority,
			"age":         j.now().UTC().Sub(incident.CreatedAt).String(),
		})
		j.logg.Warn(logCtx, "incident open past the stale threshold")
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":      cutoff,
		"stale_count": len(incidents),
	})
	j.logg.Info(logCtx, "stale incident check complete")
	return nil
}
