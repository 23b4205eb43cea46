package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/olivergrant/ibts-backend/pkg/logger"
)

const defaultInvitationRetention = 30 * 24 * time.Hour

type InvitationCleanupJobParams struct {
	Logger     *logger.Logger
	Repository invitationCleanupRepo
	Retention  time.Duration
}

type invitationCleanupRepo interface {
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewInvitationCleanupJob removes invitations that expired without being
// accepted.
func NewInvitationCleanupJob(params InvitationCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("invitations repository required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = defaultInvitationRetention
	}
	return &invitationCleanupJob{
		logg:      params.Logger,
		repo:      params.Repository,
		retention: retention,
		now:       time.Now,
	}, nil
}

type invitationCleanupJob struct {
	logg      *logger.Logger
	repo      invitationCleanupRepo
	retention time.Duration
	now       func() time.Time
}

func (j *invitationCleanupJob) Name() string { return "invitation-cleanup" }

func (j *invitationCleanupJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	deleted, err := j.repo.DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("invitation cleanup: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": deleted,
	})
	j.logg.Info(logCtx, "invitation cleanup complete")
	return nil
}
