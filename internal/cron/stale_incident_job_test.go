package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/olivergrant/ibts-backend/pkg/db/models"
	"github.com/olivergrant/ibts-backend/pkg/logger"
)

func TestStaleIncidentJobQueriesWithCutoff(t *testing.T) {
	now := time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC)
	repo := &fakeStaleIncidentRepo{
		incidents: []models.Incident{
			{ID: 1, Title: "Old incident", CreatedAt: now.Add(-10 * 24 * time.Hour)},
		},
	}
	job := newStaleIncidentJob(t, repo, 7*24*time.Hour)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !repo.lastCutoff.Equal(now.Add(-7 * 24 * time.Hour)) {
		t.Fatalf("unexpected cutoff %s", repo.lastCutoff)
	}
}

func TestStaleIncidentJobPropagatesErrors(t *testing.T) {
	repo := &fakeStaleIncidentRepo{err: errors.New("boom")}
	job := newStaleIncidentJob(t, repo, time.Hour)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func newStaleIncidentJob(t *testing.T, repo *fakeStaleIncidentRepo, maxAge time.Duration) *staleIncidentJob {
	t.Helper()
	jobIface, err := NewStaleIncidentJob(StaleIncidentJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Repository: repo,
		MaxAge:     maxAge,
	})
	if err != nil {
		t.Fatalf("NewStaleIncidentJob: %v", err)
	}
	job, ok := jobIface.(*staleIncidentJob)
	if !ok {
		t.Fatalf("expected staleIncidentJob, got %T", jobIface)
	}
	return job
}

type fakeStaleIncidentRepo struct {
	incidents  []models.Incident
	lastCutoff time.Time
	err        error
}

func (f *fakeStaleIncidentRepo) ListOpenBefore(ctx context.Context, cutoff time.Time) ([]models.Incident, error) {
	f.lastCutoff = cutoff
	if f.err != nil {
		return nil, f.err
	}
	return f.incidents, nil
}
