package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/olivergrant/ibts-backend/pkg/config"
	"github.com/olivergrant/ibts-backend/pkg/db"
	"github.com/olivergrant/ibts-backend/pkg/db/models"
	"github.com/olivergrant/ibts-backend/pkg/logger"
	"github.com/olivergrant/ibts-backend/pkg/mailer"
	"github.com/olivergrant/ibts-backend/pkg/metrics"
)

const (
	defaultBatchSize    = 20
	defaultPollInterval = 30 * time.Second
	defaultMaxRetries   = 3
	defaultSendTimeout  = 15 * time.Second
)

type dbClient interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type outboxRepository interface {
	FetchPending(tx *gorm.DB, limit int) ([]models.NotificationOutbox, error)
	FetchRetryEligible(tx *gorm.DB, maxRetries, limit int) ([]models.NotificationOutbox, error)
	MarkProcessed(tx *gorm.DB, id int64, now time.Time) error
	MarkFailed(tx *gorm.DB, id int64, now time.Time) error
	ResetForRetry(tx *gorm.DB, id int64) error
}

type ServiceParams struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         dbClient
	Repository outboxRepository
	Sender     mailer.Sender
	Metrics    *metrics.OutboxMetrics
	Now        func() time.Time
}

// Service drains the notification outbox on a fixed interval. Each cycle
// runs two sweeps: fresh pending records first, then failed records still
// under the retry ceiling. Each sweep is one transaction, so a batch of
// state changes commits together.
type Service struct {
	cfg          *config.Config
	logg         *logger.Logger
	db           dbClient
	repo         outboxRepository
	sender       mailer.Sender
	metrics      *metrics.OutboxMetrics
	now          func() time.Time
	batchSize    int
	maxRetries   int
	pollInterval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	if params.Repository == nil {
		return nil, errors.New("outbox repository is required")
	}
	if params.Sender == nil {
		return nil, errors.New("mail sender is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}

	batch := params.Config.Outbox.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	maxRetries := params.Config.Outbox.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	interval := params.Config.Outbox.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}

	return &Service{
		cfg:          params.Config,
		logg:         params.Logger,
		db:           params.DB,
		repo:         params.Repository,
		sender:       params.Sender,
		metrics:      params.Metrics,
		now:          now,
		batchSize:    batch,
		maxRetries:   maxRetries,
		pollInterval: interval,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		s.logg.Error(ctx, "database ping failed", err)
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// Run polls until the context is canceled. Failures inside a cycle are
// logged and the next cycle starts from the persisted state, so a crashed
// or errored cycle never loses records.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "notification processor context canceled")
			return ctx.Err()
		default:
		}

		s.runCycle(ctx)

		if err := s.sleep(ctx, s.pollInterval); err != nil {
			return err
		}
	}
}

// RunCycleOnce exposes a single poll cycle for tests and one-shot runs.
func (s *Service) RunCycleOnce(ctx context.Context) {
	s.runCycle(ctx)
}

func (s *Service) runCycle(ctx context.Context) {
	if err := s.processPendingBatch(ctx); err != nil {
		s.logCycleError(ctx, "pending sweep failed", err)
		return
	}
	if err := s.processRetryBatch(ctx); err != nil {
		s.logCycleError(ctx, "retry sweep failed", err)
	}
}

func (s *Service) logCycleError(ctx context.Context, msg string, err error) {
	if db.IsUndefinedTable(err) {
		// Migrations have not created the table yet. Expected on fresh
		// environments, so downgrade to a warning and try again next cycle.
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "notification outbox table missing, skipping cycle")
		return
	}
	s.logg.Error(ctx, msg, err)
}

func (s *Service) processPendingBatch(ctx context.Context) error {
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		records, err := s.repo.FetchPending(tx, s.batchSize)
		if err != nil {
			return err
		}
		for _, record := range records {
			if err := s.deliver(ctx, tx, record); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Service) processRetryBatch(ctx context.Context) error {
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		records, err := s.repo.FetchRetryEligible(tx, s.maxRetries, s.batchSize)
		if err != nil {
			return err
		}
		for _, record := range records {
			if err := s.repo.ResetForRetry(tx, record.ID); err != nil {
				return fmt.Errorf("reset for retry %d: %w", record.ID, err)
			}
			if err := s.deliver(ctx, tx, record); err != nil {
				return err
			}
		}
		return nil
	})
}

// deliver attempts one send and records the outcome. Send failures are
// per-record: the record is marked failed and the batch moves on. Marking
// failures abort the whole batch so the commit stays consistent.
func (s *Service) deliver(ctx context.Context, tx *gorm.DB, record models.NotificationOutbox) error {
	fields := map[string]any{
		"outbox_id":         record.ID,
		"notification_type": record.NotificationType,
		"recipient":         record.RecipientEmail,
		"retry_count":       record.RetryCount,
	}
	if record.RelatedIncidentID != nil {
		ctx = s.logg.WithIncidentID(ctx, *record.RelatedIncidentID)
	}

	sendCtx, cancel := context.WithTimeout(ctx, defaultSendTimeout)
	err := s.sender.Send(sendCtx, record.RecipientEmail, record.Subject, record.Body)
	cancel()

	if err != nil {
		s.metrics.IncFailed()
		ctxWithFields := s.logg.WithFields(ctx, fields)
		ctxWithFields = s.logg.WithField(ctxWithFields, "error", err.Error())
		s.logg.Warn(ctxWithFields, "notification delivery failed")

		if markErr := s.repo.MarkFailed(tx, record.ID, s.now().UTC()); markErr != nil {
			return fmt.Errorf("mark failed %d: %w", record.ID, markErr)
		}
		if record.RetryCount+1 >= s.maxRetries {
			s.metrics.IncExhausted()
			s.logg.Warn(s.logg.WithFields(ctx, fields), "notification retries exhausted")
		}
		return nil
	}

	if markErr := s.repo.MarkProcessed(tx, record.ID, s.now().UTC()); markErr != nil {
		return fmt.Errorf("mark processed %d: %w", record.ID, markErr)
	}
	s.metrics.IncSent()
	s.logg.Info(s.logg.WithFields(ctx, fields), "notification delivered")
	return nil
}

func (s *Service) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
