package outbox

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/olivergrant/ibts-backend/pkg/db/models"
)

// Repository is the only component that touches the notification_outbox
// table. Mutations require the caller's transaction so enqueues commit or
// roll back together with the business change that triggered them.
type Repository struct{}

func NewRepository() *Repository {
	return &Repository{}
}

func (r *Repository) Insert(tx *gorm.DB, record *models.NotificationOutbox) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Create(record).Error
}

// FetchPending returns fresh records that have never failed, oldest first.
func (r *Repository) FetchPending(tx *gorm.DB, limit int) ([]models.NotificationOutbox, error) {
	if tx == nil {
		return nil, errors.New("transaction required")
	}
	var rows []models.NotificationOutbox
	err := tx.Where("processed_at IS NULL AND failed_at IS NULL").
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// FetchRetryEligible returns failed records still under the retry ceiling,
// oldest failure first.
func (r *Repository) FetchRetryEligible(tx *gorm.DB, maxRetries, limit int) ([]models.NotificationOutbox, error) {
	if tx == nil {
		return nil, errors.New("transaction required")
	}
	var rows []models.NotificationOutbox
	err := tx.Where("processed_at IS NULL AND failed_at IS NOT NULL AND retry_count < ?", maxRetries).
		Order("failed_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *Repository) MarkProcessed(tx *gorm.DB, id int64, now time.Time) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Model(&models.NotificationOutbox{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"processed_at": now,
		}).Error
}

func (r *Repository) MarkFailed(tx *gorm.DB, id int64, now time.Time) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Model(&models.NotificationOutbox{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"failed_at":   now,
			"retry_count": gorm.Expr("retry_count + 1"),
		}).Error
}

// ResetForRetry clears the failure marker before a retry attempt. If the
// worker dies mid-send the record reads as pending again, so delivery is
// at-least-once rather than at-most-once.
func (r *Repository) ResetForRetry(tx *gorm.DB, id int64) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Model(&models.NotificationOutbox{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"failed_at": nil,
		}).Error
}

// DeleteProcessedBefore prunes delivered records older than the cutoff.
func (r *Repository) DeleteProcessedBefore(tx *gorm.DB, cutoff time.Time) (int64, error) {
	if tx == nil {
		return 0, errors.New("transaction required")
	}
	res := tx.Where("processed_at IS NOT NULL AND processed_at < ?", cutoff).
		Delete(&models.NotificationOutbox{})
	return res.RowsAffected, res.Error
}
