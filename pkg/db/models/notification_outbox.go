package models

import (
	"time"

	"github.com/olivergrant/ibts-backend/pkg/enums"
)

// NotificationOutbox is a durable record of an email notification awaiting
// delivery. The payload (recipient, subject, body) is rendered at enqueue time
// and never rewritten afterwards; the processor only flips the state columns.
//
// State is derived from the nullable timestamps:
//
//	processed_at set                  -> delivered, terminal
//	processed_at null, failed_at null -> pending, eligible for the next sweep
//	processed_at null, failed_at set  -> failed, retryable while retry_count
//	                                     stays under the configured ceiling
type NotificationOutbox struct {
	ID                int64                  `gorm:"column:id;primaryKey;autoIncrement"`
	NotificationType  enums.NotificationType `gorm:"column:notification_type;type:text;not null"`
	RecipientEmail    string                 `gorm:"column:recipient_email;type:text;not null"`
	Subject           string                 `gorm:"type:text;not null"`
	Body              string                 `gorm:"type:text;not null"`
	RelatedIncidentID *int64                 `gorm:"column:related_incident_id"`
	CreatedAt         time.Time              `gorm:"column:created_at;not null"`
	ProcessedAt       *time.Time             `gorm:"column:processed_at"`
	FailedAt          *time.Time             `gorm:"column:failed_at"`
	RetryCount        int                    `gorm:"column:retry_count;not null;default:0"`
}

// TableName keeps the legacy table name used by the delivery worker.
func (NotificationOutbox) TableName() string {
	return "notification_outbox"
}
