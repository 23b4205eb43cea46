package models

import (
	"time"

	"github.com/olivergrant/ibts-backend/pkg/enums"
)

// Incident is the tracked unit of work.
type Incident struct {
	ID               int64                  `gorm:"column:id;primaryKey;autoIncrement"`
	Title            string                 `gorm:"type:text;not null"`
	Description      string                 `gorm:"type:text;not null"`
	Status           enums.IncidentStatus   `gorm:"column:status;type:text;not null;default:open"`
	Priority         enums.IncidentPriority `gorm:"column:priority;type:text;not null;default:medium"`
	CreatedByUserID  int64                  `gorm:"column:created_by_user_id;not null;index"`
	AssignedToUserID *int64                 `gorm:"column:assigned_to_user_id;index"`
	CreatedAt        time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time              `gorm:"column:updated_at;autoUpdateTime"`
	ClosedAt         *time.Time             `gorm:"column:closed_at"`

	CreatedBy  *User `gorm:"foreignKey:CreatedByUserID"`
	AssignedTo *User `gorm:"foreignKey:AssignedToUserID"`
}
