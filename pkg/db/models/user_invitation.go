package models

import (
	"time"

	"github.com/olivergrant/ibts-backend/pkg/enums"
)

// UserInvitation is an admin-issued, token-gated signup offer.
type UserInvitation struct {
	ID              int64          `gorm:"column:id;primaryKey;autoIncrement"`
	Email           string         `gorm:"type:text;not null;index"`
	Role            enums.UserRole `gorm:"column:role;type:text;not null"`
	Token           string         `gorm:"type:text;not null;uniqueIndex"`
	InvitedByUserID int64          `gorm:"column:invited_by_user_id;not null"`
	CreatedAt       time.Time      `gorm:"column:created_at;autoCreateTime"`
	ExpiresAt       time.Time      `gorm:"column:expires_at;not null"`
	AcceptedAt      *time.Time     `gorm:"column:accepted_at"`

	InvitedBy *User `gorm:"foreignKey:InvitedByUserID"`
}

// IsUsable reports whether the invitation can still be redeemed.
func (i UserInvitation) IsUsable(now time.Time) bool {
	return i.AcceptedAt == nil && now.Before(i.ExpiresAt)
}
