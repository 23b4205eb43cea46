package models

import (
	"time"

	"github.com/olivergrant/ibts-backend/pkg/enums"
)

// User represents the canonical identity entity.
type User struct {
	ID                 int64          `gorm:"column:id;primaryKey;autoIncrement"`
	Email              string         `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash       string         `gorm:"column:password_hash;not null"`
	FirstName          string         `gorm:"column:first_name;not null"`
	LastName           string         `gorm:"column:last_name;not null"`
	Role               enums.UserRole `gorm:"column:role;type:text;not null;default:user"`
	IsActive           bool           `gorm:"column:is_active;not null;default:true"`
	FailedLoginCount   int            `gorm:"column:failed_login_count;not null;default:0"`
	LockoutUntil       *time.Time     `gorm:"column:lockout_until"`
	LastLoginAt        *time.Time     `gorm:"column:last_login_at"`
	SecurityStamp      string         `gorm:"column:security_stamp;not null"`
	CreatedAt          time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// FullName joins first and last name for notification payloads.
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// IsLockedOut reports whether the account is inside an active lockout window.
func (u User) IsLockedOut(now time.Time) bool {
	return u.LockoutUntil != nil && now.Before(*u.LockoutUntil)
}
