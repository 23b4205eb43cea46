package models

import "time"

// IncidentNote is a comment attached to an incident.
type IncidentNote struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	IncidentID   int64     `gorm:"column:incident_id;not null;index"`
	AuthorUserID int64     `gorm:"column:author_user_id;not null"`
	Body         string    `gorm:"type:text;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`

	Author *User `gorm:"foreignKey:AuthorUserID"`
}
