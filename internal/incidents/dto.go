package incidents

import (
	"time"

	"github.com/olivergrant/ibts-backend/internal/users"
	"github.com/olivergrant/ibts-backend/pkg/db/models"
	"github.com/olivergrant/ibts-backend/pkg/enums"
)

// IncidentDTO is the transport shape for incidents.
type IncidentDTO struct {
	ID              int64                  `json:"id"`
	Title           string                 `json:"title"`
	Description     string                 `json:"description"`
	Status          enums.IncidentStatus   `json:"status"`
	StatusDisplay   string                 `json:"status_display"`
	Priority        enums.IncidentPriority `json:"priority"`
	PriorityDisplay string                 `json:"priority_display"`
	CreatedBy       *users.UserDTO         `json:"created_by,omitempty"`
	AssignedTo      *users.UserDTO         `json:"assigned_to,omitempty"`
	ClosedAt        *time.Time             `json:"closed_at,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// CreateIncidentRequest is the payload for opening a new incident.
type CreateIncidentRequest struct {
	Title            string                 `json:"title" validate:"required"`
	Description      string                 `json:"description"`
	Priority         enums.IncidentPriority `json:"priority"`
	AssignedToUserID *int64                 `json:"assigned_to_user_id,omitempty"`
}

// UpdateIncidentRequest carries the mutable incident fields. Nil pointers
// leave the field untouched; ClearAssignment removes the current assignee.
type UpdateIncidentRequest struct {
	Title            *string                 `json:"title,omitempty"`
	Description      *string                 `json:"description,omitempty"`
	Status           *enums.IncidentStatus   `json:"status,omitempty"`
	Priority         *enums.IncidentPriority `json:"priority,omitempty"`
	AssignedToUserID *int64                  `json:"assigned_to_user_id,omitempty"`
	ClearAssignment  bool                    `json:"clear_assignment,omitempty"`
}

func FromModel(incident *models.Incident) *IncidentDTO {
	if incident == nil {
		return nil
	}

	return &IncidentDTO{
		ID:              incident.ID,
		Title:           incident.Title,
		Description:     incident.Description,
		Status:          incident.Status,
		StatusDisplay:   incident.Status.DisplayName(),
		Priority:        incident.Priority,
		PriorityDisplay: incident.Priority.DisplayName(),
		CreatedBy:       users.FromModel(incident.CreatedBy),
		AssignedTo:      users.FromModel(incident.AssignedTo),
		ClosedAt:        incident.ClosedAt,
		CreatedAt:       incident.CreatedAt,
		UpdatedAt:       incident.UpdatedAt,
	}
}
