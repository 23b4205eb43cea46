package invitations

import (
	"time"

	"github.com/olivergrant/ibts-backend/pkg/db/models"
	"github.com/olivergrant/ibts-backend/pkg/enums"
)

// InvitationDTO is the transport shape for user invitations. The raw token
// is only returned to the admin who created the invitation.
type InvitationDTO struct {
	ID              int64          `json:"id"`
	Email           string         `json:"email"`
	Role            enums.UserRole `json:"role"`
	Token           string         `json:"token,omitempty"`
	InvitedByUserID int64          `json:"invited_by_user_id"`
	ExpiresAt       time.Time      `json:"expires_at"`
	AcceptedAt      *time.Time     `json:"accepted_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}

func FromModel(inv *models.UserInvitation) *InvitationDTO {
	if inv == nil {
		return nil
	}

	return &InvitationDTO{
		ID:              inv.ID,
		Email:           inv.Email,
		Role:            inv.Role,
		InvitedByUserID: inv.InvitedByUserID,
		ExpiresAt:       inv.ExpiresAt,
		AcceptedAt:      inv.AcceptedAt,
		CreatedAt:       inv.CreatedAt,
	}
}
