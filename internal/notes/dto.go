package notes

import (
	"time"

	"github.com/olivergrant/ibts-backend/internal/users"
	"github.com/olivergrant/ibts-backend/pkg/db/models"
)

// NoteDTO is the transport shape for incident notes.
type NoteDTO struct {
	ID         int64          `json:"id"`
	IncidentID int64          `json:"incident_id"`
	Body       string         `json:"body"`
	Author     *users.UserDTO `json:"author,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// CreateNoteRequest is the payload for adding a note to an incident.
type CreateNoteRequest struct {
	Body string `json:"body" validate:"required"`
}

func FromModel(note *models.IncidentNote) *NoteDTO {
	if note == nil {
		return nil
	}

	return &NoteDTO{
		ID:         note.ID,
		IncidentID: note.IncidentID,
		Body:       note.Body,
		Author:     users.FromModel(note.Author),
		CreatedAt:  note.CreatedAt,
	}
}
