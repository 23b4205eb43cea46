package notes

import (
	"context"

	"gorm.io/gorm"

	"github.com/olivergrant/ibts-backend/pkg/db/models"
)

// Repository exposes persistence for incident notes. Construct it over a
// transaction handle to join the caller's transaction.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new note.
func (r *Repository) Create(ctx context.Context, note *models.IncidentNote) error {
	return r.db.WithContext(ctx).Create(note).Error
}

// ListByIncident returns the notes for an incident, oldest first.
func (r *Repository) ListByIncident(ctx context.Context, incidentID int64) ([]models.IncidentNote, error) {
	var rows []models.IncidentNote
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("incident_id = ?", incidentID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	return rows, err
}
