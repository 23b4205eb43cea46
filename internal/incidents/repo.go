package incidents

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/olivergrant/ibts-backend/pkg/db/models"
	"github.com/olivergrant/ibts-backend/pkg/enums"
	"github.com/olivergrant/ibts-backend/pkg/pagination"
)

// Repository exposes persistence helpers for incidents.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, incident *models.Incident) error
	FindByID(ctx context.Context, id int64) (*models.Incident, error)
	List(ctx context.Context, params listIncidentsParams) ([]models.Incident, *pagination.Cursor, error)
	Update(ctx context.Context, incident *models.Incident) error
	Delete(ctx context.Context, id int64) (bool, error)
	ListOpenBefore(ctx context.Context, cutoff time.Time) ([]models.Incident, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an incidents repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listIncidentsParams struct {
	Status           *enums.IncidentStatus
	Priority         *enums.IncidentPriority
	AssignedToUserID *int64
	CreatedByUserID  *int64
	Limit            int
	Cursor           *pagination.Cursor
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, incident *models.Incident) error {
	return r.db.WithContext(ctx).Create(incident).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id int64) (*models.Incident, error) {
	var incident models.Incident
	err := r.db.WithContext(ctx).
		Preload("CreatedBy").
		Preload("AssignedTo").
		First(&incident, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &incident, nil
}

func (r *repositoryImpl) List(ctx context.Context, params listIncidentsParams) ([]models.Incident, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.Incident{})
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.Priority != nil {
		query = query.Where("priority = ?", *params.Priority)
	}
	if params.AssignedToUserID != nil {
		query = query.Where("assigned_to_user_id = ?", *params.AssignedToUserID)
	}
	if params.CreatedByUserID != nil {
		query = query.Where("created_by_user_id = ?", *params.CreatedByUserID)
	}
	if params.Cursor != nil {
		query = query.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			params.Cursor.CreatedAt, params.Cursor.CreatedAt, params.Cursor.ID,
		)
	}

	var incidents []models.Incident
	err := query.
		Preload("CreatedBy").
		Preload("AssignedTo").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&incidents).Error
	if err != nil {
		return nil, nil, err
	}

	if len(incidents) > normalized {
		next := incidents[normalized]
		incidents = incidents[:normalized]
		return incidents, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return incidents, nil, nil
}

func (r *repositoryImpl) Update(ctx context.Context, incident *models.Incident) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(incident).Error
}

func (r *repositoryImpl) Delete(ctx context.Context, id int64) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.Incident{}, "id = ?", id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListOpenBefore returns open incidents created before the cutoff, oldest first.
func (r *repositoryImpl) ListOpenBefore(ctx context.Context, cutoff time.Time) ([]models.Incident, error) {
	var incidents []models.Incident
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.IncidentStatusOpen).
		Where("created_at < ?", cutoff).
		Order("created_at ASC").
		Find(&incidents).Error
	return incidents, err
}
