package invitations

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/olivergrant/ibts-backend/pkg/db/models"
)

// Repository exposes persistence for user invitations. Construct it over a
// transaction handle to join the caller's transaction.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new invitation.
func (r *Repository) Create(ctx context.Context, inv *models.UserInvitation) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

// FindByToken loads an invitation by its opaque token.
func (r *Repository) FindByToken(ctx context.Context, token string) (*models.UserInvitation, error) {
	var inv models.UserInvitation
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&inv).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

// FindPendingByEmail returns the newest unaccepted, unexpired invitation for
// the given email, or gorm.ErrRecordNotFound.
func (r *Repository) FindPendingByEmail(ctx context.Context, email string, now time.Time) (*models.UserInvitation, error) {
	var inv models.UserInvitation
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		Where("accepted_at IS NULL").
		Where("expires_at > ?", now).
		Order("created_at DESC").
		First(&inv).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// List returns all invitations, newest first.
func (r *Repository) List(ctx context.Context) ([]models.UserInvitation, error) {
	var rows []models.UserInvitation
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error
	return rows, err
}

// MarkAccepted stamps accepted_at on the invitation.
func (r *Repository) MarkAccepted(ctx context.Context, id int64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.UserInvitation{}).
		Where("id = ?", id).
		Update("accepted_at", at).Error
}

// DeleteExpiredBefore prunes unaccepted invitations that expired before the
// cutoff. Returns the number of rows removed.
func (r *Repository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("accepted_at IS NULL").
		Where("expires_at < ?", cutoff).
		Delete(&models.UserInvitation{})
	return res.RowsAffected, res.Error
}
