package users

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/olivergrant/ibts-backend/pkg/db/models"
)

// Repository exposes user-related persistence operations. Construct it over
// a transaction handle to join the caller's transaction.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail retrieves the user matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by id.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// List returns all users ordered by name.
func (r *Repository) List(ctx context.Context) ([]models.User, error) {
	var rows []models.User
	err := r.db.WithContext(ctx).
		Order("first_name ASC").
		Order("last_name ASC").
		Find(&rows).Error
	return rows, err
}

// ListActive returns active users ordered by name, for selection dropdowns.
func (r *Repository) ListActive(ctx context.Context) ([]models.User, error) {
	var rows []models.User
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("first_name ASC").
		Order("last_name ASC").
		Find(&rows).Error
	return rows, err
}

// Delete removes a user row. Reports whether a row was deleted.
func (r *Repository) Delete(ctx context.Context, id int64) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Any reports whether at least one user exists.
func (r *Repository) Any(ctx context.Context) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateProfile applies the provided column updates.
func (r *Repository) UpdateProfile(ctx context.Context, id int64, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// RecordLoginFailure bumps the failure counter and optionally sets a lockout window.
func (r *Repository) RecordLoginFailure(ctx context.Context, id int64, failedCount int, lockoutUntil *time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"failed_login_count": failedCount,
			"lockout_until":      lockoutUntil,
		}).Error
}

// RecordLoginSuccess clears lockout state and stamps last_login_at.
func (r *Repository) RecordLoginSuccess(ctx context.Context, id int64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"failed_login_count": 0,
			"lockout_until":      nil,
			"last_login_at":      at,
		}).Error
}
