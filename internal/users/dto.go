package users

import (
	"time"

	"github.com/olivergrant/ibts-backend/pkg/db/models"
	"github.com/olivergrant/ibts-backend/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID          int64          `json:"id"`
	Email       string         `json:"email"`
	FirstName   string         `json:"first_name"`
	LastName    string         `json:"last_name"`
	Role        enums.UserRole `json:"role"`
	IsActive    bool           `json:"is_active"`
	LastLoginAt *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email         string
	PasswordHash  string
	FirstName     string
	LastName      string
	Role          enums.UserRole
	SecurityStamp string
	IsActive      *bool
}

// UpdateUserDTO captures the mutable profile fields.
type UpdateUserDTO struct {
	FirstName *string
	LastName  *string
	Role      *enums.UserRole
	IsActive  *bool
}

// CreateUserInput is the admin-facing shape for provisioning an account.
type CreateUserInput struct {
	Email     string
	FirstName string
	LastName  string
	Role      enums.UserRole
}

// CreatedUser carries the new account plus its one-time temporary password.
// The password is never persisted in clear and is only returned here.
type CreatedUser struct {
	User         *UserDTO `json:"user"`
	TempPassword string   `json:"temp_password"`
}

// UserLookupDTO is the minimal shape for assignment dropdowns.
type UserLookupDTO struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Role:        u.Role,
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	isActive := true
	if c.IsActive != nil {
		isActive = *c.IsActive
	}

	role := c.Role
	if role == "" {
		role = enums.UserRoleUser
	}

	return &models.User{
		Email:         c.Email,
		PasswordHash:  c.PasswordHash,
		FirstName:     c.FirstName,
		LastName:      c.LastName,
		Role:          role,
		IsActive:      isActive,
		SecurityStamp: c.SecurityStamp,
	}
}
