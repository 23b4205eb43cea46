package users

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/olivergrant/ibts-backend/pkg/config"
	"github.com/olivergrant/ibts-backend/pkg/db"
	"github.com/olivergrant/ibts-backend/pkg/db/models"
	"github.com/olivergrant/ibts-backend/pkg/enums"
	pkgerrors "github.com/olivergrant/ibts-backend/pkg/errors"
	"github.com/olivergrant/ibts-backend/pkg/security"
)

const tempPasswordLength = 12

// Service defines the user management behavior needed by the controllers.
type Service interface {
	Create(ctx context.Context, req CreateUserInput) (*CreatedUser, error)
	List(ctx context.Context) ([]UserDTO, error)
	Lookup(ctx context.Context) ([]UserLookupDTO, error)
	Get(ctx context.Context, id int64) (*UserDTO, error)
	Update(ctx context.Context, id int64, req UpdateUserDTO) (*UserDTO, error)
	Delete(ctx context.Context, id int64) error
}

// ServiceParams bundles the dependencies required to build the users service.
type ServiceParams struct {
	DB             *db.Client
	Repo           *Repository
	PasswordConfig config.PasswordConfig
}

type service struct {
	db          *db.Client
	repo        *Repository
	passwordCfg config.PasswordConfig
}

// NewService constructs a users service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "database client required")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	}
	return &service{
		db:          params.DB,
		repo:        params.Repo,
		passwordCfg: params.PasswordConfig,
	}, nil
}

// Create provisions an account on behalf of an administrator. The user
// receives a generated temporary password, returned once in the response.
func (s *service) Create(ctx context.Context, req CreateUserInput) (*CreatedUser, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)
	if firstName == "" || lastName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "first and last name are required")
	}
	role := req.Role
	if role == "" {
		role = enums.UserRoleUser
	}
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}

	tempPassword, err := security.GenerateTempPassword(tempPasswordLength)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate temporary password")
	}
	passwordHash, err := security.HashPassword(tempPassword, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var created *UserDTO
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)

		if _, err := repo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}

		user, err := repo.Create(ctx, CreateUserDTO{
			Email:         email,
			PasswordHash:  passwordHash,
			FirstName:     firstName,
			LastName:      lastName,
			Role:          role,
			SecurityStamp: uuid.NewString(),
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}
		created = FromModel(user)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &CreatedUser{User: created, TempPassword: tempPassword}, nil
}

func (s *service) List(ctx context.Context) ([]UserDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list users")
	}
	out := make([]UserDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

// Lookup returns active users as id/name pairs for assignment dropdowns.
func (s *service) Lookup(ctx context.Context) ([]UserLookupDTO, error) {
	rows, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup users")
	}
	out := make([]UserLookupDTO, 0, len(rows))
	for i := range rows {
		out = append(out, UserLookupDTO{
			ID:       rows[i].ID,
			FullName: strings.TrimSpace(rows[i].FirstName + " " + rows[i].LastName),
		})
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id int64) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return FromModel(user), nil
}

func (s *service) Update(ctx context.Context, id int64, req UpdateUserDTO) (*UserDTO, error) {
	updates := map[string]any{}
	if req.FirstName != nil {
		name := strings.TrimSpace(*req.FirstName)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "first_name cannot be empty")
		}
		updates["first_name"] = name
	}
	if req.LastName != nil {
		name := strings.TrimSpace(*req.LastName)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "last_name cannot be empty")
		}
		updates["last_name"] = name
	}
	if req.Role != nil {
		if !req.Role.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
		}
		updates["role"] = *req.Role
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateProfile(ctx, id, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update user")
	}
	return s.Get(ctx, id)
}

// Delete removes an account. Incidents assigned to the user are unassigned
// first so open work is not orphaned behind a dangling reference. Users who
// authored incidents or notes cannot be removed.
func (s *service) Delete(ctx context.Context, id int64) error {
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)

		if _, err := repo.FindByID(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
		}

		if err := tx.WithContext(ctx).
			Model(&models.Incident{}).
			Where("assigned_to_user_id = ?", id).
			Update("assigned_to_user_id", nil).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unassign incidents")
		}

		deleted, err := repo.Delete(ctx, id)
		if err != nil {
			if db.IsForeignKeyViolation(err) {
				return pkgerrors.New(pkgerrors.CodeConflict, "user has authored incidents or notes")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete user")
		}
		if !deleted {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil
	})
}
