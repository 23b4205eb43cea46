package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/olivergrant/ibts-backend/internal/invitations"
	"github.com/olivergrant/ibts-backend/internal/users"
	"github.com/olivergrant/ibts-backend/pkg/config"
	"github.com/olivergrant/ibts-backend/pkg/db"
	"github.com/olivergrant/ibts-backend/pkg/enums"
	pkgerrors "github.com/olivergrant/ibts-backend/pkg/errors"
	"github.com/olivergrant/ibts-backend/pkg/security"
)

var timeNow = func() time.Time { return time.Now().UTC() }

// RegisterRequest contains the payload for creating an account. When Token is
// set, the account is created against a pending invitation and inherits the
// invited role and email.
type RegisterRequest struct {
	FirstName string  `json:"first_name" validate:"required"`
	LastName  string  `json:"last_name" validate:"required"`
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=8"`
	Token     *string `json:"token,omitempty"`
}

// RegisterService handles the account creation transaction.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	DB             *db.Client
	PasswordConfig config.PasswordConfig
}

type registerService struct {
	db          *db.Client
	passwordCfg config.PasswordConfig
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "database client required")
	}
	return &registerService{
		db:          params.DB,
		passwordCfg: params.PasswordConfig,
	}, nil
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var created *users.UserDTO
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)
		invRepo := invitations.NewRepository(tx)

		role := enums.UserRoleUser
		var invitationID *int64

		if req.Token != nil && strings.TrimSpace(*req.Token) != "" {
			invitation, err := invRepo.FindByToken(ctx, strings.TrimSpace(*req.Token))
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeValidation, "invitation token is invalid")
				}
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup invitation")
			}
			if !invitation.IsUsable(timeNow()) {
				return pkgerrors.New(pkgerrors.CodeValidation, "invitation has expired or was already used")
			}
			if !strings.EqualFold(invitation.Email, email) {
				return pkgerrors.New(pkgerrors.CodeValidation, "email does not match the invitation")
			}
			role = invitation.Role
			invitationID = &invitation.ID
		} else {
			// The first registered account becomes the administrator.
			exists, err := userRepo.Any(ctx)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count users")
			}
			if !exists {
				role = enums.UserRoleAdmin
			}
		}

		if _, err := userRepo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}

		user, err := userRepo.Create(ctx, users.CreateUserDTO{
			Email:         email,
			PasswordHash:  passwordHash,
			FirstName:     strings.TrimSpace(req.FirstName),
			LastName:      strings.TrimSpace(req.LastName),
			Role:          role,
			SecurityStamp: uuid.NewString(),
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}

		if invitationID != nil {
			if err := invRepo.MarkAccepted(ctx, *invitationID, timeNow()); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark invitation accepted")
			}
		}

		created = users.FromModel(user)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &RegisterResponse{User: created}, nil
}
