package invitations

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/olivergrant/ibts-backend/internal/users"
	"github.com/olivergrant/ibts-backend/pkg/config"
	"github.com/olivergrant/ibts-backend/pkg/db"
	"github.com/olivergrant/ibts-backend/pkg/db/models"
	"github.com/olivergrant/ibts-backend/pkg/enums"
	pkgerrors "github.com/olivergrant/ibts-backend/pkg/errors"
)

// InviteRequest contains the payload for inviting a new user.
type InviteRequest struct {
	Email string         `json:"email" validate:"required,email"`
	Role  enums.UserRole `json:"role" validate:"required"`
}

// Service defines the behavior needed by the invitations controller.
type Service interface {
	Invite(ctx context.Context, inviterID int64, req InviteRequest) (*InvitationDTO, error)
	List(ctx context.Context) ([]InvitationDTO, error)
}

type producer interface {
	QueueInvitation(tx *gorm.DB, recipientEmail, inviterFirst, inviterLast string, role enums.UserRole, token string, expiresAt time.Time) error
}

// ServiceParams bundles the dependencies required to build the invitations service.
type ServiceParams struct {
	DB       *db.Client
	Producer producer
	Config   config.NotifyConfig
	Now      func() time.Time
}

type service struct {
	db       *db.Client
	producer producer
	cfg      config.NotifyConfig
	now      func() time.Time
}

// NewService constructs an invitations service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "database client required")
	}
	if params.Producer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notification producer required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		db:       params.DB,
		producer: params.Producer,
		cfg:      params.Config,
		now:      now,
	}, nil
}

func (s *service) Invite(ctx context.Context, inviterID int64, req InviteRequest) (*InvitationDTO, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if !req.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}

	now := s.now().UTC()
	invitation := &models.UserInvitation{
		Email:           email,
		Role:            req.Role,
		Token:           uuid.NewString(),
		InvitedByUserID: inviterID,
		ExpiresAt:       now.Add(s.cfg.InvitationExpiry),
	}

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)
		invRepo := NewRepository(tx)

		if _, err := userRepo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "a user with this email already exists")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}

		if _, err := invRepo.FindPendingByEmail(ctx, email, now); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "an invitation for this email is already pending")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check pending invitation")
		}

		inviter, err := userRepo.FindByID(ctx, inviterID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load inviter")
		}

		if err := invRepo.Create(ctx, invitation); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create invitation")
		}

		if err := s.producer.QueueInvitation(tx, email, inviter.FirstName, inviter.LastName, req.Role, invitation.Token, invitation.ExpiresAt); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queue invitation notification")
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	dto := FromModel(invitation)
	dto.Token = invitation.Token
	return dto, nil
}

func (s *service) List(ctx context.Context) ([]InvitationDTO, error) {
	rows, err := NewRepository(s.db.DB()).List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list invitations")
	}
	out := make([]InvitationDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}
