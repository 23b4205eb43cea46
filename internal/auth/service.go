package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/olivergrant/ibts-backend/internal/users"
	pkgAuth "github.com/olivergrant/ibts-backend/pkg/auth"
	"github.com/olivergrant/ibts-backend/pkg/config"
	"github.com/olivergrant/ibts-backend/pkg/db/models"
	pkgerrors "github.com/olivergrant/ibts-backend/pkg/errors"
	"github.com/olivergrant/ibts-backend/pkg/security"
)

const (
	invalidCredentialsMessage = "invalid credentials"
	accountLockedMessage      = "account is temporarily locked, try again later"
	accountDisabledMessage    = "account is disabled"
)

// Service defines the behavior needed by the auth controller.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
}

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	RecordLoginFailure(ctx context.Context, id int64, failedCount int, lockoutUntil *time.Time) error
	RecordLoginSuccess(ctx context.Context, id int64, at time.Time) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo       userRepository
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
	Now            func() time.Time
}

type service struct {
	users       userRepository
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	now         func() time.Time
}

// NewService constructs a login service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "user repository required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		users:       params.UserRepo,
		jwtCfg:      params.JWTConfig,
		passwordCfg: params.PasswordConfig,
		now:         now,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if err := s.users.RecordLoginSuccess(ctx, user.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record login")
	}
	user.LastLoginAt = &now
	user.FailedLoginCount = 0
	user.LockoutUntil = nil

	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		JTI:    uuid.NewString(),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	return &LoginResponse{
		AccessToken: accessToken,
		User:        users.FromModel(user),
	}, nil
}

func (s *service) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	input := strings.TrimSpace(email)
	if input == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	user, err := s.users.FindByEmail(ctx, strings.ToLower(input))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, accountDisabledMessage)
	}

	now := s.now().UTC()
	if user.IsLockedOut(now) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, accountLockedMessage)
	}

	valid, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		if failErr := s.recordFailure(ctx, user, now); failErr != nil {
			return nil, failErr
		}
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return user, nil
}

// recordFailure bumps the failure counter and locks the account once the
// configured threshold is reached.
func (s *service) recordFailure(ctx context.Context, user *models.User, now time.Time) error {
	failedCount := user.FailedLoginCount + 1
	var lockoutUntil *time.Time
	if failedCount >= s.passwordCfg.MaxFailedAttempts {
		until := now.Add(s.passwordCfg.LockoutDuration)
		lockoutUntil = &until
	}
	if err := s.users.RecordLoginFailure(ctx, user.ID, failedCount, lockoutUntil); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record login failure")
	}
	return nil
}
