package auth

import (
	"context"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/olivergrant/ibts-backend/internal/invitations"
	"github.com/olivergrant/ibts-backend/internal/users"
	"github.com/olivergrant/ibts-backend/pkg/config"
	"github.com/olivergrant/ibts-backend/pkg/db"
	"github.com/olivergrant/ibts-backend/pkg/db/models"
	"github.com/olivergrant/ibts-backend/pkg/enums"
	pkgerrors "github.com/olivergrant/ibts-backend/pkg/errors"
)

func newRegisterTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:registersvc?mode=memory&cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.User{}, &models.UserInvitation{}); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	for _, table := range []string{"user_invitations", "users"} {
		if err := conn.Exec("DELETE FROM " + table).Error; err != nil {
			t.Fatalf("clean table %s: %v", table, err)
		}
	}
	return conn
}

func newTestRegisterService(t *testing.T, conn *gorm.DB) RegisterService {
	t.Helper()
	svc, err := NewRegisterService(RegisterServiceParams{
		DB:             db.NewWithConn(conn),
		PasswordConfig: config.PasswordConfig{},
	})
	if err != nil {
		t.Fatalf("new register service: %v", err)
	}
	return svc
}

func TestRegisterFirstUserBecomesAdmin(t *testing.T) {
	conn := newRegisterTestDB(t)
	svc := newTestRegisterService(t, conn)

	resp, err := svc.Register(context.Background(), RegisterRequest{
		FirstName: "Ada",
		LastName:  "Moreno",
		Email:     "ada@example.com",
		Password:  "Secret123!",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.User.Role != enums.UserRoleAdmin {
		t.Fatalf("expected the first user to be admin, got %s", resp.User.Role)
	}

	resp, err = svc.Register(context.Background(), RegisterRequest{
		FirstName: "Ben",
		LastName:  "Ito",
		Email:     "ben@example.com",
		Password:  "Secret123!",
	})
	if err != nil {
		t.Fatalf("register second user: %v", err)
	}
	if resp.User.Role != enums.UserRoleUser {
		t.Fatalf("expected subsequent users to get the user role, got %s", resp.User.Role)
	}
}

func TestRegisterDuplicateEmailRejected(t *testing.T) {
	conn := newRegisterTestDB(t)
	svc := newTestRegisterService(t, conn)

	req := RegisterRequest{
		FirstName: "Ada",
		LastName:  "Moreno",
		Email:     "ada@example.com",
		Password:  "Secret123!",
	}
	if _, err := svc.Register(context.Background(), req); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := svc.Register(context.Background(), req)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRegisterWithInvitationInheritsRole(t *testing.T) {
	conn := newRegisterTestDB(t)
	svc := newTestRegisterService(t, conn)

	admin, err := users.NewRepository(conn).Create(context.Background(), users.CreateUserDTO{
		Email:        "admin@example.com",
		PasswordHash: "x",
		Role:         enums.UserRoleAdmin,
	})
	if err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	invitation := &models.UserInvitation{
		Email:           "invited@example.com",
		Role:            enums.UserRoleAdmin,
		Token:           "tok-123",
		InvitedByUserID: admin.ID,
		ExpiresAt:       time.Now().UTC().Add(24 * time.Hour),
	}
	if err := invitations.NewRepository(conn).Create(context.Background(), invitation); err != nil {
		t.Fatalf("seed invitation: %v", err)
	}

	token := "tok-123"
	resp, err := svc.Register(context.Background(), RegisterRequest{
		FirstName: "Ivy",
		LastName:  "Invited",
		Email:     "Invited@Example.com",
		Password:  "Secret123!",
		Token:     &token,
	})
	if err != nil {
		t.Fatalf("register via invitation: %v", err)
	}
	if resp.User.Role != enums.UserRoleAdmin {
		t.Fatalf("expected the invited role, got %s", resp.User.Role)
	}

	stored, err := invitations.NewRepository(conn).FindByToken(context.Background(), "tok-123")
	if err != nil {
		t.Fatalf("reload invitation: %v", err)
	}
	if stored.AcceptedAt == nil {
		t.Fatal("expected the invitation to be marked accepted")
	}
}

func TestRegisterWithExpiredInvitationRejected(t *testing.T) {
	conn := newRegisterTestDB(t)
	svc := newTestRegisterService(t, conn)

	invitation := &models.UserInvitation{
		Email:           "late@example.com",
		Role:            enums.UserRoleUser,
		Token:           "tok-late",
		InvitedByUserID: 1,
		ExpiresAt:       time.Now().UTC().Add(-time.Hour),
	}
	if err := invitations.NewRepository(conn).Create(context.Background(), invitation); err != nil {
		t.Fatalf("seed invitation: %v", err)
	}

	token := "tok-late"
	_, err := svc.Register(context.Background(), RegisterRequest{
		FirstName: "Lee",
		LastName:  "Late",
		Email:     "late@example.com",
		Password:  "Secret123!",
		Token:     &token,
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	var count int64
	if err := conn.Model(&models.User{}).Count(&count).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no users to be created, got %d", count)
	}
}

func TestRegisterTokenEmailMismatchRejected(t *testing.T) {
	conn := newRegisterTestDB(t)
	svc := newTestRegisterService(t, conn)

	invitation := &models.UserInvitation{
		Email:           "right@example.com",
		Role:            enums.UserRoleUser,
		Token:           "tok-mismatch",
		InvitedByUserID: 1,
		ExpiresAt:       time.Now().UTC().Add(time.Hour),
	}
	if err := invitations.NewRepository(conn).Create(context.Background(), invitation); err != nil {
		t.Fatalf("seed invitation: %v", err)
	}

	token := "tok-mismatch"
	_, err := svc.Register(context.Background(), RegisterRequest{
		FirstName: "Wrong",
		LastName:  "Email",
		Email:     "wrong@example.com",
		Password:  "Secret123!",
		Token:     &token,
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
