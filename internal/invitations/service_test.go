package invitations

import (
	"context"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/olivergrant/ibts-backend/internal/notifier"
	"github.com/olivergrant/ibts-backend/internal/users"
	"github.com/olivergrant/ibts-backend/pkg/config"
	"github.com/olivergrant/ibts-backend/pkg/db"
	"github.com/olivergrant/ibts-backend/pkg/db/models"
	"github.com/olivergrant/ibts-backend/pkg/enums"
	pkgerrors "github.com/olivergrant/ibts-backend/pkg/errors"
	"github.com/olivergrant/ibts-backend/pkg/outbox"
)

type inviteTestSetup struct {
	conn    *gorm.DB
	service Service
	admin   *models.User
}

func newInviteTestSetup(t *testing.T) *inviteTestSetup {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file:invitesvc?mode=memory&cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.User{}, &models.UserInvitation{}, &models.NotificationOutbox{}); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	for _, table := range []string{"notification_outbox", "user_invitations", "users"} {
		if err := conn.Exec("DELETE FROM " + table).Error; err != nil {
			t.Fatalf("clean table %s: %v", table, err)
		}
	}

	admin, err := users.NewRepository(conn).Create(context.Background(), users.CreateUserDTO{
		Email:        "admin@example.com",
		PasswordHash: "x",
		FirstName:    "Avery",
		LastName:     "Adams",
		Role:         enums.UserRoleAdmin,
	})
	if err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	producer, err := notifier.NewProducer(notifier.ProducerParams{
		Store:   outbox.NewRepository(),
		BaseURL: "http://localhost:3000",
	})
	if err != nil {
		t.Fatalf("new producer: %v", err)
	}

	svc, err := NewService(ServiceParams{
		DB:       db.NewWithConn(conn),
		Producer: producer,
		Config: config.NotifyConfig{
			BaseURL:          "http://localhost:3000",
			InvitationExpiry: 7 * 24 * time.Hour,
		},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	return &inviteTestSetup{conn: conn, service: svc, admin: admin}
}

func TestInviteCreatesInvitationAndQueuesNotification(t *testing.T) {
	setup := newInviteTestSetup(t)

	dto, err := setup.service.Invite(context.Background(), setup.admin.ID, InviteRequest{
		Email: "New.Hire@Example.com",
		Role:  enums.UserRoleUser,
	})
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	if dto.Email != "new.hire@example.com" {
		t.Fatalf("expected normalized email, got %s", dto.Email)
	}
	if dto.Token == "" {
		t.Fatal("expected the raw token to be returned to the inviter")
	}

	var records []models.NotificationOutbox
	if err := setup.conn.Find(&records).Error; err != nil {
		t.Fatalf("load outbox records: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 outbox record, got %d", len(records))
	}
	if records[0].NotificationType != enums.NotificationTypeInvitation {
		t.Fatalf("unexpected notification type %s", records[0].NotificationType)
	}
	if records[0].RecipientEmail != "new.hire@example.com" {
		t.Fatalf("unexpected recipient %s", records[0].RecipientEmail)
	}
	if records[0].RelatedIncidentID != nil {
		t.Fatal("invitation notifications should not reference an incident")
	}
}

func TestInviteExistingUserRejected(t *testing.T) {
	setup := newInviteTestSetup(t)

	_, err := setup.service.Invite(context.Background(), setup.admin.ID, InviteRequest{
		Email: "admin@example.com",
		Role:  enums.UserRoleUser,
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestInviteDuplicatePendingInvitationRejected(t *testing.T) {
	setup := newInviteTestSetup(t)

	if _, err := setup.service.Invite(context.Background(), setup.admin.ID, InviteRequest{
		Email: "pending@example.com",
		Role:  enums.UserRoleUser,
	}); err != nil {
		t.Fatalf("first invite: %v", err)
	}

	_, err := setup.service.Invite(context.Background(), setup.admin.ID, InviteRequest{
		Email: "pending@example.com",
		Role:  enums.UserRoleUser,
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}

	var count int64
	if err := setup.conn.Model(&models.UserInvitation{}).Count(&count).Error; err != nil {
		t.Fatalf("count invitations: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single invitation, got %d", count)
	}
}

func TestInviteInvalidRoleRejected(t *testing.T) {
	setup := newInviteTestSetup(t)

	_, err := setup.service.Invite(context.Background(), setup.admin.ID, InviteRequest{
		Email: "someone@example.com",
		Role:  enums.UserRole("superuser"),
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeleteExpiredBeforePrunesOnlyExpiredUnaccepted(t *testing.T) {
	setup := newInviteTestSetup(t)
	repo := NewRepository(setup.conn)
	now := time.Now().UTC()

	accepted := now.Add(-time.Hour)
	seeds := []*models.UserInvitation{
		{Email: "old@example.com", Role: enums.UserRoleUser, Token: "t1", InvitedByUserID: setup.admin.ID, ExpiresAt: now.Add(-48 * time.Hour)},
		{Email: "used@example.com", Role: enums.UserRoleUser, Token: "t2", InvitedByUserID: setup.admin.ID, ExpiresAt: now.Add(-48 * time.Hour), AcceptedAt: &accepted},
		{Email: "live@example.com", Role: enums.UserRoleUser, Token: "t3", InvitedByUserID: setup.admin.ID, ExpiresAt: now.Add(48 * time.Hour)},
	}
	for _, inv := range seeds {
		if err := repo.Create(context.Background(), inv); err != nil {
			t.Fatalf("seed invitation: %v", err)
		}
	}

	removed, err := repo.DeleteExpiredBefore(context.Background(), now)
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 invitation removed, got %d", removed)
	}

	var remaining int64
	if err := setup.conn.Model(&models.UserInvitation{}).Count(&remaining).Error; err != nil {
		t.Fatalf("count invitations: %v", err)
	}
	if remaining != 2 {
		t.Fatalf("expected 2 invitations to remain, got %d", remaining)
	}
}
