package notes

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/olivergrant/ibts-backend/internal/incidents"
	"github.com/olivergrant/ibts-backend/internal/notifier"
	"github.com/olivergrant/ibts-backend/internal/users"
	"github.com/olivergrant/ibts-backend/pkg/db"
	"github.com/olivergrant/ibts-backend/pkg/db/models"
	"github.com/olivergrant/ibts-backend/pkg/enums"
	pkgerrors "github.com/olivergrant/ibts-backend/pkg/errors"
	"github.com/olivergrant/ibts-backend/pkg/outbox"
)

type noteTestSetup struct {
	conn      *gorm.DB
	service   Service
	creator   *models.User
	commenter *models.User
	incident  *models.Incident
}

func newNoteTestSetup(t *testing.T) *noteTestSetup {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file:notesvc?mode=memory&cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.User{}, &models.Incident{}, &models.IncidentNote{}, &models.NotificationOutbox{}); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	for _, table := range []string{"notification_outbox", "incident_notes", "incidents", "users"} {
		if err := conn.Exec("DELETE FROM " + table).Error; err != nil {
			t.Fatalf("clean table %s: %v", table, err)
		}
	}

	userRepo := users.NewRepository(conn)
	creator, err := userRepo.Create(context.Background(), users.CreateUserDTO{
		Email:        "creator@example.com",
		PasswordHash: "x",
		FirstName:    "Casey",
		LastName:     "Nguyen",
	})
	if err != nil {
		t.Fatalf("seed creator: %v", err)
	}
	commenter, err := userRepo.Create(context.Background(), users.CreateUserDTO{
		Email:        "commenter@example.com",
		PasswordHash: "x",
		FirstName:    "Sam",
		LastName:     "Reyes",
	})
	if err != nil {
		t.Fatalf("seed commenter: %v", err)
	}

	incident := &models.Incident{
		Title:           "Search indexing stalled",
		Status:          enums.IncidentStatusOpen,
		Priority:        enums.IncidentPriorityMedium,
		CreatedByUserID: creator.ID,
	}
	if err := conn.Create(incident).Error; err != nil {
		t.Fatalf("seed incident: %v", err)
	}

	producer, err := notifier.NewProducer(notifier.ProducerParams{
		Store:   outbox.NewRepository(),
		BaseURL: "http://localhost:3000",
	})
	if err != nil {
		t.Fatalf("new producer: %v", err)
	}

	svc, err := NewService(ServiceParams{
		DB:            db.NewWithConn(conn),
		IncidentsRepo: incidents.NewRepository(conn),
		Producer:      producer,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	return &noteTestSetup{
		conn:      conn,
		service:   svc,
		creator:   creator,
		commenter: commenter,
		incident:  incident,
	}
}

func TestCreateNoteQueuesNotificationForIncidentCreator(t *testing.T) {
	setup := newNoteTestSetup(t)

	note, err := setup.service.Create(context.Background(), setup.commenter.ID, setup.incident.ID, CreateNoteRequest{
		Body: "Checked the index queue, backlog is draining now.",
	})
	if err != nil {
		t.Fatalf("create note: %v", err)
	}
	if note.Author == nil || note.Author.ID != setup.commenter.ID {
		t.Fatal("expected the note author to be returned")
	}

	var records []models.NotificationOutbox
	if err := setup.conn.Find(&records).Error; err != nil {
		t.Fatalf("load outbox records: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 outbox record, got %d", len(records))
	}
	if records[0].NotificationType != enums.NotificationTypeNoteAdded {
		t.Fatalf("unexpected notification type %s", records[0].NotificationType)
	}
	if records[0].RecipientEmail != setup.creator.Email {
		t.Fatalf("expected recipient %s, got %s", setup.creator.Email, records[0].RecipientEmail)
	}
}

func TestCreateNoteByCreatorQueuesNothing(t *testing.T) {
	setup := newNoteTestSetup(t)

	if _, err := setup.service.Create(context.Background(), setup.creator.ID, setup.incident.ID, CreateNoteRequest{
		Body: "Adding context for the on-call handoff.",
	}); err != nil {
		t.Fatalf("create note: %v", err)
	}

	var count int64
	if err := setup.conn.Model(&models.NotificationOutbox{}).Count(&count).Error; err != nil {
		t.Fatalf("count outbox records: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no outbox records for a self-note, got %d", count)
	}
}

func TestCreateNoteOnMissingIncidentFails(t *testing.T) {
	setup := newNoteTestSetup(t)

	_, err := setup.service.Create(context.Background(), setup.commenter.ID, 424242, CreateNoteRequest{
		Body: "Orphan note.",
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListByIncidentReturnsNotesOldestFirst(t *testing.T) {
	setup := newNoteTestSetup(t)

	bodies := []string{"first", "second", "third"}
	for _, body := range bodies {
		if _, err := setup.service.Create(context.Background(), setup.creator.ID, setup.incident.ID, CreateNoteRequest{
			Body: body,
		}); err != nil {
			t.Fatalf("create note %q: %v", body, err)
		}
	}

	notes, err := setup.service.ListByIncident(context.Background(), setup.incident.ID)
	if err != nil {
		t.Fatalf("list notes: %v", err)
	}
	if len(notes) != len(bodies) {
		t.Fatalf("expected %d notes, got %d", len(bodies), len(notes))
	}
	for i, body := range bodies {
		if notes[i].Body != body {
			t.Fatalf("expected note %d to be %q, got %q", i, body, notes[i].Body)
		}
	}
}
