package notifier

import (
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/olivergrant/ibts-backend/pkg/db/models"
	"github.com/olivergrant/ibts-backend/pkg/enums"
)

type fakeOutboxStore struct {
	inserted []models.NotificationOutbox
	err      error
}

func (f *fakeOutboxStore) Insert(tx *gorm.DB, record *models.NotificationOutbox) error {
	if f.err != nil {
		return f.err
	}
	f.inserted = append(f.inserted, *record)
	return nil
}

func newTestProducer(t *testing.T, store *fakeOutboxStore) *Producer {
	t.Helper()
	now := time.Date(2026, 4, 2, 10, 30, 0, 0, time.UTC)
	producer, err := NewProducer(ProducerParams{
		Store:   store,
		BaseURL: "https://ibts.example.com",
		Now:     func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("new producer: %v", err)
	}
	return producer
}

func TestQueueAssignment(t *testing.T) {
	store := &fakeOutboxStore{}
	producer := newTestProducer(t, store)

	incident := models.Incident{ID: 12, Title: "Printer on fire", Description: "Third floor"}
	assignee := models.User{ID: 3, Email: "assignee@example.com", FirstName: "Dana", LastName: "Reyes"}

	if err := producer.QueueAssignment(nil, incident, assignee); err != nil {
		t.Fatalf("queue assignment: %v", err)
	}

	if len(store.inserted) != 1 {
		t.Fatalf("expected 1 record, got %d", len(store.inserted))
	}
	record := store.inserted[0]
	if record.NotificationType != enums.NotificationTypeAssignment {
		t.Fatalf("unexpected type %s", record.NotificationType)
	}
	if record.RecipientEmail != "assignee@example.com" {
		t.Fatalf("unexpected recipient %s", record.RecipientEmail)
	}
	if record.Subject != "You have been assigned to incident: Printer on fire" {
		t.Fatalf("unexpected subject %q", record.Subject)
	}
	if !strings.Contains(record.Body, "https://ibts.example.com/incidents/12") {
		t.Fatalf("body missing incident link: %s", record.Body)
	}
	if record.RelatedIncidentID == nil || *record.RelatedIncidentID != 12 {
		t.Fatalf("related incident id not set")
	}
	if record.ProcessedAt != nil || record.FailedAt != nil || record.RetryCount != 0 {
		t.Fatalf("new record must start pending")
	}
	if !record.CreatedAt.Equal(time.Date(2026, 4, 2, 10, 30, 0, 0, time.UTC)) {
		t.Fatalf("created_at should come from the injected clock, got %v", record.CreatedAt)
	}
}

func TestQueueStatusChangeRecipientRules(t *testing.T) {
	creator := models.User{ID: 1, Email: "creator@example.com", FirstName: "Ana", LastName: "Ibarra"}
	changedBy := models.User{ID: 2, FirstName: "Luis", LastName: "Marin"}

	t.Run("notifies creator", func(t *testing.T) {
		store := &fakeOutboxStore{}
		producer := newTestProducer(t, store)
		incident := models.Incident{ID: 5, Title: "VPN down", CreatedBy: &creator}

		err := producer.QueueStatusChange(nil, incident, enums.IncidentStatusOpen, enums.IncidentStatusInProgress, changedBy)
		if err != nil {
			t.Fatalf("queue status change: %v", err)
		}
		if len(store.inserted) != 1 {
			t.Fatalf("expected 1 record, got %d", len(store.inserted))
		}
		record := store.inserted[0]
		if record.RecipientEmail != "creator@example.com" {
			t.Fatalf("unexpected recipient %s", record.RecipientEmail)
		}
		if !strings.Contains(record.Body, "Open") || !strings.Contains(record.Body, "In Progress") {
			t.Fatalf("body missing status display names: %s", record.Body)
		}
		if !strings.Contains(record.Body, "Luis Marin") {
			t.Fatalf("body missing actor name")
		}
	})

	t.Run("silent when creator not loaded", func(t *testing.T) {
		store := &fakeOutboxStore{}
		producer := newTestProducer(t, store)
		incident := models.Incident{ID: 5, Title: "VPN down"}

		err := producer.QueueStatusChange(nil, incident, enums.IncidentStatusOpen, enums.IncidentStatusClosed, changedBy)
		if err != nil {
			t.Fatalf("expected silent no-op, got %v", err)
		}
		if len(store.inserted) != 0 {
			t.Fatalf("expected no records, got %d", len(store.inserted))
		}
	})

	t.Run("silent when creator has no email", func(t *testing.T) {
		store := &fakeOutboxStore{}
		producer := newTestProducer(t, store)
		noEmail := creator
		noEmail.Email = ""
		incident := models.Incident{ID: 5, Title: "VPN down", CreatedBy: &noEmail}

		err := producer.QueueStatusChange(nil, incident, enums.IncidentStatusOpen, enums.IncidentStatusClosed, changedBy)
		if err != nil {
			t.Fatalf("expected silent no-op, got %v", err)
		}
		if len(store.inserted) != 0 {
			t.Fatalf("expected no records, got %d", len(store.inserted))
		}
	})
}

func TestQueuePriorityChange(t *testing.T) {
	store := &fakeOutboxStore{}
	producer := newTestProducer(t, store)
	creator := models.User{ID: 1, Email: "creator@example.com"}
	incident := models.Incident{ID: 9, Title: "Disk filling", CreatedBy: &creator}
	changedBy := models.User{ID: 4, FirstName: "Omar", LastName: "Velez"}

	err := producer.QueuePriorityChange(nil, incident, enums.IncidentPriorityLow, enums.IncidentPriorityCritical, changedBy)
	if err != nil {
		t.Fatalf("queue priority change: %v", err)
	}
	if len(store.inserted) != 1 {
		t.Fatalf("expected 1 record, got %d", len(store.inserted))
	}
	record := store.inserted[0]
	if record.Subject != "Incident priority changed: Disk filling" {
		t.Fatalf("unexpected subject %q", record.Subject)
	}
	if !strings.Contains(record.Body, "Low") || !strings.Contains(record.Body, "Critical") {
		t.Fatalf("body missing priority display names")
	}
}

func TestQueueNoteAddedSkipsSelfNotification(t *testing.T) {
	store := &fakeOutboxStore{}
	producer := newTestProducer(t, store)
	creator := models.User{ID: 1, Email: "creator@example.com"}
	incident := models.Incident{ID: 3, Title: "Broken badge reader"}

	if err := producer.QueueNoteAdded(nil, incident, creator, creator); err != nil {
		t.Fatalf("queue note added: %v", err)
	}
	if len(store.inserted) != 0 {
		t.Fatalf("author commenting on own incident must not notify")
	}

	author := models.User{ID: 2, FirstName: "Sam", LastName: "Ortiz"}
	if err := producer.QueueNoteAdded(nil, incident, author, creator); err != nil {
		t.Fatalf("queue note added: %v", err)
	}
	if len(store.inserted) != 1 {
		t.Fatalf("expected 1 record, got %d", len(store.inserted))
	}
	if store.inserted[0].RecipientEmail != "creator@example.com" {
		t.Fatalf("unexpected recipient %s", store.inserted[0].RecipientEmail)
	}
}

func TestQueueInvitation(t *testing.T) {
	store := &fakeOutboxStore{}
	producer := newTestProducer(t, store)
	expires := time.Date(2026, 4, 9, 10, 30, 0, 0, time.UTC)

	err := producer.QueueInvitation(nil, "new.hire@example.com", "Ana", "Ibarra", enums.UserRoleUser, "tok-123", expires)
	if err != nil {
		t.Fatalf("queue invitation: %v", err)
	}

	if len(store.inserted) != 1 {
		t.Fatalf("expected 1 record, got %d", len(store.inserted))
	}
	record := store.inserted[0]
	if record.NotificationType != enums.NotificationTypeInvitation {
		t.Fatalf("unexpected type %s", record.NotificationType)
	}
	if record.Subject != "You've been invited to join IBTS" {
		t.Fatalf("unexpected subject %q", record.Subject)
	}
	if !strings.Contains(record.Body, "https://ibts.example.com/register?token=tok-123") {
		t.Fatalf("body missing registration link: %s", record.Body)
	}
	if record.RelatedIncidentID != nil {
		t.Fatalf("invitation must not reference an incident")
	}
}
