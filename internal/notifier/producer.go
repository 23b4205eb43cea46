package notifier

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/olivergrant/ibts-backend/pkg/db/models"
	"github.com/olivergrant/ibts-backend/pkg/enums"
	pkgerrors "github.com/olivergrant/ibts-backend/pkg/errors"
)

// OutboxStore is the slice of the outbox repository the producer needs.
type OutboxStore interface {
	Insert(tx *gorm.DB, record *models.NotificationOutbox) error
}

// Producer renders notification payloads and enqueues them on the outbox.
// Every Queue method takes the caller's transaction so the enqueue commits
// or rolls back with the business change that triggered it. The producer
// never sends anything itself.
type Producer struct {
	store   OutboxStore
	baseURL string
	now     func() time.Time
}

// ProducerParams wires Producer dependencies.
type ProducerParams struct {
	Store   OutboxStore
	BaseURL string
	Now     func() time.Time
}

// NewProducer validates and builds a Producer.
func NewProducer(params ProducerParams) (*Producer, error) {
	if params.Store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox store required")
	}
	if params.BaseURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notification base url required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &Producer{
		store:   params.Store,
		baseURL: params.BaseURL,
		now:     params.Now,
	}, nil
}

func (p *Producer) incidentLink(incidentID int64) string {
	return fmt.Sprintf("%s/incidents/%d", p.baseURL, incidentID)
}

func (p *Producer) enqueue(tx *gorm.DB, record models.NotificationOutbox) error {
	record.CreatedAt = p.now().UTC()
	if err := p.store.Insert(tx, &record); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "enqueue notification")
	}
	return nil
}

// QueueAssignment notifies the newly assigned user.
func (p *Producer) QueueAssignment(tx *gorm.DB, incident models.Incident, assignee models.User) error {
	body, err := renderIncidentBody(
		"Incident Assignment",
		"You have been assigned to the following incident:",
		p.incidentLink(incident.ID),
		[]detailRow{
			{Label: "Title", Value: incident.Title},
			{Label: "Description", Value: incident.Description},
		},
	)
	if err != nil {
		return err
	}

	return p.enqueue(tx, models.NotificationOutbox{
		NotificationType:  enums.NotificationTypeAssignment,
		RecipientEmail:    assignee.Email,
		Subject:           "You have been assigned to incident: " + incident.Title,
		Body:              body,
		RelatedIncidentID: &incident.ID,
	})
}

// QueueStatusChange notifies the incident creator. When the creator is not
// loaded or has no email the change simply produces no notification.
func (p *Producer) QueueStatusChange(tx *gorm.DB, incident models.Incident, oldStatus, newStatus enums.IncidentStatus, changedBy models.User) error {
	if incident.CreatedBy == nil || incident.CreatedBy.Email == "" {
		return nil
	}

	body, err := renderIncidentBody(
		"Incident Status Changed",
		"The status of the following incident has been updated:",
		p.incidentLink(incident.ID),
		[]detailRow{
			{Label: "Title", Value: incident.Title},
			{Label: "Old Status", Value: oldStatus.DisplayName()},
			{Label: "New Status", Value: newStatus.DisplayName()},
			{Label: "Changed By", Value: changedBy.FullName()},
		},
	)
	if err != nil {
		return err
	}

	return p.enqueue(tx, models.NotificationOutbox{
		NotificationType:  enums.NotificationTypeStatusChange,
		RecipientEmail:    incident.CreatedBy.Email,
		Subject:           "Incident status changed: " + incident.Title,
		Body:              body,
		RelatedIncidentID: &incident.ID,
	})
}

// QueuePriorityChange notifies the incident creator, same recipient rule as
// status changes.
func (p *Producer) QueuePriorityChange(tx *gorm.DB, incident models.Incident, oldPriority, newPriority enums.IncidentPriority, changedBy models.User) error {
	if incident.CreatedBy == nil || incident.CreatedBy.Email == "" {
		return nil
	}

	body, err := renderIncidentBody(
		"Incident Priority Changed",
		"The priority of the following incident has been updated:",
		p.incidentLink(incident.ID),
		[]detailRow{
			{Label: "Title", Value: incident.Title},
			{Label: "Old Priority", Value: oldPriority.DisplayName()},
			{Label: "New Priority", Value: newPriority.DisplayName()},
			{Label: "Changed By", Value: changedBy.FullName()},
		},
	)
	if err != nil {
		return err
	}

	return p.enqueue(tx, models.NotificationOutbox{
		NotificationType:  enums.NotificationTypePriorityChange,
		RecipientEmail:    incident.CreatedBy.Email,
		Subject:           "Incident priority changed: " + incident.Title,
		Body:              body,
		RelatedIncidentID: &incident.ID,
	})
}

// QueueNoteAdded notifies the incident creator about a note from someone
// else. Creators never get notified about their own notes.
func (p *Producer) QueueNoteAdded(tx *gorm.DB, incident models.Incident, author, creator models.User) error {
	if author.ID == creator.ID {
		return nil
	}
	if creator.Email == "" {
		return nil
	}

	body, err := renderIncidentBody(
		"New Note Added",
		"A new note has been added to your incident:",
		p.incidentLink(incident.ID),
		[]detailRow{
			{Label: "Title", Value: incident.Title},
			{Label: "Note Added By", Value: author.FullName()},
		},
	)
	if err != nil {
		return err
	}

	return p.enqueue(tx, models.NotificationOutbox{
		NotificationType:  enums.NotificationTypeNoteAdded,
		RecipientEmail:    creator.Email,
		Subject:           "New note added to incident: " + incident.Title,
		Body:              body,
		RelatedIncidentID: &incident.ID,
	})
}

// QueueInvitation notifies the invited email address with a registration link.
func (p *Producer) QueueInvitation(tx *gorm.DB, recipientEmail, inviterFirst, inviterLast string, role enums.UserRole, token string, expiresAt time.Time) error {
	registrationURL := fmt.Sprintf("%s/register?token=%s", p.baseURL, token)
	body, err := renderInvitationBody(inviterFirst+" "+inviterLast, string(role), registrationURL, expiresAt)
	if err != nil {
		return err
	}

	return p.enqueue(tx, models.NotificationOutbox{
		NotificationType: enums.NotificationTypeInvitation,
		RecipientEmail:   recipientEmail,
		Subject:          "You've been invited to join IBTS",
		Body:             body,
	})
}
