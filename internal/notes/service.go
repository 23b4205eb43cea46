package notes

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/olivergrant/ibts-backend/internal/incidents"
	"github.com/olivergrant/ibts-backend/internal/users"
	"github.com/olivergrant/ibts-backend/pkg/db"
	"github.com/olivergrant/ibts-backend/pkg/db/models"
	pkgerrors "github.com/olivergrant/ibts-backend/pkg/errors"
)

// Service defines the behavior needed by the notes controller.
type Service interface {
	Create(ctx context.Context, actorID, incidentID int64, req CreateNoteRequest) (*NoteDTO, error)
	ListByIncident(ctx context.Context, incidentID int64) ([]NoteDTO, error)
}

type producer interface {
	QueueNoteAdded(tx *gorm.DB, incident models.Incident, author, creator models.User) error
}

// ServiceParams bundles the dependencies required to build the notes service.
type ServiceParams struct {
	DB            *db.Client
	IncidentsRepo incidents.Repository
	Producer      producer
}

type service struct {
	db        *db.Client
	incidents incidents.Repository
	producer  producer
}

// NewService constructs a notes service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "database client required")
	}
	if params.IncidentsRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "incidents repository required")
	}
	if params.Producer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notification producer required")
	}
	return &service{
		db:        params.DB,
		incidents: params.IncidentsRepo,
		producer:  params.Producer,
	}, nil
}

func (s *service) Create(ctx context.Context, actorID, incidentID int64, req CreateNoteRequest) (*NoteDTO, error) {
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "body is required")
	}

	note := &models.IncidentNote{
		IncidentID:   incidentID,
		AuthorUserID: actorID,
		Body:         body,
	}

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		incident, err := s.incidents.WithTx(tx).FindByID(ctx, incidentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "incident not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load incident")
		}

		userRepo := users.NewRepository(tx)
		author, err := userRepo.FindByID(ctx, actorID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load author")
		}

		if err := NewRepository(tx).Create(ctx, note); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create note")
		}

		creator := incident.CreatedBy
		if creator == nil {
			loaded, err := userRepo.FindByID(ctx, incident.CreatedByUserID)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load incident creator")
			}
			creator = loaded
		}
		if creator != nil {
			if err := s.producer.QueueNoteAdded(tx, *incident, *author, *creator); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queue note notification")
			}
		}

		note.Author = author
		return nil
	})
	if err != nil {
		return nil, err
	}

	return FromModel(note), nil
}

func (s *service) ListByIncident(ctx context.Context, incidentID int64) ([]NoteDTO, error) {
	if _, err := s.incidents.FindByID(ctx, incidentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "incident not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load incident")
	}

	rows, err := NewRepository(s.db.DB()).ListByIncident(ctx, incidentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list notes")
	}
	out := make([]NoteDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}
