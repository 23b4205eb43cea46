package incidents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/olivergrant/ibts-backend/internal/users"
	"github.com/olivergrant/ibts-backend/pkg/db"
	"github.com/olivergrant/ibts-backend/pkg/db/models"
	"github.com/olivergrant/ibts-backend/pkg/enums"
	pkgerrors "github.com/olivergrant/ibts-backend/pkg/errors"
	"github.com/olivergrant/ibts-backend/pkg/pagination"
)

// ListParams filters and paginates the incident list.
type ListParams struct {
	Status           *enums.IncidentStatus
	Priority         *enums.IncidentPriority
	AssignedToUserID *int64
	CreatedByUserID  *int64
	Limit            int
	Cursor           string
}

// ListResult carries a page of incidents and the cursor for the next page.
type ListResult struct {
	Incidents []IncidentDTO `json:"incidents"`
	Cursor    string        `json:"cursor,omitempty"`
}

// Service defines the behavior needed by the incidents controller.
type Service interface {
	Create(ctx context.Context, actorID int64, req CreateIncidentRequest) (*IncidentDTO, error)
	Get(ctx context.Context, id int64) (*IncidentDTO, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Update(ctx context.Context, actorID, id int64, req UpdateIncidentRequest) (*IncidentDTO, error)
	Delete(ctx context.Context, id int64) error
}

type producer interface {
	QueueAssignment(tx *gorm.DB, incident models.Incident, assignee models.User) error
	QueueStatusChange(tx *gorm.DB, incident models.Incident, oldStatus, newStatus enums.IncidentStatus, changedBy models.User) error
	QueuePriorityChange(tx *gorm.DB, incident models.Incident, oldPriority, newPriority enums.IncidentPriority, changedBy models.User) error
}

// ServiceParams bundles the dependencies required to build the incidents service.
type ServiceParams struct {
	DB       *db.Client
	Repo     Repository
	Producer producer
	Now      func() time.Time
}

type service struct {
	db       *db.Client
	repo     Repository
	producer producer
	now      func() time.Time
}

// NewService constructs an incidents service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "database client required")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "incidents repository required")
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
		repo:     params.Repo,
		producer: params.Producer,
		now:      now,
	}, nil
}

func (s *service) Create(ctx context.Context, actorID int64, req CreateIncidentRequest) (*IncidentDTO, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	priority := req.Priority
	if priority == "" {
		priority = enums.IncidentPriorityMedium
	}
	if !priority.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid priority")
	}

	incident := &models.Incident{
		Title:            title,
		Description:      strings.TrimSpace(req.Description),
		Status:           enums.IncidentStatusOpen,
		Priority:         priority,
		CreatedByUserID:  actorID,
		AssignedToUserID: req.AssignedToUserID,
	}

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		var assignee *models.User
		if req.AssignedToUserID != nil {
			found, err := users.NewRepository(tx).FindByID(ctx, *req.AssignedToUserID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeValidation, "assigned user not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load assignee")
			}
			assignee = found
		}

		if err := s.repo.WithTx(tx).Create(ctx, incident); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create incident")
		}

		if assignee != nil {
			if err := s.producer.QueueAssignment(tx, *incident, *assignee); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queue assignment notification")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, incident.ID)
}

func (s *service) Get(ctx context.Context, id int64) (*IncidentDTO, error) {
	incident, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "incident not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load incident")
	}
	return FromModel(incident), nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	repoParams := listIncidentsParams{
		Status:           params.Status,
		Priority:         params.Priority,
		AssignedToUserID: params.AssignedToUserID,
		CreatedByUserID:  params.CreatedByUserID,
		Limit:            params.Limit,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
		}
		repoParams.Cursor = cursor
	}

	incidents, next, err := s.repo.List(ctx, repoParams)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list incidents")
	}

	result := &ListResult{Incidents: make([]IncidentDTO, 0, len(incidents))}
	for i := range incidents {
		result.Incidents = append(result.Incidents, *FromModel(&incidents[i]))
	}
	if next != nil {
		result.Cursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

func (s *service) Update(ctx context.Context, actorID, id int64, req UpdateIncidentRequest) (*IncidentDTO, error) {
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		incident, err := repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "incident not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load incident")
		}

		oldStatus := incident.Status
		oldPriority := incident.Priority
		oldAssignee := incident.AssignedToUserID

		if req.Status != nil && *req.Status != oldStatus {
			if !req.Status.IsValid() {
				return pkgerrors.New(pkgerrors.CodeValidation, "invalid status")
			}
			if !oldStatus.CanTransitionTo(*req.Status) {
				return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf(
					"cannot change status from %s to %s",
					oldStatus.DisplayName(), req.Status.DisplayName(),
				))
			}
		}
		if req.Priority != nil && !req.Priority.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid priority")
		}

		if req.Title != nil {
			title := strings.TrimSpace(*req.Title)
			if title == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "title is required")
			}
			incident.Title = title
		}
		if req.Description != nil {
			incident.Description = strings.TrimSpace(*req.Description)
		}
		if req.Priority != nil {
			incident.Priority = *req.Priority
		}
		if req.ClearAssignment {
			incident.AssignedToUserID = nil
		} else if req.AssignedToUserID != nil {
			incident.AssignedToUserID = req.AssignedToUserID
		}

		var assignee *models.User
		if incident.AssignedToUserID != nil && (oldAssignee == nil || *oldAssignee != *incident.AssignedToUserID) {
			found, err := users.NewRepository(tx).FindByID(ctx, *incident.AssignedToUserID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeValidation, "assigned user not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load assignee")
			}
			assignee = found
		}

		if req.Status != nil && *req.Status != oldStatus {
			incident.Status = *req.Status
			now := s.now().UTC()
			switch {
			case incident.Status == enums.IncidentStatusClosed:
				incident.ClosedAt = &now
			case oldStatus == enums.IncidentStatusClosed:
				incident.ClosedAt = nil
			}
		}

		if err := repo.Update(ctx, incident); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update incident")
		}

		statusChanged := incident.Status != oldStatus
		priorityChanged := incident.Priority != oldPriority
		if statusChanged || priorityChanged {
			actor, err := users.NewRepository(tx).FindByID(ctx, actorID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load actor")
			}
			if statusChanged {
				if err := s.producer.QueueStatusChange(tx, *incident, oldStatus, incident.Status, *actor); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queue status notification")
				}
			}
			if priorityChanged {
				if err := s.producer.QueuePriorityChange(tx, *incident, oldPriority, incident.Priority, *actor); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queue priority notification")
				}
			}
		}
		if assignee != nil {
			if err := s.producer.QueueAssignment(tx, *incident, *assignee); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queue assignment notification")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id int64) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete incident")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "incident not found")
	}
	return nil
}
