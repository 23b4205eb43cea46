package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/olivergrant/ibts-backend/api/middleware"
	"github.com/olivergrant/ibts-backend/api/responses"
	"github.com/olivergrant/ibts-backend/api/validators"
	"github.com/olivergrant/ibts-backend/internal/incidents"
	"github.com/olivergrant/ibts-backend/pkg/enums"
	pkgerrors "github.com/olivergrant/ibts-backend/pkg/errors"
	"github.com/olivergrant/ibts-backend/pkg/logger"
)

func parseIDParam(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid "+name)
	}
	return id, nil
}

// IncidentCreate opens a new incident on behalf of the authenticated user.
func IncidentCreate(svc incidents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "incidents service unavailable"))
			return
		}

		var body incidents.CreateIncidentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actorID := middleware.UserIDFromContext(r.Context())
		result, err := svc.Create(r.Context(), actorID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// IncidentList returns a filtered, cursor-paginated page of incidents.
func IncidentList(svc incidents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "incidents service unavailable"))
			return
		}

		params := incidents.ListParams{
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params.Limit = limit

		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseIncidentStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter"))
				return
			}
			params.Status = &status
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("priority")); raw != "" {
			priority, err := enums.ParseIncidentPriority(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid priority filter"))
				return
			}
			params.Priority = &priority
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("assigned_to")); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid assigned_to filter"))
				return
			}
			params.AssignedToUserID = &id
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("created_by")); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid created_by filter"))
				return
			}
			params.CreatedByUserID = &id
		}

		result, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// IncidentGet returns a single incident with its relations.
func IncidentGet(svc incidents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "incidents service unavailable"))
			return
		}

		id, err := parseIDParam(r, "incidentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// IncidentUpdate applies partial changes, including guarded status moves.
func IncidentUpdate(svc incidents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "incidents service unavailable"))
			return
		}

		id, err := parseIDParam(r, "incidentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body incidents.UpdateIncidentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actorID := middleware.UserIDFromContext(r.Context())
		result, err := svc.Update(r.Context(), actorID, id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// IncidentDelete removes an incident and its notes.
func IncidentDelete(svc incidents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "incidents service unavailable"))
			return
		}

		id, err := parseIDParam(r, "incidentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}
