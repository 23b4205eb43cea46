package controllers

import (
	"net/http"

	"github.com/olivergrant/ibts-backend/api/middleware"
	"github.com/olivergrant/ibts-backend/api/responses"
	"github.com/olivergrant/ibts-backend/api/validators"
	"github.com/olivergrant/ibts-backend/internal/notes"
	pkgerrors "github.com/olivergrant/ibts-backend/pkg/errors"
	"github.com/olivergrant/ibts-backend/pkg/logger"
)

// IncidentNoteCreate adds a note to an incident.
func IncidentNoteCreate(svc notes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notes service unavailable"))
			return
		}

		incidentID, err := parseIDParam(r, "incidentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body notes.CreateNoteRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actorID := middleware.UserIDFromContext(r.Context())
		result, err := svc.Create(r.Context(), actorID, incidentID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// IncidentNotesList returns the notes for an incident, oldest first.
func IncidentNotesList(svc notes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notes service unavailable"))
			return
		}

		incidentID, err := parseIDParam(r, "incidentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListByIncident(r.Context(), incidentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"notes": result})
	}
}
