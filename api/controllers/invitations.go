package controllers

import (
	"net/http"

	"github.com/olivergrant/ibts-backend/api/middleware"
	"github.com/olivergrant/ibts-backend/api/responses"
	"github.com/olivergrant/ibts-backend/api/validators"
	"github.com/olivergrant/ibts-backend/internal/invitations"
	pkgerrors "github.com/olivergrant/ibts-backend/pkg/errors"
	"github.com/olivergrant/ibts-backend/pkg/logger"
)

// InvitationCreate lets an admin invite a new user by email.
func InvitationCreate(svc invitations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invitations service unavailable"))
			return
		}

		var body invitations.InviteRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		inviterID := middleware.UserIDFromContext(r.Context())
		result, err := svc.Invite(r.Context(), inviterID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// InvitationList returns all invitations, newest first.
func InvitationList(svc invitations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invitations service unavailable"))
			return
		}

		result, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"invitations": result})
	}
}
