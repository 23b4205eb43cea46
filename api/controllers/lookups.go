package controllers

import (
	"net/http"

	"github.com/olivergrant/ibts-backend/api/responses"
	"github.com/olivergrant/ibts-backend/pkg/enums"
)

type lookupOption struct {
	Value   string `json:"value"`
	Display string `json:"display"`
}

// LookupIncidentStatuses lists the status values for UI dropdowns.
func LookupIncidentStatuses() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		options := make([]lookupOption, 0, len(enums.IncidentStatuses()))
		for _, status := range enums.IncidentStatuses() {
			options = append(options, lookupOption{Value: string(status), Display: status.DisplayName()})
		}
		responses.WriteSuccess(w, map[string]any{"statuses": options})
	}
}

// LookupIncidentPriorities lists the priority values for UI dropdowns.
func LookupIncidentPriorities() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		options := make([]lookupOption, 0, len(enums.IncidentPriorities()))
		for _, priority := range enums.IncidentPriorities() {
			options = append(options, lookupOption{Value: string(priority), Display: priority.DisplayName()})
		}
		responses.WriteSuccess(w, map[string]any{"priorities": options})
	}
}
