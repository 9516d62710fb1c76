package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"worldgraph-backend/internal/service/explore"
	"worldgraph-backend/pkg/errors"
)

// EventsHandler serves event-centered graph queries.
type EventsHandler struct {
	explore *explore.Service
	logger  *zap.Logger
}

// NewEventsHandler creates an events handler.
func NewEventsHandler(exploreSvc *explore.Service, logger *zap.Logger) *EventsHandler {
	return &EventsHandler{explore: exploreSvc, logger: logger}
}

// Neighborhood handles GET /events/{id}/neighborhood
func (h *EventsHandler) Neighborhood(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "id")

	limitPeople, err := queryInt(r, "limitPeople", 60)
	if err != nil {
		errors.WriteHTTP(w, h.logger, err)
		return
	}
	limitEvents, err := queryInt(r, "limitEvents", 25)
	if err != nil {
		errors.WriteHTTP(w, h.logger, err)
		return
	}

	graph, err := h.explore.EventNeighborhood(r.Context(), eventID, explore.NeighborhoodOptions{
		IncludePending: queryBool(r, "includePending", false),
		LimitEvents:    limitEvents,
		LimitPeople:    limitPeople,
	})
	if err != nil {
		errors.WriteHTTP(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, graph)
}
