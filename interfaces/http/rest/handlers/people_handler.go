package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"worldgraph-backend/internal/service/explore"
	"worldgraph-backend/pkg/errors"
)

// PeopleHandler serves person-centered graph queries.
type PeopleHandler struct {
	explore *explore.Service
	logger  *zap.Logger
}

// NewPeopleHandler creates a people handler.
func NewPeopleHandler(exploreSvc *explore.Service, logger *zap.Logger) *PeopleHandler {
	return &PeopleHandler{explore: exploreSvc, logger: logger}
}

// ProfileGraph handles GET /people/{id}/graph
func (h *PeopleHandler) ProfileGraph(w http.ResponseWriter, r *http.Request) {
	personID := chi.URLParam(r, "id")

	limitEvents, err := queryInt(r, "limitEvents", 50)
	if err != nil {
		errors.WriteHTTP(w, h.logger, err)
		return
	}
	minScore, err := queryIntPtr(r, "minScore")
	if err != nil {
		errors.WriteHTTP(w, h.logger, err)
		return
	}
	startYear, err := queryIntPtr(r, "startYear")
	if err != nil {
		errors.WriteHTTP(w, h.logger, err)
		return
	}
	endYear, err := queryIntPtr(r, "endYear")
	if err != nil {
		errors.WriteHTTP(w, h.logger, err)
		return
	}

	result, err := h.explore.ProfileGraph(r.Context(), personID, explore.ProfileOptions{
		IncludePending: queryBool(r, "includePending", false),
		MinScore:       minScore,
		StartYear:      startYear,
		EndYear:        endYear,
		LimitEvents:    limitEvents,
	})
	if err != nil {
		errors.WriteHTTP(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, result)
}

// Neighborhood handles GET /people/{id}/neighborhood
func (h *PeopleHandler) Neighborhood(w http.ResponseWriter, r *http.Request) {
	personID := chi.URLParam(r, "id")

	limitEvents, err := queryInt(r, "limitEvents", 25)
	if err != nil {
		errors.WriteHTTP(w, h.logger, err)
		return
	}
	limitPeople, err := queryInt(r, "limitPeople", 50)
	if err != nil {
		errors.WriteHTTP(w, h.logger, err)
		return
	}

	graph, err := h.explore.PersonNeighborhood(r.Context(), personID, explore.NeighborhoodOptions{
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

// Connections handles GET /people/{id}/connections
func (h *PeopleHandler) Connections(w http.ResponseWriter, r *http.Request) {
	personID := chi.URLParam(r, "id")

	limit, err := queryInt(r, "limitPeople", 50)
	if err != nil {
		errors.WriteHTTP(w, h.logger, err)
		return
	}

	results, err := h.explore.Connections(r.Context(), personID, explore.ConnectionOptions{
		IncludePending: queryBool(r, "includePending", false),
		Limit:          limit,
	})
	if err != nil {
		errors.WriteHTTP(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"results": results})
}

// WhyConnected handles GET /people/{aID}/why/{bID}
func (h *PeopleHandler) WhyConnected(w http.ResponseWriter, r *http.Request) {
	aID := chi.URLParam(r, "aID")
	bID := chi.URLParam(r, "bID")

	limit, err := queryInt(r, "limitEvents", 20)
	if err != nil {
		errors.WriteHTTP(w, h.logger, err)
		return
	}

	results, err := h.explore.WhyConnected(r.Context(), aID, bID, explore.ConnectionOptions{
		IncludePending: queryBool(r, "includePending", false),
		Limit:          limit,
	})
	if err != nil {
		errors.WriteHTTP(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"results": results})
}

// SharedEvents handles GET /people/{aID}/shared-events/{bID}
func (h *PeopleHandler) SharedEvents(w http.ResponseWriter, r *http.Request) {
	aID := chi.URLParam(r, "aID")
	bID := chi.URLParam(r, "bID")

	limit, err := queryInt(r, "limit", 10)
	if err != nil {
		errors.WriteHTTP(w, h.logger, err)
		return
	}

	results, err := h.explore.SharedEvents(r.Context(), aID, bID, explore.ConnectionOptions{
		IncludePending: queryBool(r, "includePending", false),
		Limit:          limit,
	})
	if err != nil {
		errors.WriteHTTP(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"results": results})
}
