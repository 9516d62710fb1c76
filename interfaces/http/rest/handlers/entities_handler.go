package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"worldgraph-backend/internal/service/enrich"
	"worldgraph-backend/pkg/errors"
)

// EntitiesHandler serves the strict entity detail lookup.
type EntitiesHandler struct {
	enrich *enrich.Service
	logger *zap.Logger
}

// NewEntitiesHandler creates an entities handler.
func NewEntitiesHandler(enrichSvc *enrich.Service, logger *zap.Logger) *EntitiesHandler {
	return &EntitiesHandler{enrich: enrichSvc, logger: logger}
}

// Details handles GET /entity/{id}/details
func (h *EntitiesHandler) Details(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		errors.WriteHTTP(w, h.logger, errors.NewValidationError("entity id is required"))
		return
	}

	details, err := h.enrich.EntityDetails(r.Context(), id)
	if err != nil {
		errors.WriteHTTP(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, details)
}
