package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"worldgraph-backend/internal/domain"
	"worldgraph-backend/internal/service/explore"
	"worldgraph-backend/pkg/errors"
)

// SearchHandler serves entity name search.
type SearchHandler struct {
	explore *explore.Service
	logger  *zap.Logger
}

// NewSearchHandler creates a search handler.
func NewSearchHandler(exploreSvc *explore.Service, logger *zap.Logger) *SearchHandler {
	return &SearchHandler{explore: exploreSvc, logger: logger}
}

// Search handles GET /search?q=...&type=person|event&limit=N
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	kind := domain.EntityKind(r.URL.Query().Get("type"))
	if kind == "" {
		kind = domain.KindPerson
	}

	limit, err := queryInt(r, "limit", 10)
	if err != nil {
		errors.WriteHTTP(w, h.logger, err)
		return
	}

	results, err := h.explore.Search(r.Context(), query, kind, limit)
	if err != nil {
		errors.WriteHTTP(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"results": results})
}
