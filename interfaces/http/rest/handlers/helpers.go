// Package handlers contains the HTTP handlers of the REST API. Handlers
// decode and validate requests, delegate to the services, and map service
// errors onto status codes through the shared error writer.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"worldgraph-backend/pkg/errors"
)

func respondJSON(w http.ResponseWriter, logger *zap.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}

// queryBool parses a boolean query parameter, defaulting when absent.
func queryBool(r *http.Request, name string, def bool) bool {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	return raw == "true" || raw == "1" || raw == "yes"
}

// queryInt parses an integer query parameter. A malformed value is a
// validation error rather than a silent fallback so bad requests are
// rejected before any store access.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.NewValidationError(name + " must be an integer")
	}
	return v, nil
}

// queryIntPtr parses an optional integer query parameter.
func queryIntPtr(r *http.Request, name string) (*int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, errors.NewValidationError(name + " must be an integer")
	}
	return &v, nil
}
