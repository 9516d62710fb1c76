package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"worldgraph-backend/internal/domain"
	"worldgraph-backend/internal/service/ledger"
	"worldgraph-backend/pkg/auth"
	"worldgraph-backend/pkg/errors"
	"worldgraph-backend/pkg/utils"
)

// ClaimsHandler handles claim mutations: create, evidence, vote.
type ClaimsHandler struct {
	ledger *ledger.Service
	logger *zap.Logger
}

// NewClaimsHandler creates a claims handler.
func NewClaimsHandler(ledgerSvc *ledger.Service, logger *zap.Logger) *ClaimsHandler {
	return &ClaimsHandler{ledger: ledgerSvc, logger: logger}
}

// CreateClaimRequest represents the request body for proposing a claim
type CreateClaimRequest struct {
	PersonID         string `json:"personId" validate:"required,min=1"`
	EventID          string `json:"eventId" validate:"required,min=1"`
	RelationshipType string `json:"relationshipType" validate:"required,min=1"`
}

// AddEvidenceRequest represents the request body for attaching evidence
type AddEvidenceRequest struct {
	SourceType  string `json:"sourceType" validate:"required,oneof=NEWS BOOK PAPER WIKIDATA ARCHIVE OTHER"`
	Title       string `json:"title" validate:"required,min=1"`
	URL         string `json:"url,omitempty" validate:"omitempty,url"`
	Publisher   string `json:"publisher,omitempty"`
	Author      string `json:"author,omitempty"`
	PublishedAt string `json:"publishedAt,omitempty"`
}

// VoteRequest represents the request body for casting a vote
type VoteRequest struct {
	Value int `json:"value" validate:"required,oneof=1 -1"`
}

// claimResponse wraps the materialized claim.
type claimResponse struct {
	Claim *domain.Claim `json:"claim"`
}

// CreateClaim handles POST /claims/person-event
func (h *ClaimsHandler) CreateClaim(w http.ResponseWriter, r *http.Request) {
	var req CreateClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteHTTP(w, h.logger, errors.NewValidationError("invalid request body"))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		errors.WriteHTTP(w, h.logger, errors.NewValidationError(err.Error()))
		return
	}

	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		errors.WriteHTTP(w, h.logger, err)
		return
	}

	claim, err := h.ledger.CreateClaim(r.Context(), req.PersonID, req.EventID, req.RelationshipType, user.UserID)
	if err != nil {
		errors.WriteHTTP(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusCreated, claimResponse{Claim: claim})
}

// AddEvidence handles POST /claims/{claimID}/evidence
func (h *ClaimsHandler) AddEvidence(w http.ResponseWriter, r *http.Request) {
	claimID := chi.URLParam(r, "claimID")
	if claimID == "" {
		errors.WriteHTTP(w, h.logger, errors.NewValidationError("claim id is required"))
		return
	}

	var req AddEvidenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteHTTP(w, h.logger, errors.NewValidationError("invalid request body"))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		errors.WriteHTTP(w, h.logger, errors.NewValidationError(err.Error()))
		return
	}

	var publishedAt *time.Time
	if req.PublishedAt != "" {
		t, err := time.Parse(time.RFC3339, req.PublishedAt)
		if err != nil {
			errors.WriteHTTP(w, h.logger, errors.NewValidationError("publishedAt must be RFC3339"))
			return
		}
		publishedAt = &t
	}

	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		errors.WriteHTTP(w, h.logger, err)
		return
	}

	claim, err := h.ledger.AddEvidence(r.Context(), claimID, ledger.EvidenceDescriptor{
		SourceType:  domain.SourceType(req.SourceType),
		Title:       req.Title,
		URL:         req.URL,
		Publisher:   req.Publisher,
		Author:      req.Author,
		PublishedAt: publishedAt,
	}, user.UserID)
	if err != nil {
		errors.WriteHTTP(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, claimResponse{Claim: claim})
}

// CastVote handles POST /claims/{claimID}/vote
func (h *ClaimsHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	claimID := chi.URLParam(r, "claimID")
	if claimID == "" {
		errors.WriteHTTP(w, h.logger, errors.NewValidationError("claim id is required"))
		return
	}

	var req VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteHTTP(w, h.logger, errors.NewValidationError("invalid request body"))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		errors.WriteHTTP(w, h.logger, errors.NewValidationError(err.Error()))
		return
	}

	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		errors.WriteHTTP(w, h.logger, err)
		return
	}

	claim, err := h.ledger.CastVote(r.Context(), user.UserID, claimID, req.Value)
	if err != nil {
		errors.WriteHTTP(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, claimResponse{Claim: claim})
}
