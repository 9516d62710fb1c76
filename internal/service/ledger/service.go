// Package ledger owns the claim lifecycle: creation, evidence attachment and
// vote casting. Every mutation recomputes the claim's aggregates from the
// complete live vote and evidence sets, then re-evaluates the status rules,
// so the materialized claim is always reproducible from the relationships
// alone. The recompute-and-persist step is serialized per claim through the
// store's conditioned aggregate write, retried on conflict.
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"worldgraph-backend/internal/domain"
	"worldgraph-backend/internal/repository"
	"worldgraph-backend/pkg/errors"
	"worldgraph-backend/pkg/observability"
)

// maxAggregateRetries bounds the optimistic-lock retry loop. Vote volume per
// claim is small; contention beyond this indicates a store problem.
const maxAggregateRetries = 5

// EvidenceDescriptor is the caller-supplied description of a source.
type EvidenceDescriptor struct {
	SourceType  domain.SourceType
	Title       string
	URL         string
	Publisher   string
	Author      string
	PublishedAt *time.Time
}

// Service implements the claim ledger and the voting/evidence aggregator.
type Service struct {
	repo    repository.Repository
	rules   func() domain.StatusRules
	logger  *zap.Logger
	metrics *observability.Collector
}

// NewService creates a ledger service. rules is called on every evaluation
// so threshold changes from a config reload apply without a restart.
func NewService(repo repository.Repository, rules func() domain.StatusRules, logger *zap.Logger, metrics *observability.Collector) *Service {
	if rules == nil {
		rules = func() domain.StatusRules { return domain.DefaultStatusRules() }
	}
	return &Service{repo: repo, rules: rules, logger: logger, metrics: metrics}
}

// CreateClaim proposes a relationship between an existing person and an
// existing event. The claim starts PENDING with zeroed aggregates.
func (s *Service) CreateClaim(ctx context.Context, subjectID, objectID, relationshipType, creatorID string) (*domain.Claim, error) {
	if subjectID == "" || objectID == "" || relationshipType == "" {
		return nil, errors.NewValidationError("subjectId, objectId and relationshipType are required")
	}
	if _, err := s.repo.FindPerson(ctx, subjectID); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindEvent(ctx, objectID); err != nil {
		return nil, err
	}

	claim := &domain.Claim{
		ID:               uuid.New().String(),
		ClaimType:        domain.ClaimPersonEvent,
		RelationshipType: relationshipType,
		SubjectID:        subjectID,
		ObjectID:         objectID,
		Status:           domain.StatusPending,
		CreatedAt:        time.Now().UTC(),
		CreatedByUserID:  creatorID,
	}
	if err := s.repo.CreateClaim(ctx, claim); err != nil {
		return nil, err
	}

	s.logger.Info("claim created",
		zap.String("claimID", claim.ID),
		zap.String("subjectID", subjectID),
		zap.String("objectID", objectID),
		zap.String("relationshipType", relationshipType),
	)
	if s.metrics != nil {
		s.metrics.ClaimsCreated.Inc()
	}
	return claim, nil
}

// AddEvidence upserts a source by its stable key, links it to the claim and
// recomputes evidenceCount as the distinct source count. Attaching the same
// URL twice changes nothing. The status rules are re-run afterwards so a
// claim that already satisfies the vote thresholds is approved as soon as
// its first evidence lands.
func (s *Service) AddEvidence(ctx context.Context, claimID string, desc EvidenceDescriptor, userID string) (*domain.Claim, error) {
	if desc.Title == "" {
		return nil, errors.NewValidationError("evidence title is required")
	}
	if !domain.ValidSourceType(desc.SourceType) {
		return nil, errors.NewValidationError("unknown source type")
	}
	if _, err := s.repo.FindClaim(ctx, claimID); err != nil {
		return nil, err
	}

	source := &domain.Source{
		ID:          domain.SourceKey(desc.URL),
		SourceType:  desc.SourceType,
		Title:       desc.Title,
		URL:         desc.URL,
		Publisher:   desc.Publisher,
		Author:      desc.Author,
		PublishedAt: desc.PublishedAt,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.UpsertSource(ctx, source); err != nil {
		return nil, err
	}
	if err := s.repo.LinkEvidence(ctx, claimID, source.ID, userID); err != nil {
		return nil, err
	}

	claim, err := s.recomputeAggregates(ctx, claimID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("evidence attached",
		zap.String("claimID", claimID),
		zap.String("sourceID", source.ID),
		zap.Int("evidenceCount", claim.EvidenceCount),
	)
	if s.metrics != nil {
		s.metrics.EvidenceAttached.Inc()
	}
	return claim, nil
}

// CastVote upserts the user's single vote on the claim with a weight taken
// from the voter's current role, then recomputes the claim's aggregates from
// the full live vote set and applies the status transition rules.
func (s *Service) CastVote(ctx context.Context, userID, claimID string, value int) (*domain.Claim, error) {
	if value != 1 && value != -1 {
		return nil, errors.NewValidationError("vote value must be +1 or -1")
	}
	user, err := s.repo.FindUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.FindClaim(ctx, claimID); err != nil {
		return nil, err
	}

	vote := &domain.Vote{
		UserID:  userID,
		ClaimID: claimID,
		Value:   value,
		Weight:  user.Role.VoteWeight(),
	}
	if err := s.repo.UpsertVote(ctx, vote); err != nil {
		return nil, err
	}

	claim, err := s.recomputeAggregates(ctx, claimID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("vote cast",
		zap.String("claimID", claimID),
		zap.String("userID", userID),
		zap.Int("value", value),
		zap.Int("weight", vote.Weight),
		zap.Int("score", claim.Score),
		zap.String("status", string(claim.Status)),
	)
	if s.metrics != nil {
		s.metrics.VotesCast.Inc()
	}
	return claim, nil
}

// GetClaim returns the materialized claim.
func (s *Service) GetClaim(ctx context.Context, claimID string) (*domain.Claim, error) {
	return s.repo.FindClaim(ctx, claimID)
}

// recomputeAggregates executes the read-recompute-write sequence under the
// store's per-claim optimistic lock. On a version conflict another vote or
// evidence write landed first; the loop re-reads and recomputes so the final
// aggregates always reflect a complete vote set.
func (s *Service) recomputeAggregates(ctx context.Context, claimID string) (*domain.Claim, error) {
	var lastErr error
	for attempt := 0; attempt < maxAggregateRetries; attempt++ {
		claim, err := s.repo.FindClaim(ctx, claimID)
		if err != nil {
			return nil, err
		}
		votes, err := s.repo.VotesByClaim(ctx, claimID)
		if err != nil {
			return nil, err
		}
		sources, err := s.repo.SourcesByClaim(ctx, claimID)
		if err != nil {
			return nil, err
		}

		tally := domain.TallyVotes(votes)
		claim.UpWeight = tally.UpWeight
		claim.DownWeight = tally.DownWeight
		claim.UniqueVoters = tally.UniqueVoters
		claim.Score = tally.Score()
		claim.EvidenceCount = len(sources)
		claim.Status = s.rules().Next(claim.Status, claim.Score, claim.UniqueVoters, claim.EvidenceCount)

		err = s.repo.UpdateClaimAggregates(ctx, claim, claim.Version)
		if err == nil {
			return claim, nil
		}
		if !errors.IsConflict(err) {
			return nil, err
		}
		lastErr = err
		s.logger.Debug("aggregate write conflict, retrying",
			zap.String("claimID", claimID),
			zap.Int("attempt", attempt+1),
		)
	}
	return nil, errors.Wrap(lastErr, "claim aggregate recomputation kept conflicting")
}
