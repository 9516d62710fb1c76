// Package repository defines the store contract the engine is written
// against: a labeled-property multigraph reachable through point lookups,
// pattern traversals and upsert-by-key writes. Implementations must honor
// the ordering contract documented on each method so that truncated
// traversals stay reproducible across identical calls.
package repository

import (
	"context"

	"worldgraph-backend/internal/domain"
)

// ClaimFilter narrows traversal queries. When IncludePending is false only
// APPROVED claims are visible, at every hop.
type ClaimFilter struct {
	IncludePending bool
}

// Visible reports whether a claim passes the filter.
func (f ClaimFilter) Visible(c *domain.Claim) bool {
	return f.IncludePending || c.Status == domain.StatusApproved
}

// EntityRepository owns Person and Event nodes.
type EntityRepository interface {
	SavePerson(ctx context.Context, p *domain.Person) error
	SaveEvent(ctx context.Context, e *domain.Event) error

	// FindPerson and FindEvent return a NOT_FOUND error when the id is
	// absent; callers decide whether that is tolerable.
	FindPerson(ctx context.Context, id string) (*domain.Person, error)
	FindEvent(ctx context.Context, id string) (*domain.Event, error)

	// FindPeople and FindEvents skip missing ids silently and return
	// entities in the order of the requested ids.
	FindPeople(ctx context.Context, ids []string) ([]domain.Person, error)
	FindEvents(ctx context.Context, ids []string) ([]domain.Event, error)

	// UpdateEnrichment merges non-empty enrichment fields onto the entity.
	UpdateEnrichment(ctx context.Context, id string, kind domain.EntityKind, e domain.Enrichment) error

	// SearchPeople and SearchEvents match the query case-insensitively as
	// a substring of the name, ordered by (name, id) ascending.
	SearchPeople(ctx context.Context, query string, limit int) ([]domain.Person, error)
	SearchEvents(ctx context.Context, query string, limit int) ([]domain.Event, error)
}

// ClaimRepository owns Claim edges and their aggregates.
type ClaimRepository interface {
	CreateClaim(ctx context.Context, c *domain.Claim) error
	FindClaim(ctx context.Context, id string) (*domain.Claim, error)

	// ClaimsBySubject and ClaimsByObject return matching claims ordered by
	// (createdAt, id) ascending. An unknown entity id yields an empty
	// slice, not an error.
	ClaimsBySubject(ctx context.Context, subjectID string, f ClaimFilter) ([]domain.Claim, error)
	ClaimsByObject(ctx context.Context, objectID string, f ClaimFilter) ([]domain.Claim, error)

	// UpdateClaimAggregates persists score, weights, voter and evidence
	// counts and status, conditioned on the stored version matching
	// expectedVersion. A CONFLICT error signals a concurrent writer; the
	// caller re-reads and recomputes.
	UpdateClaimAggregates(ctx context.Context, c *domain.Claim, expectedVersion int) error
}

// VoteRepository owns the (user, claim) vote relationships.
type VoteRepository interface {
	// UpsertVote creates or overwrites the single vote a user holds on a
	// claim.
	UpsertVote(ctx context.Context, v *domain.Vote) error

	// VotesByClaim returns the complete live vote set for a claim, one
	// entry per voter, ordered by (createdAt, userID) ascending.
	VotesByClaim(ctx context.Context, claimID string) ([]domain.Vote, error)
}

// SourceRepository owns evidence sources and their links to claims.
type SourceRepository interface {
	// UpsertSource creates the source if its id is new; an existing id
	// keeps the stored node untouched.
	UpsertSource(ctx context.Context, s *domain.Source) error

	// LinkEvidence attaches a source to a claim. Linking the same pair
	// again is a no-op.
	LinkEvidence(ctx context.Context, claimID, sourceID, addedByUserID string) error

	// SourcesByClaim returns distinct linked sources in attach order.
	SourcesByClaim(ctx context.Context, claimID string) ([]domain.Source, error)
}

// UserRepository owns registered users.
type UserRepository interface {
	FindUser(ctx context.Context, id string) (*domain.User, error)
	UpsertUser(ctx context.Context, u *domain.User) error
}

// Repository is the full store surface the services are wired with.
type Repository interface {
	EntityRepository
	ClaimRepository
	VoteRepository
	SourceRepository
	UserRepository
}
