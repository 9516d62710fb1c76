// Package memory implements the repository contract with in-process
// adjacency lists. It is the store used by tests, local development and the
// seed tooling; the DynamoDB implementation is the production counterpart.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"worldgraph-backend/internal/domain"
	"worldgraph-backend/internal/repository"
	appErrors "worldgraph-backend/pkg/errors"
)

// Store keeps the whole graph behind a single RWMutex. Claim aggregate
// writes are additionally guarded by a per-claim version check so that two
// concurrent vote recomputations cannot clobber each other, matching the
// conditioned-write semantics of the DynamoDB store.
type Store struct {
	mu sync.RWMutex

	people map[string]domain.Person
	events map[string]domain.Event
	users  map[string]domain.User

	claims          map[string]domain.Claim
	claimsBySubject map[string][]string // claim ids in creation order
	claimsByObject  map[string][]string

	votes     map[string]map[string]domain.Vote // claimID -> userID -> vote
	voteOrder map[string][]string               // claimID -> userIDs in first-vote order

	sources  map[string]domain.Source
	evidence map[string][]string // claimID -> source ids in attach order
}

// NewStore creates an empty in-process store.
func NewStore() *Store {
	return &Store{
		people:          make(map[string]domain.Person),
		events:          make(map[string]domain.Event),
		users:           make(map[string]domain.User),
		claims:          make(map[string]domain.Claim),
		claimsBySubject: make(map[string][]string),
		claimsByObject:  make(map[string][]string),
		votes:           make(map[string]map[string]domain.Vote),
		voteOrder:       make(map[string][]string),
		sources:         make(map[string]domain.Source),
		evidence:        make(map[string][]string),
	}
}

var _ repository.Repository = (*Store)(nil)

// SavePerson inserts or replaces a person node.
func (s *Store) SavePerson(_ context.Context, p *domain.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	s.people[cp.ID] = cp
	return nil
}

// SaveEvent inserts or replaces an event node.
func (s *Store) SaveEvent(_ context.Context, e *domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *e
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	s.events[cp.ID] = cp
	return nil
}

func (s *Store) FindPerson(_ context.Context, id string) (*domain.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.people[id]
	if !ok {
		return nil, appErrors.NewNotFoundError("person")
	}
	cp := p
	return &cp, nil
}

func (s *Store) FindEvent(_ context.Context, id string) (*domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[id]
	if !ok {
		return nil, appErrors.NewNotFoundError("event")
	}
	cp := e
	return &cp, nil
}

func (s *Store) FindPeople(_ context.Context, ids []string) ([]domain.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Person, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.people[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) FindEvents(_ context.Context, ids []string) ([]domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Event, 0, len(ids))
	for _, id := range ids {
		if e, ok := s.events[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

// UpdateEnrichment merges non-empty enrichment fields onto the entity.
func (s *Store) UpdateEnrichment(_ context.Context, id string, kind domain.EntityKind, e domain.Enrichment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch kind {
	case domain.KindPerson:
		p, ok := s.people[id]
		if !ok {
			return appErrors.NewNotFoundError("person")
		}
		mergeEnrichment(&p.Enrichment, e)
		s.people[id] = p
	case domain.KindEvent:
		ev, ok := s.events[id]
		if !ok {
			return appErrors.NewNotFoundError("event")
		}
		mergeEnrichment(&ev.Enrichment, e)
		s.events[id] = ev
	default:
		return appErrors.NewValidationError("unknown entity kind")
	}
	return nil
}

func mergeEnrichment(dst *domain.Enrichment, src domain.Enrichment) {
	if src.ShortDescription != "" {
		dst.ShortDescription = src.ShortDescription
	}
	if src.Summary != "" {
		dst.Summary = src.Summary
	}
	if src.WikipediaTitle != "" {
		dst.WikipediaTitle = src.WikipediaTitle
	}
	if src.WikipediaURL != "" {
		dst.WikipediaURL = src.WikipediaURL
	}
	if src.ThumbnailURL != "" {
		dst.ThumbnailURL = src.ThumbnailURL
	}
	if src.SummaryUpdatedAt != nil {
		dst.SummaryUpdatedAt = src.SummaryUpdatedAt
	}
}

func (s *Store) SearchPeople(_ context.Context, query string, limit int) ([]domain.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q := strings.ToLower(query)
	var out []domain.Person
	for _, p := range s.people {
		if strings.Contains(strings.ToLower(p.Name), q) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) SearchEvents(_ context.Context, query string, limit int) ([]domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q := strings.ToLower(query)
	var out []domain.Event
	for _, e := range s.events {
		if strings.Contains(strings.ToLower(e.Name), q) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// CreateClaim persists the claim and both structural links.
func (s *Store) CreateClaim(_ context.Context, c *domain.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.claims[c.ID]; exists {
		return appErrors.NewConflictError("claim already exists")
	}
	cp := *c
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	s.claims[cp.ID] = cp
	s.claimsBySubject[cp.SubjectID] = append(s.claimsBySubject[cp.SubjectID], cp.ID)
	s.claimsByObject[cp.ObjectID] = append(s.claimsByObject[cp.ObjectID], cp.ID)
	c.CreatedAt = cp.CreatedAt
	return nil
}

func (s *Store) FindClaim(_ context.Context, id string) (*domain.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.claims[id]
	if !ok {
		return nil, appErrors.NewNotFoundError("claim")
	}
	cp := c
	return &cp, nil
}

func (s *Store) ClaimsBySubject(_ context.Context, subjectID string, f repository.ClaimFilter) ([]domain.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collectClaims(s.claimsBySubject[subjectID], f), nil
}

func (s *Store) ClaimsByObject(_ context.Context, objectID string, f repository.ClaimFilter) ([]domain.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collectClaims(s.claimsByObject[objectID], f), nil
}

func (s *Store) collectClaims(ids []string, f repository.ClaimFilter) []domain.Claim {
	out := make([]domain.Claim, 0, len(ids))
	for _, id := range ids {
		c, ok := s.claims[id]
		if !ok || !f.Visible(&c) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// UpdateClaimAggregates applies the recomputed aggregates conditioned on the
// stored version still matching expectedVersion.
func (s *Store) UpdateClaimAggregates(_ context.Context, c *domain.Claim, expectedVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.claims[c.ID]
	if !ok {
		return appErrors.NewNotFoundError("claim")
	}
	if stored.Version != expectedVersion {
		return appErrors.NewConflictError("claim version conflict")
	}
	stored.Score = c.Score
	stored.UpWeight = c.UpWeight
	stored.DownWeight = c.DownWeight
	stored.UniqueVoters = c.UniqueVoters
	stored.EvidenceCount = c.EvidenceCount
	stored.Status = c.Status
	stored.Version = expectedVersion + 1
	s.claims[c.ID] = stored
	c.Version = stored.Version
	return nil
}

// UpsertVote creates or overwrites the user's vote on the claim.
func (s *Store) UpsertVote(_ context.Context, v *domain.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byUser, ok := s.votes[v.ClaimID]
	if !ok {
		byUser = make(map[string]domain.Vote)
		s.votes[v.ClaimID] = byUser
	}
	now := time.Now().UTC()
	if existing, seen := byUser[v.UserID]; seen {
		existing.Value = v.Value
		existing.Weight = v.Weight
		existing.UpdatedAt = now
		byUser[v.UserID] = existing
	} else {
		cp := *v
		cp.CreatedAt = now
		cp.UpdatedAt = now
		byUser[v.UserID] = cp
		s.voteOrder[v.ClaimID] = append(s.voteOrder[v.ClaimID], v.UserID)
	}
	return nil
}

func (s *Store) VotesByClaim(_ context.Context, claimID string) ([]domain.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	order := s.voteOrder[claimID]
	byUser := s.votes[claimID]
	out := make([]domain.Vote, 0, len(order))
	for _, userID := range order {
		if v, ok := byUser[userID]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

// UpsertSource creates the source when its id is new; existing sources are
// left untouched so shared citations keep their first-submitted metadata.
func (s *Store) UpsertSource(_ context.Context, src *domain.Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sources[src.ID]; exists {
		return nil
	}
	cp := *src
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	s.sources[cp.ID] = cp
	return nil
}

// LinkEvidence attaches the source to the claim; duplicate links are no-ops.
func (s *Store) LinkEvidence(_ context.Context, claimID, sourceID, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.claims[claimID]; !ok {
		return appErrors.NewNotFoundError("claim")
	}
	for _, id := range s.evidence[claimID] {
		if id == sourceID {
			return nil
		}
	}
	s.evidence[claimID] = append(s.evidence[claimID], sourceID)
	return nil
}

func (s *Store) SourcesByClaim(_ context.Context, claimID string) ([]domain.Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.evidence[claimID]
	out := make([]domain.Source, 0, len(ids))
	for _, id := range ids {
		if src, ok := s.sources[id]; ok {
			out = append(out, src)
		}
	}
	return out, nil
}

func (s *Store) FindUser(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, appErrors.NewNotFoundError("user")
	}
	cp := u
	return &cp, nil
}

func (s *Store) UpsertUser(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	s.users[cp.ID] = cp
	return nil
}
