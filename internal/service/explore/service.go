// Package explore implements the read side of the knowledge graph: bounded
// multi-hop neighborhood views, shared-event connection summaries and
// "why are these two connected" explanations. All queries are pure reads
// against the store and run with unbounded concurrency; there is no caching
// layer, so identical queries re-traverse the store each time.
package explore

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"worldgraph-backend/internal/domain"
	"worldgraph-backend/internal/repository"
	"worldgraph-backend/pkg/errors"
	"worldgraph-backend/pkg/observability"
)

// MaxLimit is the inclusive cap on neighborhood and connection limits.
const MaxLimit = 200

// Service answers graph exploration queries.
type Service struct {
	repo    repository.Repository
	logger  *zap.Logger
	metrics *observability.Collector
}

// NewService creates an explore service.
func NewService(repo repository.Repository, logger *zap.Logger, metrics *observability.Collector) *Service {
	return &Service{repo: repo, logger: logger, metrics: metrics}
}

func validateLimit(name string, v int) error {
	if v < 1 || v > MaxLimit {
		return errors.NewValidationError(name + " must be between 1 and 200").
			WithDetails(map[string]interface{}{name: v})
	}
	return nil
}

// PersonNeighborhood expands a bounded two-hop neighborhood around a person:
// the person's events (first hop, truncated), the other people reaching
// those events (second hop, truncated), and then a second pass over the
// selected node set to collect every qualifying claim edge among it. The
// second pass is required because truncation drops edges the expansion
// queries saw. An unknown focal id yields an empty view, not an error.
func (s *Service) PersonNeighborhood(ctx context.Context, personID string, opts NeighborhoodOptions) (*GraphView, error) {
	if err := validateLimit("limitEvents", opts.LimitEvents); err != nil {
		return nil, err
	}
	if err := validateLimit("limitPeople", opts.LimitPeople); err != nil {
		return nil, err
	}
	defer s.observe("person_neighborhood", time.Now())

	center, err := s.repo.FindPerson(ctx, personID)
	if err != nil {
		if errors.IsNotFound(err) {
			return &GraphView{Nodes: []GraphNode{}, Edges: []GraphEdge{}}, nil
		}
		return nil, err
	}

	filter := repository.ClaimFilter{IncludePending: opts.IncludePending}

	// First hop: the center's events, in store order, truncated.
	subjectClaims, err := s.repo.ClaimsBySubject(ctx, personID, filter)
	if err != nil {
		return nil, err
	}
	eventIDs := truncatedDistinct(claimObjects(subjectClaims), opts.LimitEvents)

	// Second hop: other people reaching those events, truncated.
	peopleIDs := make([]string, 0, opts.LimitPeople)
	seenPeople := map[string]bool{personID: true}
	for _, eventID := range eventIDs {
		objectClaims, err := s.repo.ClaimsByObject(ctx, eventID, filter)
		if err != nil {
			return nil, err
		}
		for _, c := range objectClaims {
			if seenPeople[c.SubjectID] || len(peopleIDs) >= opts.LimitPeople {
				continue
			}
			seenPeople[c.SubjectID] = true
			peopleIDs = append(peopleIDs, c.SubjectID)
		}
	}

	// Edge pass: every qualifying claim whose endpoints lie in the union.
	edges, err := s.collectEdges(ctx, eventIDs, seenPeople, filter)
	if err != nil {
		return nil, err
	}

	nodes, err := s.assembleNodes(ctx, []GraphNode{personNode(*center)}, eventIDs, peopleIDs)
	if err != nil {
		return nil, err
	}
	return &GraphView{Nodes: nodes, Edges: edges}, nil
}

// EventNeighborhood is the event-centered mirror of PersonNeighborhood:
// participants first, then the other events those participants reach.
func (s *Service) EventNeighborhood(ctx context.Context, eventID string, opts NeighborhoodOptions) (*GraphView, error) {
	if err := validateLimit("limitEvents", opts.LimitEvents); err != nil {
		return nil, err
	}
	if err := validateLimit("limitPeople", opts.LimitPeople); err != nil {
		return nil, err
	}
	defer s.observe("event_neighborhood", time.Now())

	center, err := s.repo.FindEvent(ctx, eventID)
	if err != nil {
		if errors.IsNotFound(err) {
			return &GraphView{Nodes: []GraphNode{}, Edges: []GraphEdge{}}, nil
		}
		return nil, err
	}

	filter := repository.ClaimFilter{IncludePending: opts.IncludePending}

	// First hop: people connected to the center event.
	objectClaims, err := s.repo.ClaimsByObject(ctx, eventID, filter)
	if err != nil {
		return nil, err
	}
	peopleIDs := truncatedDistinct(claimSubjects(objectClaims), opts.LimitPeople)
	peopleSet := make(map[string]bool, len(peopleIDs))
	for _, id := range peopleIDs {
		peopleSet[id] = true
	}

	// Second hop: other events those people participated in.
	eventIDs := make([]string, 0, opts.LimitEvents)
	seenEvents := map[string]bool{eventID: true}
	for _, pid := range peopleIDs {
		subjectClaims, err := s.repo.ClaimsBySubject(ctx, pid, filter)
		if err != nil {
			return nil, err
		}
		for _, c := range subjectClaims {
			if seenEvents[c.ObjectID] || len(eventIDs) >= opts.LimitEvents {
				continue
			}
			seenEvents[c.ObjectID] = true
			eventIDs = append(eventIDs, c.ObjectID)
		}
	}

	// Edge pass over every event in the union, keeping claims from the
	// selected people only.
	allEvents := append([]string{eventID}, eventIDs...)
	edges, err := s.collectEdges(ctx, allEvents, peopleSet, filter)
	if err != nil {
		return nil, err
	}

	nodes, err := s.assembleNodes(ctx, []GraphNode{eventNode(*center)}, eventIDs, peopleIDs)
	if err != nil {
		return nil, err
	}
	return &GraphView{Nodes: nodes, Edges: edges}, nil
}

// collectEdges re-queries all claims targeting the given events and keeps
// those whose subject is in the selected person set. One edge per claim.
func (s *Service) collectEdges(ctx context.Context, eventIDs []string, people map[string]bool, filter repository.ClaimFilter) ([]GraphEdge, error) {
	edges := make([]GraphEdge, 0)
	seen := make(map[string]bool)
	for _, eventID := range eventIDs {
		claims, err := s.repo.ClaimsByObject(ctx, eventID, filter)
		if err != nil {
			return nil, err
		}
		for _, c := range claims {
			if !people[c.SubjectID] || seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			edges = append(edges, claimEdge(c))
		}
	}
	return edges, nil
}

// assembleNodes resolves entity records for the selected ids and builds the
// node list: focal node first, then events, then people.
func (s *Service) assembleNodes(ctx context.Context, focal []GraphNode, eventIDs, peopleIDs []string) ([]GraphNode, error) {
	nodes := focal
	events, err := s.repo.FindEvents(ctx, eventIDs)
	if err != nil {
		return nil, err
	}
	for _, e := range events {
		nodes = append(nodes, eventNode(e))
	}
	people, err := s.repo.FindPeople(ctx, peopleIDs)
	if err != nil {
		return nil, err
	}
	for _, p := range people {
		nodes = append(nodes, personNode(p))
	}
	return nodes, nil
}

// Connections lists the people sharing at least one qualifying event with
// the given person. sharedStrength sums scoreA+scoreB over every qualifying
// claim pair, so multiple parallel claims to the same event all contribute.
func (s *Service) Connections(ctx context.Context, personID string, opts ConnectionOptions) ([]Connection, error) {
	if err := validateLimit("limitPeople", opts.Limit); err != nil {
		return nil, err
	}
	defer s.observe("connections", time.Now())

	filter := repository.ClaimFilter{IncludePending: opts.IncludePending}
	ownClaims, err := s.repo.ClaimsBySubject(ctx, personID, filter)
	if err != nil {
		return nil, err
	}

	type acc struct {
		events   map[string]bool
		strength int
	}
	byOther := make(map[string]*acc)
	order := make([]string, 0)

	for _, own := range ownClaims {
		objectClaims, err := s.repo.ClaimsByObject(ctx, own.ObjectID, filter)
		if err != nil {
			return nil, err
		}
		for _, other := range objectClaims {
			if other.SubjectID == personID {
				continue
			}
			a, ok := byOther[other.SubjectID]
			if !ok {
				a = &acc{events: make(map[string]bool)}
				byOther[other.SubjectID] = a
				order = append(order, other.SubjectID)
			}
			a.events[own.ObjectID] = true
			a.strength += own.Score + other.Score
		}
	}

	results := make([]Connection, 0, len(byOther))
	people, err := s.repo.FindPeople(ctx, order)
	if err != nil {
		return nil, err
	}
	for _, p := range people {
		a := byOther[p.ID]
		results = append(results, Connection{
			Person:           p,
			SharedEventCount: len(a.events),
			SharedStrength:   a.strength,
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].SharedEventCount != results[j].SharedEventCount {
			return results[i].SharedEventCount > results[j].SharedEventCount
		}
		if results[i].SharedStrength != results[j].SharedStrength {
			return results[i].SharedStrength > results[j].SharedStrength
		}
		return results[i].Person.ID < results[j].Person.ID
	})
	if len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results, nil
}

// WhyConnected finds the events both people participate in and, per shared
// event, the single best claim on each side: highest score first, ties
// broken by the most recent createdAt. Picking best-per-side independently
// avoids a cross-product of claim pairs and yields one explainable
// "strongest reason" pair per event.
func (s *Service) WhyConnected(ctx context.Context, personAID, personBID string, opts ConnectionOptions) ([]Explanation, error) {
	if err := validateLimit("limitEvents", opts.Limit); err != nil {
		return nil, err
	}
	defer s.observe("why_connected", time.Now())

	filter := repository.ClaimFilter{IncludePending: opts.IncludePending}
	claimsA, err := s.repo.ClaimsBySubject(ctx, personAID, filter)
	if err != nil {
		return nil, err
	}
	claimsB, err := s.repo.ClaimsBySubject(ctx, personBID, filter)
	if err != nil {
		return nil, err
	}

	bestA := bestClaimPerEvent(claimsA)
	bestB := bestClaimPerEvent(claimsB)

	sharedIDs := make([]string, 0)
	for eventID := range bestA {
		if _, ok := bestB[eventID]; ok {
			sharedIDs = append(sharedIDs, eventID)
		}
	}
	events, err := s.repo.FindEvents(ctx, sharedIDs)
	if err != nil {
		return nil, err
	}
	sort.Slice(events, func(i, j int) bool {
		if !events[i].StartDate.Equal(events[j].StartDate) {
			return events[i].StartDate.After(events[j].StartDate)
		}
		return events[i].ID < events[j].ID
	})
	if len(events) > opts.Limit {
		events = events[:opts.Limit]
	}

	results := make([]Explanation, 0, len(events))
	for _, e := range events {
		ca := bestA[e.ID]
		cb := bestB[e.ID]
		previewA, err := s.evidencePreview(ctx, ca.ID)
		if err != nil {
			return nil, err
		}
		previewB, err := s.evidencePreview(ctx, cb.ID)
		if err != nil {
			return nil, err
		}
		results = append(results, Explanation{
			Event:            e,
			ClaimA:           ca,
			ClaimB:           cb,
			EvidencePreviewA: previewA,
			EvidencePreviewB: previewB,
		})
	}
	return results, nil
}

// SharedEvents is the lightweight preview: just the events both people
// reach, newest start date first.
func (s *Service) SharedEvents(ctx context.Context, personAID, personBID string, opts ConnectionOptions) ([]domain.Event, error) {
	if opts.Limit < 1 || opts.Limit > 100 {
		return nil, errors.NewValidationError("limit must be between 1 and 100")
	}
	defer s.observe("shared_events", time.Now())

	filter := repository.ClaimFilter{IncludePending: opts.IncludePending}
	claimsA, err := s.repo.ClaimsBySubject(ctx, personAID, filter)
	if err != nil {
		return nil, err
	}
	claimsB, err := s.repo.ClaimsBySubject(ctx, personBID, filter)
	if err != nil {
		return nil, err
	}

	reachedB := make(map[string]bool, len(claimsB))
	for _, c := range claimsB {
		reachedB[c.ObjectID] = true
	}
	sharedIDs := make([]string, 0)
	seen := make(map[string]bool)
	for _, c := range claimsA {
		if reachedB[c.ObjectID] && !seen[c.ObjectID] {
			seen[c.ObjectID] = true
			sharedIDs = append(sharedIDs, c.ObjectID)
		}
	}

	events, err := s.repo.FindEvents(ctx, sharedIDs)
	if err != nil {
		return nil, err
	}
	sort.Slice(events, func(i, j int) bool {
		if !events[i].StartDate.Equal(events[j].StartDate) {
			return events[i].StartDate.After(events[j].StartDate)
		}
		return events[i].ID < events[j].ID
	})
	if len(events) > opts.Limit {
		events = events[:opts.Limit]
	}
	return events, nil
}

// ProfileGraph is the strict person view used by detail pages: a missing
// person is a NotFound error, unlike the tolerant neighborhood queries.
func (s *Service) ProfileGraph(ctx context.Context, personID string, opts ProfileOptions) (*ProfileGraph, error) {
	if err := validateLimit("limitEvents", opts.LimitEvents); err != nil {
		return nil, err
	}
	defer s.observe("profile_graph", time.Now())

	person, err := s.repo.FindPerson(ctx, personID)
	if err != nil {
		return nil, err
	}

	filter := repository.ClaimFilter{IncludePending: opts.IncludePending}
	claims, err := s.repo.ClaimsBySubject(ctx, personID, filter)
	if err != nil {
		return nil, err
	}

	eventIDs := make([]string, 0, len(claims))
	seen := make(map[string]bool)
	scoreByEvent := make(map[string]int)
	for _, c := range claims {
		if opts.MinScore != nil && c.Score < *opts.MinScore {
			continue
		}
		if !seen[c.ObjectID] {
			seen[c.ObjectID] = true
			eventIDs = append(eventIDs, c.ObjectID)
		}
		if c.Score > scoreByEvent[c.ObjectID] {
			scoreByEvent[c.ObjectID] = c.Score
		}
	}

	events, err := s.repo.FindEvents(ctx, eventIDs)
	if err != nil {
		return nil, err
	}
	filtered := events[:0]
	for _, e := range events {
		if opts.StartYear != nil && e.StartDate.Before(yearStart(*opts.StartYear)) {
			continue
		}
		if opts.EndYear != nil && !e.StartDate.Before(yearStart(*opts.EndYear+1)) {
			continue
		}
		filtered = append(filtered, e)
	}
	sort.Slice(filtered, func(i, j int) bool {
		if !filtered[i].StartDate.Equal(filtered[j].StartDate) {
			return filtered[i].StartDate.After(filtered[j].StartDate)
		}
		return filtered[i].ID < filtered[j].ID
	})
	if len(filtered) > opts.LimitEvents {
		filtered = filtered[:opts.LimitEvents]
	}

	// Other people attached to the surviving events, pending included to
	// mirror the original's optional match.
	peopleIDs := make([]string, 0)
	seenPeople := map[string]bool{personID: true}
	for _, e := range filtered {
		objectClaims, err := s.repo.ClaimsByObject(ctx, e.ID, repository.ClaimFilter{IncludePending: true})
		if err != nil {
			return nil, err
		}
		for _, c := range objectClaims {
			if c.ClaimType != domain.ClaimPersonEvent || seenPeople[c.SubjectID] {
				continue
			}
			seenPeople[c.SubjectID] = true
			peopleIDs = append(peopleIDs, c.SubjectID)
		}
	}
	people, err := s.repo.FindPeople(ctx, peopleIDs)
	if err != nil {
		return nil, err
	}

	return &ProfileGraph{Person: *person, Events: filtered, People: people}, nil
}

// Search matches entity names case-insensitively.
func (s *Service) Search(ctx context.Context, query string, kind domain.EntityKind, limit int) (interface{}, error) {
	if query == "" {
		return nil, errors.NewValidationError("query is required")
	}
	if limit < 1 || limit > 50 {
		return nil, errors.NewValidationError("limit must be between 1 and 50")
	}
	switch kind {
	case domain.KindEvent:
		return s.repo.SearchEvents(ctx, query, limit)
	case domain.KindPerson:
		return s.repo.SearchPeople(ctx, query, limit)
	default:
		return nil, errors.NewValidationError("kind must be person or event")
	}
}

func (s *Service) observe(query string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveTraversal(query, time.Since(start))
	}
}

// bestClaimPerEvent keeps, per object event, the claim with the highest
// score; ties go to the most recently created claim.
func bestClaimPerEvent(claims []domain.Claim) map[string]domain.Claim {
	best := make(map[string]domain.Claim)
	for _, c := range claims {
		cur, ok := best[c.ObjectID]
		if !ok || c.Score > cur.Score || (c.Score == cur.Score && c.CreatedAt.After(cur.CreatedAt)) {
			best[c.ObjectID] = c
		}
	}
	return best
}

func (s *Service) evidencePreview(ctx context.Context, claimID string) ([]domain.Source, error) {
	sources, err := s.repo.SourcesByClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if len(sources) > evidencePreviewSize {
		sources = sources[:evidencePreviewSize]
	}
	return sources, nil
}

func claimObjects(claims []domain.Claim) []string {
	out := make([]string, 0, len(claims))
	for _, c := range claims {
		out = append(out, c.ObjectID)
	}
	return out
}

func claimSubjects(claims []domain.Claim) []string {
	out := make([]string, 0, len(claims))
	for _, c := range claims {
		out = append(out, c.SubjectID)
	}
	return out
}

// truncatedDistinct keeps the first occurrence of each id, up to limit.
func truncatedDistinct(ids []string, limit int) []string {
	out := make([]string, 0, limit)
	seen := make(map[string]bool, limit)
	for _, id := range ids {
		if seen[id] || len(out) >= limit {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func personNode(p domain.Person) GraphNode {
	return GraphNode{ID: p.ID, Kind: domain.KindPerson, Label: p.Name, Attributes: p}
}

func eventNode(e domain.Event) GraphNode {
	return GraphNode{ID: e.ID, Kind: domain.KindEvent, Label: e.Name, Attributes: e}
}

func claimEdge(c domain.Claim) GraphEdge {
	return GraphEdge{
		ID:     c.ID,
		Source: c.SubjectID,
		Target: c.ObjectID,
		Kind:   "claim",
		Weight: c.Score,
		Attributes: EdgeAttributes{
			RelationshipType: c.RelationshipType,
			Status:           c.Status,
			Score:            c.Score,
		},
	}
}
