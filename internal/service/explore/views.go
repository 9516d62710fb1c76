package explore

import (
	"time"

	"worldgraph-backend/internal/domain"
)

// GraphNode is one node of a neighborhood view.
type GraphNode struct {
	ID         string            `json:"id"`
	Kind       domain.EntityKind `json:"kind"`
	Label      string            `json:"label"`
	Attributes interface{}       `json:"attributes,omitempty"`
}

// GraphEdge is one claim rendered as an edge. Weight mirrors the claim
// score so renderers can scale without digging into attributes.
type GraphEdge struct {
	ID         string         `json:"id"`
	Source     string         `json:"source"`
	Target     string         `json:"target"`
	Kind       string         `json:"kind"`
	Weight     int            `json:"weight"`
	Attributes EdgeAttributes `json:"attributes"`
}

// EdgeAttributes carries the claim fields a view needs.
type EdgeAttributes struct {
	RelationshipType string             `json:"relationshipType"`
	Status           domain.ClaimStatus `json:"status"`
	Score            int                `json:"score"`
}

// GraphView is a bounded node/edge subgraph around a focal entity.
type GraphView struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// Connection is one row of the "who shares events with this person" query.
type Connection struct {
	Person           domain.Person `json:"person"`
	SharedEventCount int           `json:"sharedEventCount"`
	SharedStrength   int           `json:"sharedStrength"`
}

// Explanation is one shared event with the strongest claim on each side and
// a short evidence preview per claim.
type Explanation struct {
	Event            domain.Event    `json:"event"`
	ClaimA           domain.Claim    `json:"claimA"`
	ClaimB           domain.Claim    `json:"claimB"`
	EvidencePreviewA []domain.Source `json:"evidencePreviewA"`
	EvidencePreviewB []domain.Source `json:"evidencePreviewB"`
}

// ProfileGraph is the strict person-centered view: the person, their
// date/score-filtered events, and the other people attached to those events.
type ProfileGraph struct {
	Person domain.Person   `json:"person"`
	Events []domain.Event  `json:"events"`
	People []domain.Person `json:"people"`
}

// ProfileOptions filters the profile graph.
type ProfileOptions struct {
	IncludePending bool
	MinScore       *int
	StartYear      *int
	EndYear        *int
	LimitEvents    int
}

// NeighborhoodOptions bounds a two-hop neighborhood expansion.
type NeighborhoodOptions struct {
	IncludePending bool
	LimitEvents    int
	LimitPeople    int
}

// ConnectionOptions bounds the connections query.
type ConnectionOptions struct {
	IncludePending bool
	Limit          int
}

// evidencePreviewSize caps the per-side source preview in explanations.
const evidencePreviewSize = 3

// yearStart returns midnight Jan 1 UTC of the given year.
func yearStart(year int) time.Time {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
}
