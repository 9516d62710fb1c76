// Package domain holds the core types of the collaborative knowledge graph:
// people and events as nodes, claims as votable edges between them, and the
// votes and evidence sources that drive a claim through its status machine.
package domain

import "time"

// EntityKind distinguishes the two node labels in the graph.
type EntityKind string

const (
	KindPerson EntityKind = "person"
	KindEvent  EntityKind = "event"
)

// Enrichment holds the descriptive fields backfilled from the external
// summary service. Empty fields are left untouched on write.
type Enrichment struct {
	ShortDescription string     `json:"shortDescription,omitempty"`
	Summary          string     `json:"summary,omitempty"`
	WikipediaTitle   string     `json:"wikipediaTitle,omitempty"`
	WikipediaURL     string     `json:"wikipediaUrl,omitempty"`
	ThumbnailURL     string     `json:"thumbnailUrl,omitempty"`
	SummaryUpdatedAt *time.Time `json:"summaryUpdatedAt,omitempty"`
}

// Person is a node in the entity graph. Created by ingestion or seeding,
// mutated only by enrichment backfill, never deleted by the engine.
type Person struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	WikidataID string     `json:"wikidataId,omitempty"`
	Enrichment Enrichment `json:"enrichment"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// Event is a node in the entity graph with a time span attached.
type Event struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	EventType  string     `json:"eventType,omitempty"`
	StartDate  time.Time  `json:"startDate"`
	EndDate    *time.Time `json:"endDate,omitempty"`
	WikidataID string     `json:"wikidataId,omitempty"`
	Enrichment Enrichment `json:"enrichment"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// EntityDetails is the merged view returned by the detail lookup: the
// entity's identity plus whatever descriptive fields are known.
type EntityDetails struct {
	ID         string     `json:"id"`
	Kind       EntityKind `json:"kind"`
	Name       string     `json:"name"`
	WikidataID string     `json:"wikidataId,omitempty"`
	Enrichment
}
