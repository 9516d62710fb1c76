package domain

import "time"

// ClaimType tags the shape of a claim's endpoints. PERSON_EVENT is the only
// variant today; the tag exists so person-person claims can be added without
// touching the ledger's state machine.
type ClaimType string

const (
	ClaimPersonEvent ClaimType = "PERSON_EVENT"
)

// ClaimStatus is the claim's resting state.
type ClaimStatus string

const (
	StatusPending  ClaimStatus = "PENDING"
	StatusApproved ClaimStatus = "APPROVED"
	StatusRejected ClaimStatus = "REJECTED"
)

// Claim is a votable, evidenced assertion that a relationship holds between
// a subject entity and an object entity. Aggregates are always recomputed
// from the full live vote set, never adjusted incrementally.
type Claim struct {
	ID               string      `json:"id"`
	ClaimType        ClaimType   `json:"claimType"`
	RelationshipType string      `json:"relationshipType"`
	SubjectID        string      `json:"subjectId"`
	ObjectID         string      `json:"objectId"`
	Status           ClaimStatus `json:"status"`
	Score            int         `json:"score"`
	UpWeight         int         `json:"upWeight"`
	DownWeight       int         `json:"downWeight"`
	UniqueVoters     int         `json:"uniqueVoters"`
	EvidenceCount    int         `json:"evidenceCount"`
	CreatedAt        time.Time   `json:"createdAt"`
	CreatedByUserID  string      `json:"createdByUserId"`

	// Version backs the optimistic lock on aggregate writes. It is a
	// storage concern surfaced on the record so the ledger can do a
	// conditioned read-recompute-write without a second fetch.
	Version int `json:"-"`
}

// StatusRules holds the thresholds of the claim state machine.
type StatusRules struct {
	ApproveScore int // minimum score for approval
	RejectScore  int // maximum (negative) score for rejection
	MinVoters    int // distinct voters required either way
	MinEvidence  int // distinct sources required for approval only
}

// DefaultStatusRules returns the production thresholds.
func DefaultStatusRules() StatusRules {
	return StatusRules{
		ApproveScore: 6,
		RejectScore:  -6,
		MinVoters:    4,
		MinEvidence:  1,
	}
}

// Next evaluates the transition rules against freshly recomputed aggregates
// and returns the resulting status. Approval is checked before rejection.
// A claim that has left PENDING can flip between APPROVED and REJECTED if
// continued voting re-crosses the opposite threshold, but no rule ever
// returns it to PENDING.
func (r StatusRules) Next(current ClaimStatus, score, voters, evidence int) ClaimStatus {
	if score >= r.ApproveScore && voters >= r.MinVoters && evidence >= r.MinEvidence {
		return StatusApproved
	}
	if score <= r.RejectScore && voters >= r.MinVoters {
		return StatusRejected
	}
	return current
}
