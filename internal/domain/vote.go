package domain

import "time"

// Vote is a user's single, overwritable vote on a claim. The (user, claim)
// pair is unique: a repeat vote replaces value and weight in place, so
// aggregate counts are always distinct voters, never vote events.
type Vote struct {
	UserID    string    `json:"userId"`
	ClaimID   string    `json:"claimId"`
	Value     int       `json:"value"`  // +1 or -1
	Weight    int       `json:"weight"` // captured from the voter's role at cast time
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// VoteTally is the aggregate derived from a claim's complete live vote set.
type VoteTally struct {
	UpWeight     int
	DownWeight   int
	UniqueVoters int
}

// Score returns upWeight - downWeight.
func (t VoteTally) Score() int {
	return t.UpWeight - t.DownWeight
}

// TallyVotes recomputes the aggregate from scratch. The input is assumed to
// hold at most one vote per user, which the vote repositories guarantee.
func TallyVotes(votes []Vote) VoteTally {
	var t VoteTally
	for _, v := range votes {
		switch v.Value {
		case 1:
			t.UpWeight += v.Weight
		case -1:
			t.DownWeight += v.Weight
		}
	}
	t.UniqueVoters = len(votes)
	return t
}
