package domain

import "time"

// Role determines a user's vote weight. Weight is captured on the vote at
// cast time and never recomputed retroactively from the current role.
type Role string

const (
	RoleUser    Role = "USER"
	RoleTrusted Role = "TRUSTED"
	RoleMod     Role = "MOD"
)

// VoteWeight returns the per-vote multiplier for the role. Unknown roles
// fall back to the base weight.
func (r Role) VoteWeight() int {
	switch r {
	case RoleMod:
		return 3
	case RoleTrusted:
		return 2
	default:
		return 1
	}
}

// User is a registered voter.
type User struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	Role        Role      `json:"role"`
	Reputation  int       `json:"reputation"`
	CreatedAt   time.Time `json:"createdAt"`
}
