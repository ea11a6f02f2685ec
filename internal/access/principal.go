// Package access holds the row-level visibility rules. Each rule exists in two
// forms: a Cond that narrows a whole collection (rendered to SQL by the
// postgres store, evaluated directly by the memory store) and an object-level
// predicate used on single-row operations.
package access

import "slices"

// Principal is the authenticated caller as seen by the rules.
type Principal struct {
	UserID      int64
	Username    string
	Email       string
	IsSuperuser bool
	// TeamIDs is the membership snapshot taken when the request was authenticated.
	TeamIDs []int64
}

// MemberOf reports whether the principal holds a membership in the team.
func (p Principal) MemberOf(teamID int64) bool {
	return slices.Contains(p.TeamIDs, teamID)
}

// TeamOwned rows belong to exactly one team. A team owns itself.
type TeamOwned interface {
	OwnerTeamID() int64
}

// Addressed rows target an email address.
type Addressed interface {
	AddresseeEmail() string
}

// Sent rows record the user who created them.
type Sent interface {
	SenderID() (int64, bool)
}
