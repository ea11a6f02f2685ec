package access

// Cond is a composable visibility condition over a collection.
type Cond interface {
	// Match evaluates the condition against a single row.
	Match(row any) bool
}

// Everything matches every row.
type Everything struct{}

func (Everything) Match(any) bool { return true }

// Nothing matches no row.
type Nothing struct{}

func (Nothing) Match(any) bool { return false }

// MemberOf matches rows owned by a team in which UserID holds a membership.
// TeamIDs is the in-memory snapshot of those teams; stores able to query
// memberships directly use UserID instead.
type MemberOf struct {
	UserID  int64
	TeamIDs []int64
}

func (c MemberOf) Match(row any) bool {
	owned, ok := row.(TeamOwned)
	if !ok {
		return false
	}
	teamID := owned.OwnerTeamID()
	for _, id := range c.TeamIDs {
		if id == teamID {
			return true
		}
	}
	return false
}

// AddressedTo matches rows whose target email equals Email.
type AddressedTo struct {
	Email string
}

func (c AddressedTo) Match(row any) bool {
	addressed, ok := row.(Addressed)
	return ok && c.Email != "" && addressed.AddresseeEmail() == c.Email
}

// SentBy matches rows created by UserID.
type SentBy struct {
	UserID int64
}

func (c SentBy) Match(row any) bool {
	sent, ok := row.(Sent)
	if !ok {
		return false
	}
	id, set := sent.SenderID()
	return set && id == c.UserID
}

// AnyOf matches when at least one member matches.
type AnyOf []Cond

func (c AnyOf) Match(row any) bool {
	for _, cond := range c {
		if cond.Match(row) {
			return true
		}
	}
	return false
}

// AllOf matches when every member matches.
type AllOf []Cond

func (c AllOf) Match(row any) bool {
	for _, cond := range c {
		if !cond.Match(row) {
			return false
		}
	}
	return true
}

// Filter returns the rows of items matching cond, preserving order.
func Filter[T any](cond Cond, items []T) []T {
	var out []T
	for _, item := range items {
		if cond.Match(item) {
			out = append(out, item)
		}
	}
	return out
}
