package access

func memberOf(p Principal) MemberOf {
	return MemberOf{UserID: p.UserID, TeamIDs: p.TeamIDs}
}

// Teams narrows teams to those the principal belongs to.
func Teams(p Principal) Cond {
	if p.IsSuperuser {
		return Everything{}
	}
	return memberOf(p)
}

// Invitations narrows invitations to those of the principal's teams plus
// those addressed to the principal's email.
func Invitations(p Principal) Cond {
	if p.IsSuperuser {
		return Everything{}
	}
	return AnyOf{memberOf(p), AddressedTo{Email: p.Email}}
}

// JoinRequests narrows invitations to the ones the principal sent to itself.
func JoinRequests(p Principal) Cond {
	if p.IsSuperuser {
		return Everything{}
	}
	return AllOf{SentBy{UserID: p.UserID}, AddressedTo{Email: p.Email}}
}

// APIKeys narrows keys to those owned by the principal's teams. Superusers
// get no bypass here.
func APIKeys(p Principal) Cond {
	return memberOf(p)
}

// Resources narrows team-owned resources to the principal's teams.
func Resources(p Principal) Cond {
	if p.IsSuperuser {
		return Everything{}
	}
	return memberOf(p)
}

// CanAccessTeam is the object-level check for a team or anything a team owns.
func CanAccessTeam(p Principal, row TeamOwned) bool {
	return p.IsSuperuser || p.MemberOf(row.OwnerTeamID())
}

// InvitationRow is what the invitation checks inspect.
type InvitationRow interface {
	TeamOwned
	Addressed
	Sent
}

// CanAccessInvitation is the object-level check for invitations.
func CanAccessInvitation(p Principal, inv InvitationRow) bool {
	if p.IsSuperuser {
		return true
	}
	return p.MemberOf(inv.OwnerTeamID()) || (p.Email != "" && inv.AddresseeEmail() == p.Email)
}

// CanAccessJoinRequest is the object-level check for join requests. Unlike the
// list filter it refuses superusers.
func CanAccessJoinRequest(p Principal, inv InvitationRow) bool {
	if p.IsSuperuser {
		return false
	}
	sender, ok := inv.SenderID()
	return ok && sender == p.UserID && inv.AddresseeEmail() == p.Email
}

// CanAccessResource is the object-level check for team-owned resources.
func CanAccessResource(p Principal, row TeamOwned) bool {
	return CanAccessTeam(p, row)
}

// AdminRole is the membership role allowed to manage a team.
const AdminRole = "ADMIN"

// IsTeamAdmin reports whether a principal holding role in a team may manage
// it. role is empty when the principal is not a member.
func IsTeamAdmin(p Principal, role string) bool {
	return p.IsSuperuser || role == AdminRole
}
