package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type teamRow struct{ id int64 }

func (t teamRow) OwnerTeamID() int64 { return t.id }

type invitationRow struct {
	team   int64
	email  string
	sender int64
}

func (i invitationRow) OwnerTeamID() int64     { return i.team }
func (i invitationRow) AddresseeEmail() string { return i.email }
func (i invitationRow) SenderID() (int64, bool) {
	return i.sender, i.sender != 0
}

var (
	alice = Principal{UserID: 1, Email: "alice@example.com", TeamIDs: []int64{10}}
	bob   = Principal{UserID: 2, Email: "bob@example.com"}
	root  = Principal{UserID: 3, Email: "root@example.com", IsSuperuser: true}
)

func TestTeams(t *testing.T) {
	teams := []teamRow{{10}, {11}, {12}}

	assert.Equal(t, []teamRow{{10}}, Filter(Teams(alice), teams))
	assert.Empty(t, Filter(Teams(bob), teams))
	assert.Len(t, Filter(Teams(root), teams), 3)

	assert.True(t, CanAccessTeam(alice, teamRow{10}))
	assert.False(t, CanAccessTeam(alice, teamRow{11}))
	assert.True(t, CanAccessTeam(root, teamRow{11}))
}

func TestInvitations(t *testing.T) {
	invitations := []invitationRow{
		{team: 10, email: "carol@example.com", sender: 1},
		{team: 11, email: "alice@example.com", sender: 4},
		{team: 10, email: "alice@example.com", sender: 4},
		{team: 12, email: "dave@example.com", sender: 5},
	}

	t.Run("member sees team invitations and own, once", func(t *testing.T) {
		got := Filter(Invitations(alice), invitations)
		assert.Equal(t, invitations[:3], got)
	})

	t.Run("user without teams sees only own email", func(t *testing.T) {
		bobsInvitation := invitationRow{team: 12, email: "bob@example.com", sender: 5}
		got := Filter(Invitations(bob), append(invitations, bobsInvitation))
		assert.Equal(t, []invitationRow{bobsInvitation}, got)
	})

	t.Run("superuser bypass", func(t *testing.T) {
		assert.Len(t, Filter(Invitations(root), invitations), len(invitations))
	})

	t.Run("object check agrees with the filter", func(t *testing.T) {
		for _, p := range []Principal{alice, bob, root} {
			cond := Invitations(p)
			for _, inv := range invitations {
				assert.Equal(t, cond.Match(inv), CanAccessInvitation(p, inv), "principal %d row %+v", p.UserID, inv)
			}
		}
	})
}

func TestJoinRequests(t *testing.T) {
	rows := []invitationRow{
		{team: 11, email: "alice@example.com", sender: 1},
		{team: 12, email: "alice@example.com", sender: 4},
		{team: 12, email: "bob@example.com", sender: 1},
	}

	assert.Equal(t, rows[:1], Filter(JoinRequests(alice), rows))
	assert.Len(t, Filter(JoinRequests(root), rows), 3)

	assert.True(t, CanAccessJoinRequest(alice, rows[0]))
	assert.False(t, CanAccessJoinRequest(alice, rows[1]))
	assert.False(t, CanAccessJoinRequest(alice, rows[2]))

	superSelf := invitationRow{team: 11, email: root.Email, sender: root.UserID}
	assert.True(t, JoinRequests(root).Match(superSelf))
	assert.False(t, CanAccessJoinRequest(root, superSelf))
}

func TestAPIKeys_NoSuperuserBypass(t *testing.T) {
	keys := []teamRow{{10}, {11}}

	assert.Equal(t, []teamRow{{10}}, Filter(APIKeys(alice), keys))
	assert.Empty(t, Filter(APIKeys(root), keys))
}

func TestResources(t *testing.T) {
	assert.True(t, Resources(alice).Match(teamRow{10}))
	assert.False(t, Resources(alice).Match(teamRow{11}))
	assert.True(t, Resources(root).Match(teamRow{11}))
	assert.True(t, CanAccessResource(alice, teamRow{10}))
	assert.False(t, CanAccessResource(bob, teamRow{10}))
}

func TestCond_Composition(t *testing.T) {
	row := invitationRow{team: 10, email: "x@example.com", sender: 7}

	assert.True(t, Everything{}.Match(row))
	assert.False(t, Nothing{}.Match(row))
	assert.False(t, AddressedTo{}.Match(row), "empty email never matches")
	assert.True(t, AllOf{}.Match(row))
	assert.False(t, AnyOf{}.Match(row))
	assert.True(t, AnyOf{Nothing{}, SentBy{UserID: 7}}.Match(row))
	assert.False(t, AllOf{SentBy{UserID: 7}, AddressedTo{Email: "y@example.com"}}.Match(row))
	assert.False(t, SentBy{UserID: 7}.Match(teamRow{10}), "rows without a sender never match")
}

func TestIsTeamAdmin(t *testing.T) {
	assert.True(t, IsTeamAdmin(alice, AdminRole))
	assert.False(t, IsTeamAdmin(alice, "GENERAL"))
	assert.False(t, IsTeamAdmin(alice, ""))
	assert.True(t, IsTeamAdmin(root, ""))
}
