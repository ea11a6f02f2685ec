package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Rrens/teamhub/internal/access"
	"github.com/Rrens/teamhub/internal/domain"
	"github.com/Rrens/teamhub/internal/lifecycle"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func addUser(t *testing.T, store *domain.Store, username string) *domain.User {
	t.Helper()
	return addUserCtx(context.Background(), t, store, username)
}

// addUserCtx writes through ctx, which inside RunInTx must be the transaction's
func addUserCtx(ctx context.Context, t *testing.T, store *domain.Store, username string) *domain.User {
	t.Helper()
	u := &domain.User{Username: username, Email: username + "@example.com", IsActive: true, CreatedAt: base}
	require.NoError(t, store.Users.Create(ctx, u))
	return u
}

func addTeam(t *testing.T, store *domain.Store, name string, offset time.Duration, members ...*domain.User) *domain.Team {
	t.Helper()
	ctx := context.Background()
	team := &domain.Team{UUID: uuid.New(), Name: &name, CreatedAt: base.Add(offset), UpdatedAt: base.Add(offset)}
	require.NoError(t, store.Teams.Create(ctx, team))
	for _, u := range members {
		require.NoError(t, store.Memberships.Create(ctx, &domain.Membership{TeamID: team.ID, UserID: u.ID, Role: domain.RoleAdmin}))
	}
	return team
}

func TestStore_UniqueConstraints(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	alice := addUser(t, store, "alice")
	team := addTeam(t, store, "red", 0, alice)

	err := store.Users.Create(ctx, &domain.User{Username: "alice"})
	assert.True(t, errors.Is(err, domain.ErrDuplicate))

	err = store.Users.Create(ctx, &domain.User{Username: "alice2", Email: "alice@example.com"})
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
	require.NoError(t, store.Users.Create(ctx, &domain.User{Username: "svc1"}))
	require.NoError(t, store.Users.Create(ctx, &domain.User{Username: "svc2"}))

	name := "red"
	err = store.Teams.Create(ctx, &domain.Team{UUID: uuid.New(), Name: &name})
	assert.True(t, errors.Is(err, domain.ErrDuplicate))

	// unnamed teams never collide
	require.NoError(t, store.Teams.Create(ctx, &domain.Team{UUID: uuid.New()}))
	require.NoError(t, store.Teams.Create(ctx, &domain.Team{UUID: uuid.New()}))

	err = store.Memberships.Create(ctx, &domain.Membership{TeamID: team.ID, UserID: alice.ID})
	assert.True(t, errors.Is(err, domain.ErrDuplicate))

	require.NoError(t, store.Tokens.Create(ctx, &domain.Token{Key: "k1", UserID: alice.ID}))
	err = store.Tokens.Create(ctx, &domain.Token{Key: "k2", UserID: alice.ID})
	assert.True(t, errors.Is(err, domain.ErrDuplicate))

	inv := &domain.Invitation{UUID: uuid.New(), TeamID: team.ID, Email: "x@example.com"}
	require.NoError(t, store.Invitations.Create(ctx, inv))
	err = store.Invitations.Create(ctx, &domain.Invitation{UUID: uuid.New(), TeamID: team.ID, Email: "x@example.com"})
	assert.True(t, errors.Is(err, domain.ErrDuplicate))
}

func TestStore_RunInTxRollsBack(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.Tx.RunInTx(ctx, func(ctx context.Context) error {
		addUserCtx(ctx, t, store, "ghost")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	u, err := store.Users.GetByUsername(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, u)

	assert.Panics(t, func() {
		_ = store.Tx.RunInTx(ctx, func(ctx context.Context) error {
			addUserCtx(ctx, t, store, "phantom")
			panic("boom")
		})
	})
	u, err = store.Users.GetByUsername(ctx, "phantom")
	require.NoError(t, err)
	assert.Nil(t, u)

	require.NoError(t, store.Tx.RunInTx(ctx, func(ctx context.Context) error {
		addUserCtx(ctx, t, store, "kept")
		return nil
	}))
	u, err = store.Users.GetByUsername(ctx, "kept")
	require.NoError(t, err)
	assert.NotNil(t, u)
}

func TestStore_RollbackKeepsOutsideWrites(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})
	txDone := make(chan error, 1)
	go func() {
		txDone <- store.Tx.RunInTx(ctx, func(ctx context.Context) error {
			if err := store.Users.Create(ctx, &domain.User{Username: "ghost"}); err != nil {
				return err
			}
			close(started)
			<-release
			return errors.New("boom")
		})
	}()
	<-started

	written := make(chan error, 1)
	go func() {
		written <- store.Users.Create(ctx, &domain.User{Username: "bob", Email: "bob@example.com"})
	}()

	select {
	case <-written:
		t.Fatal("write outside the transaction finished while it was running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.Error(t, <-txDone)
	require.NoError(t, <-written)

	bob, err := store.Users.GetByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.NotNil(t, bob)

	ghost, err := store.Users.GetByUsername(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, ghost)
}

func TestStore_MemberScopeUsesStoredMemberships(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	alice := addUser(t, store, "alice")
	bob := addUser(t, store, "bob")
	red := addTeam(t, store, "red", 0, alice)
	blue := addTeam(t, store, "blue", time.Minute, alice, bob)

	// a stale snapshot is ignored
	scope := access.MemberOf{UserID: bob.ID, TeamIDs: []int64{red.ID}}

	teams, count, err := store.Teams.List(ctx, scope, domain.TeamFilter{}, domain.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.Len(t, teams, 1)
	assert.Equal(t, blue.ID, teams[0].ID)

	teams, count, err = store.Teams.List(ctx, access.Everything{}, domain.TeamFilter{}, domain.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, []int64{blue.ID, red.ID}, []int64{teams[0].ID, teams[1].ID})

	got, err := store.Teams.GetByUUID(ctx, red.UUID, access.MemberOf{UserID: bob.ID})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_InvitationHydration(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	alice := addUser(t, store, "alice")
	team := addTeam(t, store, "red", 0)

	inv := &domain.Invitation{UUID: uuid.New(), TeamID: team.ID, Email: alice.Email, InvitedByID: &alice.ID, CreatedAt: base}
	require.NoError(t, store.Invitations.Create(ctx, inv))

	got, err := store.Invitations.GetByUUID(ctx, inv.UUID, access.JoinRequests(access.Principal{UserID: alice.ID, Email: alice.Email}))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, team.UUID, got.TeamUUID)
	require.NotNil(t, got.InvitedBy)
	assert.Equal(t, "alice", *got.InvitedBy)
	assert.True(t, got.IsJoinRequest())

	accepted := true
	list, count, err := store.Invitations.List(ctx, access.Everything{}, domain.InvitationFilter{IsAccepted: &accepted}, domain.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Empty(t, list)

	require.NoError(t, store.Invitations.MarkAccepted(ctx, got.ID, alice.ID))
	_, count, err = store.Invitations.List(ctx, access.Everything{}, domain.InvitationFilter{IsAccepted: &accepted}, domain.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStore_TeamDeleteCascades(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	alice := addUser(t, store, "alice")
	team := addTeam(t, store, "red", 0, alice)

	res := &domain.Resource{ResourceBase: domain.NewResourceBase("vm", "", base), TeamID: team.ID, Kind: "vm"}
	require.NoError(t, store.Resources.Create(ctx, res))
	key := &domain.APIKey{UUID: uuid.New(), Name: "ci", Prefix: "abcd1234", TeamID: team.ID, UserID: alice.ID}
	require.NoError(t, store.APIKeys.Create(ctx, key))

	require.NoError(t, store.Teams.Delete(ctx, team.ID))

	ids, err := store.Memberships.TeamIDsForUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)

	gotRes, err := store.Resources.GetByUUID(ctx, res.UUID, access.Everything{})
	require.NoError(t, err)
	assert.Nil(t, gotRes)

	gotKey, err := store.APIKeys.GetByPrefix(ctx, "abcd1234")
	require.NoError(t, err)
	assert.Nil(t, gotKey)
}

func TestStore_ResourceFilterAndPaging(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	team := addTeam(t, store, "red", 0)
	for i := 0; i < 5; i++ {
		res := &domain.Resource{ResourceBase: domain.NewResourceBase("r", "", base.Add(time.Duration(i)*time.Second)), TeamID: team.ID, Kind: "vm"}
		if i%2 == 0 {
			res.State = lifecycle.OK
		}
		require.NoError(t, store.Resources.Create(ctx, res))
	}

	ok := lifecycle.OK
	list, count, err := store.Resources.List(ctx, access.Everything{}, domain.ResourceFilter{State: &ok}, domain.PageRequest{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	require.Len(t, list, 2)
	assert.True(t, list[0].CreatedAt.After(list[1].CreatedAt))
	assert.Equal(t, team.UUID, list[0].TeamUUID)

	list, _, err = store.Resources.List(ctx, access.Everything{}, domain.ResourceFilter{}, domain.PageRequest{Limit: 2, Offset: 4})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
