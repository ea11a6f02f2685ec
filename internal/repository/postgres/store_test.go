package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/Rrens/teamhub/internal/access"
	"github.com/Rrens/teamhub/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestStore connects to TEST_DATABASE_URL, migrates and empties the schema
func openTestStore(t *testing.T) *domain.Store {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	require.NoError(t, RunMigrations(dsn, "file://../../../migrations"))

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `TRUNCATE users, tokens, teams, memberships, invitations, api_keys, resources RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	return NewStore(&DB{Pool: pool})
}

func seedUser(t *testing.T, store *domain.Store, username string) *domain.User {
	t.Helper()
	now := time.Now().UTC()
	user := &domain.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, store.Users.Create(context.Background(), user))
	return user
}

func seedTeam(t *testing.T, store *domain.Store, name string, members ...*domain.User) *domain.Team {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	team := &domain.Team{UUID: uuid.New(), Name: &name, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, store.Teams.Create(ctx, team))
	for _, u := range members {
		require.NoError(t, store.Memberships.Create(ctx, &domain.Membership{
			TeamID: team.ID, UserID: u.ID, Role: domain.RoleAdmin, CreatedAt: now, UpdatedAt: now,
		}))
	}
	return team
}

func TestStore_TeamScope(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, store, "alice")
	bob := seedUser(t, store, "bob")
	seedTeam(t, store, "red", alice)
	blue := seedTeam(t, store, "blue", alice, bob)

	teams, count, err := store.Teams.List(ctx, access.MemberOf{UserID: bob.ID}, domain.TeamFilter{}, domain.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.Len(t, teams, 1)
	assert.Equal(t, blue.UUID, teams[0].UUID)

	_, count, err = store.Teams.List(ctx, access.Everything{}, domain.TeamFilter{NameContains: "E"}, domain.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestStore_DuplicateMembership(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, store, "alice")
	team := seedTeam(t, store, "red", alice)

	err := store.Memberships.Create(ctx, &domain.Membership{TeamID: team.ID, UserID: alice.ID, Role: domain.RoleGeneral})
	assert.True(t, errors.Is(err, domain.ErrDuplicate))
}

func TestStore_DuplicateEmail(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	seedUser(t, store, "alice")

	err := store.Users.Create(ctx, &domain.User{Username: "alice2", Email: "alice@example.com", PasswordHash: "x", CreatedAt: now, UpdatedAt: now})
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	// accounts without an email never collide
	require.NoError(t, store.Users.Create(ctx, &domain.User{Username: "svc1", PasswordHash: "x", CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, store.Users.Create(ctx, &domain.User{Username: "svc2", PasswordHash: "x", CreatedAt: now, UpdatedAt: now}))
}

func TestStore_InvitationsAreDistinct(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, store, "alice")
	team := seedTeam(t, store, "red", alice)
	now := time.Now().UTC()

	// addressed to alice and owned by her team: matches both branches of the scope
	inv := &domain.Invitation{
		UUID: uuid.New(), TeamID: team.ID, Email: alice.Email, Role: domain.RoleGeneral,
		InvitedByID: &alice.ID, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, store.Invitations.Create(ctx, inv))

	p := access.Principal{UserID: alice.ID, Email: alice.Email}
	invitations, count, err := store.Invitations.List(ctx, access.Invitations(p), domain.InvitationFilter{}, domain.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.Len(t, invitations, 1)
	assert.Equal(t, "alice", *invitations[0].InvitedBy)
	assert.True(t, invitations[0].IsJoinRequest())
}

func TestStore_RunInTxRollsBack(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.Tx.RunInTx(ctx, func(ctx context.Context) error {
		now := time.Now().UTC()
		if err := store.Users.Create(ctx, &domain.User{Username: "phantom", PasswordHash: "x", CreatedAt: now, UpdatedAt: now}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	user, err := store.Users.GetByUsername(ctx, "phantom")
	require.NoError(t, err)
	assert.Nil(t, user)
}
