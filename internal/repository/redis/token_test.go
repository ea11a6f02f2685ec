package redis

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/Rrens/teamhub/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestClient(t *testing.T) *Client {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	require.NoError(t, rdb.FlushDB(context.Background()).Err())
	t.Cleanup(func() { rdb.Close() })

	return &Client{rdb: rdb}
}

func TestTokenRepository_Lifecycle(t *testing.T) {
	repo := NewTokenRepository(openTestClient(t))
	ctx := context.Background()

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, &domain.Token{Key: "abc", UserID: 42, CreatedAt: created}))

	token, err := repo.GetByKey(ctx, "abc")
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, int64(42), token.UserID)
	assert.True(t, created.Equal(token.CreatedAt))

	byUser, err := repo.GetByUserID(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, byUser)
	assert.Equal(t, "abc", byUser.Key)

	err = repo.Create(ctx, &domain.Token{Key: "def", UserID: 42, CreatedAt: created})
	assert.True(t, errors.Is(err, domain.ErrDuplicate))

	require.NoError(t, repo.Delete(ctx, "abc"))

	token, err = repo.GetByKey(ctx, "abc")
	require.NoError(t, err)
	assert.Nil(t, token)

	byUser, err = repo.GetByUserID(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, byUser)
}

func TestRateLimiter_Window(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC))
	limiter := NewRateLimiter(openTestClient(t), clock, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, _, _, err := limiter.Allow(ctx, "login:1.2.3.4")
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, remaining, reset, err := limiter.Allow(ctx, "login:1.2.3.4")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, 0, remaining)
	assert.Equal(t, clock.Now().Add(time.Minute), reset)

	clock.Advance(time.Minute)
	allowed, _, _, err = limiter.Allow(ctx, "login:1.2.3.4")
	require.NoError(t, err)
	assert.True(t, allowed)
}
