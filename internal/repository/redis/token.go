package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Rrens/teamhub/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	tokenPrefix     = "token:"
	tokenUserPrefix = "token:user:"
)

// TokenRepository keeps bearer tokens in Redis. Each token is a hash under
// token:<key>; token:user:<id> points at the key a user holds.
type TokenRepository struct {
	client *Client
}

// NewTokenRepository creates a new token repository
func NewTokenRepository(client *Client) *TokenRepository {
	return &TokenRepository{client: client}
}

func tokenKey(key string) string {
	return tokenPrefix + key
}

func tokenUserKey(userID int64) string {
	return tokenUserPrefix + strconv.FormatInt(userID, 10)
}

// Create stores a token. A second token for the same user is a duplicate.
func (r *TokenRepository) Create(ctx context.Context, token *domain.Token) error {
	ok, err := r.client.rdb.SetNX(ctx, tokenUserKey(token.UserID), token.Key, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to create token: %w", err)
	}
	if !ok {
		return fmt.Errorf("failed to create token: %w", domain.ErrDuplicate)
	}

	err = r.client.rdb.HSet(ctx, tokenKey(token.Key),
		"user_id", token.UserID,
		"created_at", token.CreatedAt.UTC().Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		r.client.rdb.Del(ctx, tokenUserKey(token.UserID))
		return fmt.Errorf("failed to create token: %w", err)
	}

	return nil
}

// GetByKey retrieves a token by its key
func (r *TokenRepository) GetByKey(ctx context.Context, key string) (*domain.Token, error) {
	fields, err := r.client.rdb.HGetAll(ctx, tokenKey(key)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	userID, err := strconv.ParseInt(fields["user_id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token user: %w", err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, fields["created_at"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse token timestamp: %w", err)
	}

	return &domain.Token{Key: key, UserID: userID, CreatedAt: createdAt}, nil
}

// GetByUserID retrieves the token held by a user
func (r *TokenRepository) GetByUserID(ctx context.Context, userID int64) (*domain.Token, error) {
	key, err := r.client.rdb.Get(ctx, tokenUserKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	token, err := r.GetByKey(ctx, key)
	if err != nil || token != nil {
		return token, err
	}

	// dangling index entry left by an interrupted Create
	r.client.rdb.Del(ctx, tokenUserKey(userID))
	return nil, nil
}

// Delete removes a token and its user index
func (r *TokenRepository) Delete(ctx context.Context, key string) error {
	token, err := r.GetByKey(ctx, key)
	if err != nil {
		return err
	}
	if token == nil {
		return nil
	}

	_, err = r.client.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, tokenKey(key))
		pipe.Del(ctx, tokenUserKey(token.UserID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
