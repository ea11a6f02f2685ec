package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Rrens/teamhub/internal/domain"
	"github.com/jackc/pgx/v5"
)

// TokenRepository stores bearer tokens in the tokens table
type TokenRepository struct {
	db *DB
}

// NewTokenRepository creates a new token repository
func NewTokenRepository(db *DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Create stores a token. A second token for the same user is a duplicate.
func (r *TokenRepository) Create(ctx context.Context, token *domain.Token) error {
	_, err := r.db.conn(ctx).Exec(ctx,
		`INSERT INTO tokens (key, user_id, created_at) VALUES ($1, $2, $3)`,
		token.Key, token.UserID, token.CreatedAt,
	)
	if err != nil {
		return wrapWriteErr("create token", err)
	}
	return nil
}

func (r *TokenRepository) getBy(ctx context.Context, column string, value any) (*domain.Token, error) {
	var token domain.Token
	err := r.db.conn(ctx).QueryRow(ctx,
		`SELECT key, user_id, created_at FROM tokens WHERE `+column+` = $1`, value,
	).Scan(&token.Key, &token.UserID, &token.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	return &token, nil
}

// GetByKey retrieves a token by its key
func (r *TokenRepository) GetByKey(ctx context.Context, key string) (*domain.Token, error) {
	return r.getBy(ctx, "key", key)
}

// GetByUserID retrieves the token held by a user
func (r *TokenRepository) GetByUserID(ctx context.Context, userID int64) (*domain.Token, error) {
	return r.getBy(ctx, "user_id", userID)
}

// Delete removes a token; deleting a missing token is not an error
func (r *TokenRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.conn(ctx).Exec(ctx, `DELETE FROM tokens WHERE key = $1`, key); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
