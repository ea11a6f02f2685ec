package memory

import (
	"context"
	"fmt"

	"github.com/Rrens/teamhub/internal/domain"
)

// TokenRepository stores bearer tokens in memory
type TokenRepository struct {
	s *Store
}

func (r *TokenRepository) Create(ctx context.Context, token *domain.Token) error {
	defer r.s.lockWrite(ctx)()

	if _, ok := r.s.tokens[token.Key]; ok {
		return fmt.Errorf("failed to create token: %w", domain.ErrDuplicate)
	}
	for _, t := range r.s.tokens {
		if t.UserID == token.UserID {
			return fmt.Errorf("failed to create token: %w", domain.ErrDuplicate)
		}
	}

	r.s.tokens[token.Key] = *token
	return nil
}

func (r *TokenRepository) GetByKey(_ context.Context, key string) (*domain.Token, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.tokens[key]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r *TokenRepository) GetByUserID(_ context.Context, userID int64) (*domain.Token, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, t := range r.s.tokens {
		if t.UserID == userID {
			return &t, nil
		}
	}
	return nil, nil
}

func (r *TokenRepository) Delete(ctx context.Context, key string) error {
	defer r.s.lockWrite(ctx)()

	delete(r.s.tokens, key)
	return nil
}
