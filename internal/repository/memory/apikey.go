package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/Rrens/teamhub/internal/access"
	"github.com/Rrens/teamhub/internal/domain"
	"github.com/google/uuid"
)

// APIKeyRepository stores API keys in memory
type APIKeyRepository struct {
	s *Store
}

func (s *Store) hydrateAPIKey(key domain.APIKey) domain.APIKey {
	key.TeamUUID = s.teams[key.TeamID].UUID
	key.Key = ""
	return key
}

func (r *APIKeyRepository) Create(ctx context.Context, key *domain.APIKey) error {
	defer r.s.lockWrite(ctx)()

	for _, existing := range r.s.apiKeys {
		if existing.UUID == key.UUID || existing.Prefix == key.Prefix ||
			(existing.TeamID == key.TeamID && existing.Name == key.Name) {
			return fmt.Errorf("failed to create api key: %w", domain.ErrDuplicate)
		}
	}

	key.ID = r.s.next("api_keys")
	r.s.apiKeys[key.ID] = r.s.hydrateAPIKey(*key)
	key.TeamUUID = r.s.teams[key.TeamID].UUID
	return nil
}

func (r *APIKeyRepository) GetByPrefix(_ context.Context, prefix string) (*domain.APIKey, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, key := range r.s.apiKeys {
		if key.Prefix == prefix {
			key = r.s.hydrateAPIKey(key)
			return &key, nil
		}
	}
	return nil, nil
}

func (r *APIKeyRepository) GetByUUID(_ context.Context, id uuid.UUID, scope access.Cond) (*domain.APIKey, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	cond := r.s.resolve(scope)
	for _, key := range r.s.apiKeys {
		if key.UUID == id && cond.Match(key) {
			key = r.s.hydrateAPIKey(key)
			return &key, nil
		}
	}
	return nil, nil
}

func (r *APIKeyRepository) List(_ context.Context, scope access.Cond, filter domain.APIKeyFilter, page domain.PageRequest) ([]domain.APIKey, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	cond := r.s.resolve(scope)
	var keys []domain.APIKey
	for _, key := range r.s.apiKeys {
		key = r.s.hydrateAPIKey(key)
		if !cond.Match(key) {
			continue
		}
		if filter.TeamUUID != nil && key.TeamUUID != *filter.TeamUUID {
			continue
		}
		keys = append(keys, key)
	}
	newestFirst(keys,
		func(k domain.APIKey) time.Time { return k.CreatedAt },
		func(k domain.APIKey) int64 { return k.ID },
	)

	return domain.Window(keys, page), len(keys), nil
}

func (r *APIKeyRepository) NameExistsInTeam(_ context.Context, teamID int64, name string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, key := range r.s.apiKeys {
		if key.TeamID == teamID && key.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (r *APIKeyRepository) Delete(ctx context.Context, id int64) error {
	defer r.s.lockWrite(ctx)()

	delete(r.s.apiKeys, id)
	return nil
}
