package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/Rrens/teamhub/internal/access"
	"github.com/Rrens/teamhub/internal/domain"
	"github.com/google/uuid"
)

// ResourceRepository stores resources in memory
type ResourceRepository struct {
	s *Store
}

func (s *Store) hydrateResource(res domain.Resource) domain.Resource {
	res.TeamUUID = s.teams[res.TeamID].UUID
	return res
}

func (r *ResourceRepository) Create(ctx context.Context, res *domain.Resource) error {
	defer r.s.lockWrite(ctx)()

	for _, existing := range r.s.resources {
		if existing.UUID == res.UUID {
			return fmt.Errorf("failed to create resource: %w", domain.ErrDuplicate)
		}
	}

	res.ID = r.s.next("resources")
	*res = r.s.hydrateResource(*res)
	r.s.resources[res.ID] = *res
	return nil
}

func (r *ResourceRepository) GetByUUID(_ context.Context, id uuid.UUID, scope access.Cond) (*domain.Resource, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	cond := r.s.resolve(scope)
	for _, res := range r.s.resources {
		if res.UUID == id && cond.Match(res) {
			res = r.s.hydrateResource(res)
			return &res, nil
		}
	}
	return nil, nil
}

func (r *ResourceRepository) List(_ context.Context, scope access.Cond, filter domain.ResourceFilter, page domain.PageRequest) ([]domain.Resource, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	cond := r.s.resolve(scope)
	var resources []domain.Resource
	for _, res := range r.s.resources {
		res = r.s.hydrateResource(res)
		if !cond.Match(res) {
			continue
		}
		if filter.TeamUUID != nil && res.TeamUUID != *filter.TeamUUID {
			continue
		}
		if filter.State != nil && res.State != *filter.State {
			continue
		}
		resources = append(resources, res)
	}
	newestFirst(resources,
		func(res domain.Resource) time.Time { return res.CreatedAt },
		func(res domain.Resource) int64 { return res.ID },
	)

	return domain.Window(resources, page), len(resources), nil
}

func (r *ResourceRepository) Update(ctx context.Context, res *domain.Resource) error {
	defer r.s.lockWrite(ctx)()

	stored, ok := r.s.resources[res.ID]
	if !ok {
		return nil
	}
	updated := *res
	updated.TeamID = stored.TeamID
	updated.Kind = stored.Kind
	updated.CreatedAt = stored.CreatedAt
	r.s.resources[res.ID] = updated
	return nil
}

func (r *ResourceRepository) Delete(ctx context.Context, id int64) error {
	defer r.s.lockWrite(ctx)()

	delete(r.s.resources, id)
	return nil
}
