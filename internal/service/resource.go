package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Rrens/teamhub/internal/access"
	"github.com/Rrens/teamhub/internal/domain"
	"github.com/Rrens/teamhub/internal/executor"
	"github.com/Rrens/teamhub/internal/lifecycle"
	"github.com/Rrens/teamhub/internal/pkg/apperr"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

var inServiceGuard = lifecycle.RequireRuntimeState(lifecycle.InService)

// ResourceService handles team-owned provisioned resources
type ResourceService struct {
	resourceRepo domain.ResourceRepository
	teamRepo     domain.TeamRepository
	executor     *executor.Executor
	tx           domain.TxManager
	clock        clockwork.Clock
}

// NewResourceService creates a new resource service
func NewResourceService(store *domain.Store, exec *executor.Executor, clock clockwork.Clock) *ResourceService {
	return &ResourceService{
		resourceRepo: store.Resources,
		teamRepo:     store.Teams,
		executor:     exec,
		tx:           store.Tx,
		clock:        clock,
	}
}

// List returns the resources of the principal's teams
func (s *ResourceService) List(ctx context.Context, p access.Principal, filter domain.ResourceFilter, page domain.PageRequest) (domain.Page[domain.Resource], error) {
	resources, count, err := s.resourceRepo.List(ctx, access.Resources(p), filter, page)
	if err != nil {
		return domain.Page[domain.Resource]{}, fmt.Errorf("failed to list resources: %w", err)
	}
	return domain.NewPage(resources, count), nil
}

// Get returns one resource
func (s *ResourceService) Get(ctx context.Context, p access.Principal, id uuid.UUID) (*domain.Resource, error) {
	res, err := s.resourceRepo.GetByUUID(ctx, id, access.Resources(p))
	if err != nil {
		return nil, fmt.Errorf("failed to get resource: %w", err)
	}
	if res == nil {
		return nil, apperr.NotFound("")
	}
	if !access.CanAccessResource(p, res) {
		return nil, apperr.Forbidden("")
	}
	return res, nil
}

// Create stores a resource and provisions it. A backend failure is reported
// through the resource's state, not as an error. A storage failure rolls the
// whole operation back.
func (s *ResourceService) Create(ctx context.Context, p access.Principal, input domain.ResourceCreate) (*domain.Resource, error) {
	team, err := s.teamRepo.GetByUUID(ctx, input.Team, access.Everything{})
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	if team == nil {
		return nil, invalidPK("team", input.Team)
	}
	if !access.CanAccessTeam(p, team) {
		return nil, apperr.Forbidden("")
	}

	res := &domain.Resource{
		ResourceBase: domain.NewResourceBase(input.Name, input.Description, s.clock.Now().UTC()),
		TeamID:       team.ID,
		TeamUUID:     team.UUID,
		Kind:         input.Kind,
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.resourceRepo.Create(ctx, res); err != nil {
			return fmt.Errorf("failed to create resource: %w", err)
		}

		log.Info().Str("resource", res.UUID.String()).Str("team", team.UUID.String()).Str("kind", res.Kind).Msg("resource creation scheduled")

		return s.executor.Create(ctx, res)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Update changes a healthy, in-service resource and pushes it to the backend
func (s *ResourceService) Update(ctx context.Context, p access.Principal, id uuid.UUID, input domain.ResourceUpdate) (*domain.Resource, error) {
	res, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.UpdateGuard.Check(res); err != nil {
		return nil, err
	}
	if err := inServiceGuard.Check(res); err != nil {
		return nil, err
	}
	if err := res.CheckBackendID(); err != nil {
		return nil, err
	}

	if input.Name != nil {
		res.Name = *input.Name
	}
	if input.Description != nil {
		res.Description = *input.Description
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.schedule(ctx, res, lifecycle.ScheduleUpdating); err != nil {
			return err
		}
		return s.executor.Update(ctx, res)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Delete removes a resource. Erred resources are removed even when the
// backend refuses. When the row cannot be written the resource keeps its
// previous state, so the delete can be retried.
func (s *ResourceService) Delete(ctx context.Context, p access.Principal, id uuid.UUID) error {
	res, err := s.Get(ctx, p, id)
	if err != nil {
		return err
	}
	if err := lifecycle.DeleteGuard.Check(res); err != nil {
		return err
	}

	force := res.State == lifecycle.Erred
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.schedule(ctx, res, lifecycle.ScheduleDeleting); err != nil {
			return err
		}
		return s.executor.Delete(ctx, res, force)
	})
}

// Recover moves an erred resource back to OK
func (s *ResourceService) Recover(ctx context.Context, p access.Principal, id uuid.UUID) (*domain.Resource, error) {
	res, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := s.schedule(ctx, res, lifecycle.Recover); err != nil {
		return nil, err
	}

	log.Info().Str("resource", res.UUID.String()).Msg("resource recovered")
	return res, nil
}

func (s *ResourceService) schedule(ctx context.Context, res *domain.Resource, op lifecycle.Operation) error {
	if err := lifecycle.Apply(res, op); err != nil {
		var transitionErr *lifecycle.TransitionError
		if errors.As(err, &transitionErr) {
			return apperr.Conflict(transitionErr.Error())
		}
		return err
	}

	res.UpdatedAt = s.clock.Now().UTC()
	if err := s.resourceRepo.Update(ctx, res); err != nil {
		return fmt.Errorf("failed to update resource: %w", err)
	}
	return nil
}
