// Package executor drives a resource through its lifecycle while the backing
// service does the work. Every transition is persisted before the next step;
// callers run a whole operation inside one transaction.
package executor

import (
	"context"
	"fmt"

	"github.com/Rrens/teamhub/internal/domain"
	"github.com/Rrens/teamhub/internal/lifecycle"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Backend performs resource operations on the backing service
type Backend interface {
	// Create provisions the resource and returns its backend ID
	Create(ctx context.Context, res *domain.Resource) (string, error)
	Update(ctx context.Context, res *domain.Resource) error
	Delete(ctx context.Context, res *domain.Resource) error
}

// Executor runs create, update and delete synchronously
type Executor struct {
	repo    domain.ResourceRepository
	backend Backend
	clock   clockwork.Clock
}

// New creates an executor
func New(repo domain.ResourceRepository, backend Backend, clock clockwork.Clock) *Executor {
	return &Executor{repo: repo, backend: backend, clock: clock}
}

// Create provisions a resource persisted in CREATION_SCHEDULED. A backend
// failure leaves the resource ERRED and is not returned.
func (e *Executor) Create(ctx context.Context, res *domain.Resource) error {
	if err := e.transition(ctx, res, lifecycle.BeginCreating); err != nil {
		return err
	}

	backendID, err := e.backend.Create(ctx, res)
	if err != nil {
		return e.fail(ctx, res, "create", err)
	}

	res.BackendID = backendID
	res.SetRuntimeState(lifecycle.InService)
	res.ErrorMessage = ""
	res.ErrorTraceback = ""
	return e.transition(ctx, res, lifecycle.SetOK)
}

// Update pushes a resource persisted in UPDATE_SCHEDULED to the backend
func (e *Executor) Update(ctx context.Context, res *domain.Resource) error {
	if err := e.transition(ctx, res, lifecycle.BeginUpdating); err != nil {
		return err
	}

	if err := e.backend.Update(ctx, res); err != nil {
		return e.fail(ctx, res, "update", err)
	}

	res.ErrorMessage = ""
	res.ErrorTraceback = ""
	return e.transition(ctx, res, lifecycle.SetOK)
}

// Delete removes a resource persisted in DELETION_SCHEDULED. Without force a
// backend failure leaves the row ERRED; with force the row goes regardless.
func (e *Executor) Delete(ctx context.Context, res *domain.Resource, force bool) error {
	if err := e.transition(ctx, res, lifecycle.BeginDeleting); err != nil {
		return err
	}

	if res.BackendID != "" {
		if err := e.backend.Delete(ctx, res); err != nil {
			if !force {
				return e.fail(ctx, res, "delete", err)
			}
			log.Warn().Err(err).Str("resource", res.UUID.String()).Msg("backend delete failed, removing resource anyway")
		}
	}

	res.SetRuntimeState(lifecycle.Decommissioned)
	if err := e.repo.Delete(ctx, res.ID); err != nil {
		return fmt.Errorf("failed to delete resource: %w", err)
	}

	log.Info().Str("resource", res.UUID.String()).Bool("force", force).Msg("resource deleted")
	return nil
}

// transition applies op and persists the result
func (e *Executor) transition(ctx context.Context, res *domain.Resource, op lifecycle.Operation) error {
	from := res.CurrentState()
	if err := lifecycle.Apply(res, op); err != nil {
		return err
	}
	res.UpdatedAt = e.clock.Now().UTC()

	if err := e.repo.Update(ctx, res); err != nil {
		return fmt.Errorf("failed to persist %s: %w", op, err)
	}

	log.Debug().
		Str("resource", res.UUID.String()).
		Str("op", string(op)).
		Stringer("from", from).
		Stringer("to", res.CurrentState()).
		Msg("resource transition")
	return nil
}

// fail records a backend error on the resource and moves it to ERRED
func (e *Executor) fail(ctx context.Context, res *domain.Resource, action string, cause error) error {
	log.Error().Err(cause).Str("resource", res.UUID.String()).Str("action", action).Msg("backend operation failed")

	res.ErrorMessage = cause.Error()
	res.ErrorTraceback = fmt.Sprintf("%s %s: %+v", res.Kind, action, cause)
	return e.transition(ctx, res, lifecycle.SetErred)
}
