package executor

import (
	"context"

	"github.com/Rrens/teamhub/internal/domain"
	"github.com/google/uuid"
)

// LocalBackend stands in for a backing service when none is configured. It
// accepts every operation and hands out random backend IDs.
type LocalBackend struct{}

func (LocalBackend) Create(context.Context, *domain.Resource) (string, error) {
	return uuid.NewString(), nil
}

func (LocalBackend) Update(context.Context, *domain.Resource) error { return nil }
func (LocalBackend) Delete(context.Context, *domain.Resource) error { return nil }
