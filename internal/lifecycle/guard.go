package lifecycle

import (
	"fmt"
	"strings"

	"github.com/Rrens/teamhub/internal/pkg/apperr"
)

// Guard restricts when an externally triggered operation may start. It is
// checked by handlers before any transition runs and never consulted by Next.
type Guard struct {
	valid []State
}

// RequireState builds a guard accepting only the given states.
func RequireState(valid ...State) Guard {
	return Guard{valid: valid}
}

var (
	// UpdateGuard admits updates only on healthy resources.
	UpdateGuard = RequireState(OK)
	// DeleteGuard admits deletes on healthy or failed resources.
	DeleteGuard = RequireState(OK, Erred)
)

// Check returns a 409 error when s is not in one of the guard's states.
func (g Guard) Check(s Stateful) error {
	current := s.CurrentState()
	for _, state := range g.valid {
		if state == current {
			return nil
		}
	}

	names := make([]string, len(g.valid))
	for i, state := range g.valid {
		names[i] = state.String()
	}
	return apperr.Conflict(fmt.Sprintf("Valid states for operation: %s.", strings.Join(names, ", ")))
}

// RuntimeStateful exposes the runtime axis of a resource.
type RuntimeStateful interface {
	GetRuntimeState() RuntimeState
}

// RuntimeGuard is the runtime-state counterpart of Guard.
type RuntimeGuard struct {
	valid []RuntimeState
}

// RequireRuntimeState builds a guard accepting only the given runtime states.
func RequireRuntimeState(valid ...RuntimeState) RuntimeGuard {
	return RuntimeGuard{valid: valid}
}

// Check returns a 409 error when r is not in one of the guard's runtime states.
func (g RuntimeGuard) Check(r RuntimeStateful) error {
	current := r.GetRuntimeState()
	for _, state := range g.valid {
		if state == current {
			return nil
		}
	}

	names := make([]string, len(g.valid))
	for i, state := range g.valid {
		names[i] = string(state)
	}
	return apperr.Conflict(fmt.Sprintf("Valid runtime states for operation: %s.", strings.Join(names, ", ")))
}
