package lifecycle

import (
	"errors"
	"fmt"
)

// Operation names a transition.
type Operation string

const (
	BeginCreating    Operation = "begin_creating"
	BeginUpdating    Operation = "begin_updating"
	BeginDeleting    Operation = "begin_deleting"
	ScheduleUpdating Operation = "schedule_updating"
	ScheduleDeleting Operation = "schedule_deleting"
	SetOK            Operation = "set_ok"
	SetErred         Operation = "set_erred"
	Recover          Operation = "recover"
)

// ErrInvalidTransition is wrapped by every TransitionError.
var ErrInvalidTransition = errors.New("invalid state transition")

// TransitionError reports an operation that is not defined for the current state.
type TransitionError struct {
	Op   Operation
	From State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s from state %s", e.Op, e.From)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// Wildcard operations accept any source state.
var targets = map[Operation]State{
	BeginCreating:    Creating,
	BeginUpdating:    Updating,
	BeginDeleting:    Deleting,
	ScheduleUpdating: UpdateScheduled,
	ScheduleDeleting: DeletionScheduled,
	SetOK:            OK,
	SetErred:         Erred,
}

// Next returns the state reached by applying op to from. Every operation is
// defined for every source state except Recover, which is defined only on Erred.
// Sequencing (for example begin_deleting while Creating) is the caller's concern.
func Next(from State, op Operation) (State, error) {
	if op == Recover {
		if from != Erred {
			return from, &TransitionError{Op: op, From: from}
		}
		return OK, nil
	}

	to, ok := targets[op]
	if !ok {
		return from, fmt.Errorf("unknown operation %q", op)
	}
	return to, nil
}

// Stateful is implemented by anything carrying a provisioning state.
type Stateful interface {
	CurrentState() State
	SetState(State)
}

// Apply runs op against s. On error the state is left unchanged.
func Apply(s Stateful, op Operation) error {
	next, err := Next(s.CurrentState(), op)
	if err != nil {
		return err
	}
	s.SetState(next)
	return nil
}
