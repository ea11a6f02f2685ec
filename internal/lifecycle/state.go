// Package lifecycle implements the provisioning state machine shared by
// resources backed by an external service.
package lifecycle

import (
	"fmt"
	"strings"
)

// State is the provisioning phase of a resource.
type State int

// Numeric values are persisted and must not change.
const (
	UpdateScheduled   State = 1
	Updating          State = 2
	OK                State = 3
	Erred             State = 4
	CreationScheduled State = 5
	Creating          State = 6
	DeletionScheduled State = 7
	Deleting          State = 8
)

var stateNames = map[State]string{
	CreationScheduled: "Creation Scheduled",
	Creating:          "Creating",
	UpdateScheduled:   "Update Scheduled",
	Updating:          "Updating",
	DeletionScheduled: "Deletion Scheduled",
	Deleting:          "Deleting",
	OK:                "OK",
	Erred:             "Erred",
}

// States lists every state in display order.
var States = []State{
	CreationScheduled, Creating, UpdateScheduled, Updating,
	DeletionScheduled, Deleting, OK, Erred,
}

// String returns the human-readable name.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	_, ok := stateNames[s]
	return ok
}

// ParseState resolves a human-readable name ("Creation Scheduled") or the
// upper snake case form ("CREATION_SCHEDULED").
func ParseState(name string) (State, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(name), "_", " ")
	for state, stateName := range stateNames {
		if strings.EqualFold(stateName, normalized) {
			return state, nil
		}
	}
	return 0, fmt.Errorf("unknown state %q", name)
}

func (s State) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("unknown state %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	state, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = state
	return nil
}

// RuntimeState is the operational availability of a resource, independent
// of its provisioning phase.
type RuntimeState string

const (
	Requested      RuntimeState = "REQUESTED"
	InService      RuntimeState = "IN_SERVICE"
	Decommissioned RuntimeState = "DECOMMISSIONED"
)

// Valid reports whether r is a known runtime state.
func (r RuntimeState) Valid() bool {
	switch r {
	case Requested, InService, Decommissioned:
		return true
	}
	return false
}
