package domain

import (
	"time"

	"github.com/Rrens/teamhub/internal/lifecycle"
	"github.com/Rrens/teamhub/internal/pkg/apperr"
	"github.com/google/uuid"
)

// Provisioned is the capability shared by every resource backed by an
// external service.
type Provisioned interface {
	lifecycle.Stateful
	lifecycle.RuntimeStateful
	GetUUID() uuid.UUID
	SetRuntimeState(lifecycle.RuntimeState)
}

// ResourceBase holds the fields common to provisioned resources
type ResourceBase struct {
	UUID           uuid.UUID              `json:"uuid"`
	Name           string                 `json:"name"`
	Description    string                 `json:"description"`
	ErrorMessage   string                 `json:"error_message"`
	ErrorTraceback string                 `json:"-"`
	BackendID      string                 `json:"backend_id"`
	RuntimeState   lifecycle.RuntimeState `json:"runtime_state"`
	State          lifecycle.State        `json:"state"`
	CreatedAt      time.Time              `json:"created"`
	UpdatedAt      time.Time              `json:"modified"`
}

// NewResourceBase returns a base in its initial states
func NewResourceBase(name, description string, now time.Time) ResourceBase {
	return ResourceBase{
		UUID:         uuid.New(),
		Name:         name,
		Description:  description,
		RuntimeState: lifecycle.Requested,
		State:        lifecycle.CreationScheduled,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (b *ResourceBase) GetUUID() uuid.UUID                       { return b.UUID }
func (b *ResourceBase) CurrentState() lifecycle.State            { return b.State }
func (b *ResourceBase) SetState(s lifecycle.State)               { b.State = s }
func (b *ResourceBase) GetRuntimeState() lifecycle.RuntimeState  { return b.RuntimeState }
func (b *ResourceBase) SetRuntimeState(r lifecycle.RuntimeState) { b.RuntimeState = r }

// CheckBackendID fails when the resource has not been provisioned yet
func (b *ResourceBase) CheckBackendID() error {
	if b.BackendID == "" {
		return apperr.Validation("Resource does not have backend ID.")
	}
	return nil
}

// Resource is a team-owned provisioned resource
type Resource struct {
	ID int64 `json:"id"`
	ResourceBase
	TeamID   int64     `json:"-"`
	TeamUUID uuid.UUID `json:"team"`
	Kind     string    `json:"kind"`
}

func (r Resource) OwnerTeamID() int64 {
	return r.TeamID
}

// ResourceCreate represents resource creation data
type ResourceCreate struct {
	Team        uuid.UUID `json:"team" validate:"required"`
	Name        string    `json:"name" validate:"required,max=150"`
	Description string    `json:"description" validate:"max=2000"`
	Kind        string    `json:"kind" validate:"required,max=100"`
}

// ResourceUpdate represents resource update data
type ResourceUpdate struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,max=150"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
}

// ResourceFilter narrows resource listings
type ResourceFilter struct {
	TeamUUID *uuid.UUID
	State    *lifecycle.State
}
