package domain

import (
	"time"

	"github.com/google/uuid"
)

// Invitation invites an email address into a team. When the inviter's own
// email is the invited address the row is a join request.
type Invitation struct {
	ID             int64     `json:"id"`
	UUID           uuid.UUID `json:"uuid"`
	TeamID         int64     `json:"-"`
	TeamUUID       uuid.UUID `json:"team"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	InvitedByID    *int64    `json:"-"`
	InvitedBy      *string   `json:"invited_by"`
	InvitedByEmail string    `json:"-"`
	IsAccepted     bool      `json:"is_accepted"`
	AcceptedByID   *int64    `json:"-"`
	CreatedAt      time.Time `json:"created"`
	UpdatedAt      time.Time `json:"modified"`
}

// IsJoinRequest reports whether the invitee created the row
func (i Invitation) IsJoinRequest() bool {
	return i.InvitedByID != nil && i.InvitedByEmail == i.Email
}

func (i Invitation) OwnerTeamID() int64 {
	return i.TeamID
}

func (i Invitation) AddresseeEmail() string {
	return i.Email
}

func (i Invitation) SenderID() (int64, bool) {
	if i.InvitedByID == nil {
		return 0, false
	}
	return *i.InvitedByID, true
}

// InvitationCreate represents invitation and join request creation data
type InvitationCreate struct {
	Team  uuid.UUID `json:"team" validate:"required"`
	Email string    `json:"email" validate:"required,email,max=254"`
	Role  string    `json:"role" validate:"omitempty,oneof=ADMIN GENERAL CONFIGURATION"`
}

// InvitationFilter narrows invitation listings
type InvitationFilter struct {
	TeamUUID   *uuid.UUID
	IsAccepted *bool
	InvitedBy  *int64
}
