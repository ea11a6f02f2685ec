package domain

import (
	"time"

	"github.com/Rrens/teamhub/internal/access"
	"github.com/google/uuid"
)

// Team represents a tenant team
type Team struct {
	ID          int64            `json:"id"`
	UUID        uuid.UUID        `json:"uuid"`
	Name        *string          `json:"name"`
	CreatedAt   time.Time        `json:"created"`
	UpdatedAt   time.Time        `json:"modified"`
	Memberships []MembershipView `json:"memberships"`
}

// OwnerTeamID makes a team visible through team-owned rules
func (t Team) OwnerTeamID() int64 {
	return t.ID
}

// TeamCreate represents team creation data
type TeamCreate struct {
	Name *string `json:"name" validate:"omitempty,max=150"`
}

// TeamUpdate represents team update data
type TeamUpdate struct {
	Name *string `json:"name" validate:"omitempty,max=150"`
}

// TeamUsers lists users to add to or remove from a team
type TeamUsers struct {
	Users []int64 `json:"users" validate:"required,min=1,dive,gt=0"`
}

// TeamFilter narrows team listings
type TeamFilter struct {
	NameContains string
}

// Membership grants a user a role within a team
type Membership struct {
	ID        int64     `json:"id"`
	TeamID    int64     `json:"team_id"`
	UserID    int64     `json:"user_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created"`
	UpdatedAt time.Time `json:"modified"`
}

// MembershipView is the representation embedded in team details
type MembershipView struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created"`
	UpdatedAt time.Time `json:"modified"`
	TeamName  string    `json:"team_name"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
}

// Role constants
const (
	RoleAdmin         = access.AdminRole
	RoleGeneral       = "GENERAL"
	RoleConfiguration = "CONFIGURATION"
)

// ValidRole reports whether role is a known membership role
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleGeneral, RoleConfiguration:
		return true
	}
	return false
}
