package domain

import (
	"time"

	"github.com/google/uuid"
)

// APIKey is a long-lived credential bound to a provisioned team account
type APIKey struct {
	ID         int64      `json:"id"`
	UUID       uuid.UUID  `json:"uuid"`
	Name       string     `json:"name"`
	Prefix     string     `json:"prefix"`
	HashedKey  string     `json:"-"`
	Key        string     `json:"key,omitempty"`
	TeamID     int64      `json:"-"`
	TeamUUID   uuid.UUID  `json:"team"`
	UserID     int64      `json:"user"`
	Revoked    bool       `json:"revoked"`
	ExpiryDate *time.Time `json:"expiry_date"`
	CreatedAt  time.Time  `json:"created"`
}

func (k APIKey) OwnerTeamID() int64 {
	return k.TeamID
}

// Expired reports whether the key has passed its expiry date at now
func (k APIKey) Expired(now time.Time) bool {
	return k.ExpiryDate != nil && !now.Before(*k.ExpiryDate)
}

// APIKeyCreate represents API key creation data
type APIKeyCreate struct {
	Name string    `json:"name" validate:"required,max=50"`
	Team uuid.UUID `json:"team" validate:"required"`
}

// APIKeyFilter narrows API key listings
type APIKeyFilter struct {
	TeamUUID *uuid.UUID
}
