package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/Rrens/teamhub/internal/access"
	"github.com/google/uuid"
)

// ErrDuplicate is returned by stores when a unique constraint rejects a write
var ErrDuplicate = errors.New("duplicate key")

// ErrDuplicateEmail is the ErrDuplicate raised by the users email constraint
var ErrDuplicateEmail = fmt.Errorf("%w: users email", ErrDuplicate)

// Lookups return (nil, nil) when no row matches. Scoped lookups and listings
// take an access.Cond; pass access.Everything{} for unrestricted reads.

// UserRepository defines the interface for user storage
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, page PageRequest) ([]User, int, error)
}

// TokenRepository defines the interface for bearer token storage
type TokenRepository interface {
	Create(ctx context.Context, token *Token) error
	GetByKey(ctx context.Context, key string) (*Token, error)
	GetByUserID(ctx context.Context, userID int64) (*Token, error)
	Delete(ctx context.Context, key string) error
}

// TeamRepository defines the interface for team storage
type TeamRepository interface {
	Create(ctx context.Context, team *Team) error
	GetByUUID(ctx context.Context, id uuid.UUID, scope access.Cond) (*Team, error)
	List(ctx context.Context, scope access.Cond, filter TeamFilter, page PageRequest) ([]Team, int, error)
	Update(ctx context.Context, team *Team) error
	Delete(ctx context.Context, id int64) error
	NameExists(ctx context.Context, name string, excludeID int64) (bool, error)
}

// MembershipRepository defines the interface for membership storage
type MembershipRepository interface {
	Create(ctx context.Context, membership *Membership) error
	Get(ctx context.Context, teamID, userID int64) (*Membership, error)
	Delete(ctx context.Context, teamID int64, userIDs []int64) (int64, error)
	ListByTeam(ctx context.Context, teamID int64) ([]MembershipView, error)
	TeamIDsForUser(ctx context.Context, userID int64) ([]int64, error)
	TeamUUIDsForUser(ctx context.Context, userID int64) ([]uuid.UUID, error)
}

// InvitationRepository defines the interface for invitation and join request storage
type InvitationRepository interface {
	Create(ctx context.Context, invitation *Invitation) error
	GetByUUID(ctx context.Context, id uuid.UUID, scope access.Cond) (*Invitation, error)
	// GetForUpdate reads the row and locks it for the rest of the transaction
	GetForUpdate(ctx context.Context, id int64) (*Invitation, error)
	List(ctx context.Context, scope access.Cond, filter InvitationFilter, page PageRequest) ([]Invitation, int, error)
	MarkAccepted(ctx context.Context, id int64, acceptedBy int64) error
	Delete(ctx context.Context, id int64) error
}

// APIKeyRepository defines the interface for API key storage
type APIKeyRepository interface {
	Create(ctx context.Context, key *APIKey) error
	GetByPrefix(ctx context.Context, prefix string) (*APIKey, error)
	GetByUUID(ctx context.Context, id uuid.UUID, scope access.Cond) (*APIKey, error)
	List(ctx context.Context, scope access.Cond, filter APIKeyFilter, page PageRequest) ([]APIKey, int, error)
	NameExistsInTeam(ctx context.Context, teamID int64, name string) (bool, error)
	Delete(ctx context.Context, id int64) error
}

// ResourceRepository defines the interface for resource storage
type ResourceRepository interface {
	Create(ctx context.Context, resource *Resource) error
	GetByUUID(ctx context.Context, id uuid.UUID, scope access.Cond) (*Resource, error)
	List(ctx context.Context, scope access.Cond, filter ResourceFilter, page PageRequest) ([]Resource, int, error)
	Update(ctx context.Context, resource *Resource) error
	Delete(ctx context.Context, id int64) error
}

// TxManager runs fn atomically. Repositories called with the ctx passed to fn
// take part in the transaction.
type TxManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store bundles the repositories of one storage backend
type Store struct {
	Users       UserRepository
	Tokens      TokenRepository
	Teams       TeamRepository
	Memberships MembershipRepository
	Invitations InvitationRepository
	APIKeys     APIKeyRepository
	Resources   ResourceRepository
	Tx          TxManager
}
