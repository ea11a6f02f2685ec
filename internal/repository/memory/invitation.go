package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/Rrens/teamhub/internal/access"
	"github.com/Rrens/teamhub/internal/domain"
	"github.com/google/uuid"
)

// InvitationRepository stores invitations and join requests in memory
type InvitationRepository struct {
	s *Store
}

// hydrateInvitation fills the columns postgres reads through joins. Callers
// hold s.mu.
func (s *Store) hydrateInvitation(inv domain.Invitation) domain.Invitation {
	inv.TeamUUID = s.teams[inv.TeamID].UUID
	inv.InvitedBy = nil
	inv.InvitedByEmail = ""
	if inv.InvitedByID != nil {
		if u, ok := s.users[*inv.InvitedByID]; ok {
			username := u.Username
			inv.InvitedBy = &username
			inv.InvitedByEmail = u.Email
		}
	}
	return inv
}

func (r *InvitationRepository) Create(ctx context.Context, inv *domain.Invitation) error {
	defer r.s.lockWrite(ctx)()

	for _, existing := range r.s.invitations {
		if existing.UUID == inv.UUID || (existing.TeamID == inv.TeamID && existing.Email == inv.Email) {
			return fmt.Errorf("failed to create invitation: %w", domain.ErrDuplicate)
		}
	}

	inv.ID = r.s.next("invitations")
	r.s.invitations[inv.ID] = *inv
	*inv = r.s.hydrateInvitation(*inv)
	return nil
}

func (r *InvitationRepository) GetByUUID(_ context.Context, id uuid.UUID, scope access.Cond) (*domain.Invitation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	cond := r.s.resolve(scope)
	for _, inv := range r.s.invitations {
		if inv.UUID != id {
			continue
		}
		inv = r.s.hydrateInvitation(inv)
		if cond.Match(inv) {
			return &inv, nil
		}
		return nil, nil
	}
	return nil, nil
}

// GetForUpdate relies on RunInTx serializing transactions for the lock
func (r *InvitationRepository) GetForUpdate(_ context.Context, id int64) (*domain.Invitation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	inv, ok := r.s.invitations[id]
	if !ok {
		return nil, nil
	}
	inv = r.s.hydrateInvitation(inv)
	return &inv, nil
}

func (r *InvitationRepository) List(_ context.Context, scope access.Cond, filter domain.InvitationFilter, page domain.PageRequest) ([]domain.Invitation, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	cond := r.s.resolve(scope)
	var invitations []domain.Invitation
	for _, inv := range r.s.invitations {
		inv = r.s.hydrateInvitation(inv)
		if !cond.Match(inv) {
			continue
		}
		if filter.TeamUUID != nil && inv.TeamUUID != *filter.TeamUUID {
			continue
		}
		if filter.IsAccepted != nil && inv.IsAccepted != *filter.IsAccepted {
			continue
		}
		if filter.InvitedBy != nil && (inv.InvitedByID == nil || *inv.InvitedByID != *filter.InvitedBy) {
			continue
		}
		invitations = append(invitations, inv)
	}
	newestFirst(invitations,
		func(i domain.Invitation) time.Time { return i.CreatedAt },
		func(i domain.Invitation) int64 { return i.ID },
	)

	return domain.Window(invitations, page), len(invitations), nil
}

func (r *InvitationRepository) MarkAccepted(ctx context.Context, id int64, acceptedBy int64) error {
	defer r.s.lockWrite(ctx)()

	inv, ok := r.s.invitations[id]
	if !ok {
		return nil
	}
	inv.IsAccepted = true
	inv.AcceptedByID = &acceptedBy
	inv.UpdatedAt = time.Now().UTC()
	r.s.invitations[id] = inv
	return nil
}

func (r *InvitationRepository) Delete(ctx context.Context, id int64) error {
	defer r.s.lockWrite(ctx)()

	delete(r.s.invitations, id)
	return nil
}
