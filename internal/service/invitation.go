package service

import (
	"context"
	"fmt"

	"github.com/Rrens/teamhub/internal/access"
	"github.com/Rrens/teamhub/internal/domain"
	"github.com/Rrens/teamhub/internal/pkg/apperr"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const (
	msgInvitationExpired = "the invitation link is expired"
	msgInvitationUnique  = "The fields team, email must make a unique set."
	msgInvalidEmail      = "Invalid email address"
)

// InvitationService handles invitations sent by team admins and join
// requests sent by prospective members. Both are stored as invitations.
type InvitationService struct {
	invitationRepo domain.InvitationRepository
	teamRepo       domain.TeamRepository
	userRepo       domain.UserRepository
	membershipRepo domain.MembershipRepository
	tx             domain.TxManager
	clock          clockwork.Clock
}

// NewInvitationService creates a new invitation service
func NewInvitationService(store *domain.Store, clock clockwork.Clock) *InvitationService {
	return &InvitationService{
		invitationRepo: store.Invitations,
		teamRepo:       store.Teams,
		userRepo:       store.Users,
		membershipRepo: store.Memberships,
		tx:             store.Tx,
		clock:          clock,
	}
}

// List returns invitations of the principal's teams and those addressed to it
func (s *InvitationService) List(ctx context.Context, p access.Principal, filter domain.InvitationFilter, page domain.PageRequest) (domain.Page[domain.Invitation], error) {
	return s.list(ctx, access.Invitations(p), filter, page)
}

// ListJoinRequests returns the join requests the principal sent
func (s *InvitationService) ListJoinRequests(ctx context.Context, p access.Principal, filter domain.InvitationFilter, page domain.PageRequest) (domain.Page[domain.Invitation], error) {
	return s.list(ctx, access.JoinRequests(p), filter, page)
}

func (s *InvitationService) list(ctx context.Context, scope access.Cond, filter domain.InvitationFilter, page domain.PageRequest) (domain.Page[domain.Invitation], error) {
	invitations, count, err := s.invitationRepo.List(ctx, scope, filter, page)
	if err != nil {
		return domain.Page[domain.Invitation]{}, fmt.Errorf("failed to list invitations: %w", err)
	}
	return domain.NewPage(invitations, count), nil
}

// Get returns one invitation
func (s *InvitationService) Get(ctx context.Context, p access.Principal, id uuid.UUID) (*domain.Invitation, error) {
	inv, err := s.invitationRepo.GetByUUID(ctx, id, access.Invitations(p))
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	if inv == nil {
		return nil, apperr.NotFound("")
	}
	if !access.CanAccessInvitation(p, inv) {
		return nil, apperr.Forbidden("")
	}
	return inv, nil
}

// GetJoinRequest returns one join request sent by the principal
func (s *InvitationService) GetJoinRequest(ctx context.Context, p access.Principal, id uuid.UUID) (*domain.Invitation, error) {
	inv, err := s.invitationRepo.GetByUUID(ctx, id, access.JoinRequests(p))
	if err != nil {
		return nil, fmt.Errorf("failed to get join request: %w", err)
	}
	if inv == nil {
		return nil, apperr.NotFound("")
	}
	if !access.CanAccessJoinRequest(p, inv) {
		return nil, apperr.Forbidden("")
	}
	return inv, nil
}

// Create invites an email address into a team. Only team admins may invite.
func (s *InvitationService) Create(ctx context.Context, p access.Principal, input domain.InvitationCreate) (*domain.Invitation, error) {
	team, err := s.lookupTeam(ctx, input.Team)
	if err != nil {
		return nil, err
	}
	if err := requireTeamAdmin(ctx, s.membershipRepo, p, team.ID); err != nil {
		return nil, err
	}

	invitee, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if invitee != nil {
		if err := s.ensureNotMember(ctx, team.ID, invitee.ID); err != nil {
			return nil, err
		}
	}

	inv, err := s.create(ctx, p, team, input)
	if err != nil {
		return nil, err
	}

	log.Info().Str("invitation", inv.UUID.String()).Str("team", team.UUID.String()).Int64("invited_by", p.UserID).Msg("invitation created")
	return inv, nil
}

// CreateJoinRequest asks to join a team. The request must carry the
// principal's own email.
func (s *InvitationService) CreateJoinRequest(ctx context.Context, p access.Principal, input domain.InvitationCreate) (*domain.Invitation, error) {
	team, err := s.lookupTeam(ctx, input.Team)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNotMember(ctx, team.ID, p.UserID); err != nil {
		return nil, err
	}
	if input.Email != p.Email {
		return nil, apperr.FieldValidation("email", msgInvalidEmail)
	}

	inv, err := s.create(ctx, p, team, input)
	if err != nil {
		return nil, err
	}

	log.Info().Str("join_request", inv.UUID.String()).Str("team", team.UUID.String()).Int64("user_id", p.UserID).Msg("join request created")
	return inv, nil
}

func (s *InvitationService) create(ctx context.Context, p access.Principal, team *domain.Team, input domain.InvitationCreate) (*domain.Invitation, error) {
	role := input.Role
	if role == "" {
		role = domain.RoleGeneral
	}

	now := s.clock.Now().UTC()
	invitedBy := p.UserID
	inv := &domain.Invitation{
		UUID:        uuid.New(),
		TeamID:      team.ID,
		Email:       input.Email,
		Role:        role,
		InvitedByID: &invitedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.invitationRepo.Create(ctx, inv); err != nil {
		if isDuplicate(err) {
			return nil, apperr.Validation(msgInvitationUnique)
		}
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}

	// re-read to pick up the joined columns
	created, err := s.invitationRepo.GetByUUID(ctx, inv.UUID, access.Everything{})
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	if created == nil {
		return inv, nil
	}
	return created, nil
}

// Accept turns an invitation or join request into a membership. A true
// invitation can only be accepted by its invitee; a join request only by an
// admin of the team.
func (s *InvitationService) Accept(ctx context.Context, p access.Principal, id uuid.UUID) (*domain.Invitation, error) {
	inv, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}

	var accepted *domain.Invitation
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		locked, err := s.invitationRepo.GetForUpdate(ctx, inv.ID)
		if err != nil {
			return err
		}
		if locked == nil {
			return apperr.NotFound("")
		}
		if locked.IsAccepted {
			return apperr.Forbidden(msgInvitationExpired)
		}

		user, err := s.userRepo.GetByEmail(ctx, locked.Email)
		if err != nil {
			return fmt.Errorf("failed to get user: %w", err)
		}
		if user == nil {
			return apperr.NotFound("")
		}

		// Join requests are admitted by a team admin only, so being able to
		// see the row is not enough. Invitations are accepted by the invitee.
		if locked.IsJoinRequest() {
			if err := requireTeamAdmin(ctx, s.membershipRepo, p, locked.TeamID); err != nil {
				return err
			}
		} else if user.ID != p.UserID {
			return apperr.Forbidden("")
		}

		now := s.clock.Now().UTC()
		membership := &domain.Membership{
			TeamID:    locked.TeamID,
			UserID:    user.ID,
			Role:      locked.Role,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.membershipRepo.Create(ctx, membership); err != nil {
			if isDuplicate(err) {
				return apperr.Validation(msgAlreadyInTeam)
			}
			return fmt.Errorf("failed to create membership: %w", err)
		}

		if err := s.invitationRepo.MarkAccepted(ctx, locked.ID, p.UserID); err != nil {
			return err
		}

		acceptedBy := p.UserID
		locked.IsAccepted = true
		locked.AcceptedByID = &acceptedBy
		locked.UpdatedAt = now
		accepted = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("invitation", accepted.UUID.String()).Int64("accepted_by", p.UserID).Bool("join_request", accepted.IsJoinRequest()).Msg("invitation accepted")
	return accepted, nil
}

// Delete removes an invitation; rejecting an invitation does the same
func (s *InvitationService) Delete(ctx context.Context, p access.Principal, id uuid.UUID) error {
	inv, err := s.Get(ctx, p, id)
	if err != nil {
		return err
	}
	if err := s.invitationRepo.Delete(ctx, inv.ID); err != nil {
		return fmt.Errorf("failed to delete invitation: %w", err)
	}
	log.Info().Str("invitation", inv.UUID.String()).Int64("user_id", p.UserID).Msg("invitation deleted")
	return nil
}

// DeleteJoinRequest withdraws a join request
func (s *InvitationService) DeleteJoinRequest(ctx context.Context, p access.Principal, id uuid.UUID) error {
	inv, err := s.GetJoinRequest(ctx, p, id)
	if err != nil {
		return err
	}
	if err := s.invitationRepo.Delete(ctx, inv.ID); err != nil {
		return fmt.Errorf("failed to delete join request: %w", err)
	}
	return nil
}

func (s *InvitationService) lookupTeam(ctx context.Context, id uuid.UUID) (*domain.Team, error) {
	team, err := s.teamRepo.GetByUUID(ctx, id, access.Everything{})
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	if team == nil {
		return nil, invalidPK("team", id)
	}
	return team, nil
}

func (s *InvitationService) ensureNotMember(ctx context.Context, teamID, userID int64) error {
	m, err := s.membershipRepo.Get(ctx, teamID, userID)
	if err != nil {
		return fmt.Errorf("failed to get membership: %w", err)
	}
	if m != nil {
		return apperr.Validation(msgAlreadyInTeam)
	}
	return nil
}
