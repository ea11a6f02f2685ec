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

const msgTeamNameTaken = "team with this name already exists."

// TeamService handles teams and their memberships
type TeamService struct {
	teamRepo       domain.TeamRepository
	membershipRepo domain.MembershipRepository
	userRepo       domain.UserRepository
	tx             domain.TxManager
	clock          clockwork.Clock
}

// NewTeamService creates a new team service
func NewTeamService(store *domain.Store, clock clockwork.Clock) *TeamService {
	return &TeamService{
		teamRepo:       store.Teams,
		membershipRepo: store.Memberships,
		userRepo:       store.Users,
		tx:             store.Tx,
		clock:          clock,
	}
}

// Create creates a team with the creator as its ADMIN
func (s *TeamService) Create(ctx context.Context, p access.Principal, input domain.TeamCreate) (*domain.Team, error) {
	name := normalizeName(input.Name)
	if err := s.checkName(ctx, name, 0); err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	team := &domain.Team{
		UUID:      uuid.New(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.teamRepo.Create(ctx, team); err != nil {
			if isDuplicate(err) {
				return apperr.FieldValidation("name", msgTeamNameTaken)
			}
			return fmt.Errorf("failed to create team: %w", err)
		}

		membership := &domain.Membership{
			TeamID:    team.ID,
			UserID:    p.UserID,
			Role:      domain.RoleAdmin,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.membershipRepo.Create(ctx, membership); err != nil {
			return fmt.Errorf("failed to add team admin: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("team", team.UUID.String()).Int64("user_id", p.UserID).Msg("team created")

	if err := s.withMemberships(ctx, team); err != nil {
		return nil, err
	}
	return team, nil
}

// List returns the teams the principal may see
func (s *TeamService) List(ctx context.Context, p access.Principal, filter domain.TeamFilter, page domain.PageRequest) (domain.Page[domain.Team], error) {
	return s.list(ctx, access.Teams(p), filter, page)
}

// ListAll returns every team
func (s *TeamService) ListAll(ctx context.Context, filter domain.TeamFilter, page domain.PageRequest) (domain.Page[domain.Team], error) {
	return s.list(ctx, access.Everything{}, filter, page)
}

func (s *TeamService) list(ctx context.Context, scope access.Cond, filter domain.TeamFilter, page domain.PageRequest) (domain.Page[domain.Team], error) {
	teams, count, err := s.teamRepo.List(ctx, scope, filter, page)
	if err != nil {
		return domain.Page[domain.Team]{}, fmt.Errorf("failed to list teams: %w", err)
	}

	for i := range teams {
		if err := s.withMemberships(ctx, &teams[i]); err != nil {
			return domain.Page[domain.Team]{}, err
		}
	}

	return domain.NewPage(teams, count), nil
}

// Get returns one team with its memberships
func (s *TeamService) Get(ctx context.Context, p access.Principal, id uuid.UUID) (*domain.Team, error) {
	team, err := s.get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := s.withMemberships(ctx, team); err != nil {
		return nil, err
	}
	return team, nil
}

// get applies the list filter (404) then the object check (403)
func (s *TeamService) get(ctx context.Context, p access.Principal, id uuid.UUID) (*domain.Team, error) {
	team, err := s.teamRepo.GetByUUID(ctx, id, access.Teams(p))
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	if team == nil {
		return nil, apperr.NotFound("")
	}
	if !access.CanAccessTeam(p, team) {
		return nil, apperr.Forbidden("")
	}
	return team, nil
}

// Update renames a team. An empty name clears it; an absent one keeps it.
func (s *TeamService) Update(ctx context.Context, p access.Principal, id uuid.UUID, input domain.TeamUpdate) (*domain.Team, error) {
	team, err := s.get(ctx, p, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := normalizeName(input.Name)
		if err := s.checkName(ctx, name, team.ID); err != nil {
			return nil, err
		}
		team.Name = name
	}

	team.UpdatedAt = s.clock.Now().UTC()
	if err := s.teamRepo.Update(ctx, team); err != nil {
		if isDuplicate(err) {
			return nil, apperr.FieldValidation("name", msgTeamNameTaken)
		}
		return nil, fmt.Errorf("failed to update team: %w", err)
	}

	if err := s.withMemberships(ctx, team); err != nil {
		return nil, err
	}
	return team, nil
}

// Delete deletes a team and everything it owns
func (s *TeamService) Delete(ctx context.Context, p access.Principal, id uuid.UUID) error {
	team, err := s.get(ctx, p, id)
	if err != nil {
		return err
	}
	if err := requireTeamAdmin(ctx, s.membershipRepo, p, team.ID); err != nil {
		return err
	}

	if err := s.teamRepo.Delete(ctx, team.ID); err != nil {
		return fmt.Errorf("failed to delete team: %w", err)
	}

	log.Info().Str("team", team.UUID.String()).Int64("user_id", p.UserID).Msg("team deleted")
	return nil
}

// AddUsers adds users to a team as GENERAL members. Either all of them are
// added or none.
func (s *TeamService) AddUsers(ctx context.Context, p access.Principal, id uuid.UUID, input domain.TeamUsers) (*domain.Team, error) {
	team, err := s.get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := requireTeamAdmin(ctx, s.membershipRepo, p, team.ID); err != nil {
		return nil, err
	}

	for _, userID := range input.Users {
		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to get user: %w", err)
		}
		if user == nil {
			return nil, invalidPK("users", userID)
		}
	}

	now := s.clock.Now().UTC()
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		for _, userID := range input.Users {
			membership := &domain.Membership{
				TeamID:    team.ID,
				UserID:    userID,
				Role:      domain.RoleGeneral,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := s.membershipRepo.Create(ctx, membership); err != nil {
				if isDuplicate(err) {
					return apperr.Validation(msgAlreadyInTeam)
				}
				return fmt.Errorf("failed to add member: %w", err)
			}
		}

		team.UpdatedAt = now
		return s.teamRepo.Update(ctx, team)
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("team", team.UUID.String()).Ints64("users", input.Users).Msg("team members added")

	if err := s.withMemberships(ctx, team); err != nil {
		return nil, err
	}
	return team, nil
}

// RemoveUsers removes users from a team; users who are not members are ignored
func (s *TeamService) RemoveUsers(ctx context.Context, p access.Principal, id uuid.UUID, input domain.TeamUsers) error {
	team, err := s.get(ctx, p, id)
	if err != nil {
		return err
	}
	if err := requireTeamAdmin(ctx, s.membershipRepo, p, team.ID); err != nil {
		return err
	}

	removed, err := s.membershipRepo.Delete(ctx, team.ID, input.Users)
	if err != nil {
		return fmt.Errorf("failed to remove members: %w", err)
	}

	log.Info().Str("team", team.UUID.String()).Int64("removed", removed).Msg("team members removed")
	return nil
}

func (s *TeamService) checkName(ctx context.Context, name *string, excludeID int64) error {
	if name == nil {
		return nil
	}
	exists, err := s.teamRepo.NameExists(ctx, *name, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check team name: %w", err)
	}
	if exists {
		return apperr.FieldValidation("name", msgTeamNameTaken)
	}
	return nil
}

func (s *TeamService) withMemberships(ctx context.Context, team *domain.Team) error {
	memberships, err := s.membershipRepo.ListByTeam(ctx, team.ID)
	if err != nil {
		return fmt.Errorf("failed to list memberships: %w", err)
	}
	if memberships == nil {
		memberships = []domain.MembershipView{}
	}
	team.Memberships = memberships
	return nil
}

// normalizeName maps an empty name to no name
func normalizeName(name *string) *string {
	if name == nil || *name == "" {
		return nil
	}
	return name
}
